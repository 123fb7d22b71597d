package main

import (
	"fmt"
	"os"

	"github.com/claritycare/claritycare/app/content"
	"github.com/claritycare/claritycare/app/safety"
)

// Topics with more warnings than this show a truncation note in lint output.
const lintWarningCap = 8

// runLint scans every topic in the dataset and reports safety warnings.
// Returns the process exit code: 0 for a clean dataset, 1 when any topic
// produced warnings.
func runLint(loader *content.Loader, scanner *safety.Scanner) int {
	topics, err := loader.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load dataset: %v\n", err)
		return 1
	}

	flaggedTopics := 0
	totalWarnings := 0

	for _, topic := range topics {
		warnings, err := scanner.RunRaw(topic.Raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: topic %q is malformed: %v\n", topic.Slug, err)
			return 1
		}

		if len(warnings) == 0 {
			continue
		}

		flaggedTopics++
		totalWarnings += len(warnings)

		fmt.Printf("%s (%s): %d warning(s)\n", topic.Title, topic.Slug, len(warnings))
		shown := warnings
		if len(shown) > lintWarningCap {
			shown = shown[:lintWarningCap]
		}
		for _, w := range shown {
			fmt.Printf("  - %s\n", w)
		}
		if len(warnings) > lintWarningCap {
			fmt.Printf("  ... and %d more\n", len(warnings)-lintWarningCap)
		}
	}

	if flaggedTopics == 0 {
		fmt.Printf("Scanned %d topic(s): no safety warnings\n", len(topics))
		return 0
	}

	fmt.Printf("Scanned %d topic(s): %d warning(s) across %d topic(s)\n",
		len(topics), totalWarnings, flaggedTopics)
	return 1
}
