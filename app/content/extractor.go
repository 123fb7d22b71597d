package content

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

const snapshotExcerptLength = 480

var excerptSpaceRe = regexp.MustCompile(`\s+`)

// Extractor pulls a readable plain-text excerpt out of a fetched resource
// page, used for the per-topic resource snapshots.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(excerptSpaceRe.ReplaceAllString(article.TextContent, " "))
	if text == "" {
		return "", fmt.Errorf("no readable text extracted")
	}

	if runes := []rune(text); len(runes) > snapshotExcerptLength {
		text = strings.TrimSpace(string(runes[:snapshotExcerptLength]))
	}

	slog.Debug("Resource content extracted",
		"title", article.Title,
		"excerpt_length", len(text))

	return text, nil
}
