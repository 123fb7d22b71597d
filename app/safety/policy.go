package safety

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the scan rules. It is treated as immutable once loaded.
type Policy struct {
	BannedPhrases    []string `yaml:"banned_phrases"`
	MaxSentenceWords int      `yaml:"max_sentence_words"`
	ExcerptLength    int      `yaml:"excerpt_length"`
}

// DefaultPolicy returns the editorial policy the service ships with. The
// phrase table is ordered: the first entry that matches a string wins.
// Entries are matched as plain substrings over normalized text, not on word
// boundaries, so short entries like "take " also match inside longer
// phrases. That coarseness is intentional and relied on by content review.
func DefaultPolicy() Policy {
	return Policy{
		BannedPhrases: []string{
			"you should take",
			"take ",
			"go to the er",
			"don't need a doctor",
			"dont need a doctor",
			"most likely",
			"this means you have",
			"diagnosis:",
			"start taking",
			"stop taking",
			"dose",
			"dosage",
		},
		MaxSentenceWords: 25,
		ExcerptLength:    140,
	}
}

// LoadPolicy reads a YAML policy file. Fields left unset fall back to the
// defaults, so a file may override just the phrase table.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	policy := Policy{}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}

	setPolicyDefaults(&policy)

	if err := validatePolicy(&policy); err != nil {
		return Policy{}, fmt.Errorf("invalid policy %s: %w", path, err)
	}

	return policy, nil
}

func setPolicyDefaults(policy *Policy) {
	defaults := DefaultPolicy()

	if len(policy.BannedPhrases) == 0 {
		policy.BannedPhrases = defaults.BannedPhrases
	}
	if policy.MaxSentenceWords == 0 {
		policy.MaxSentenceWords = defaults.MaxSentenceWords
	}
	if policy.ExcerptLength == 0 {
		policy.ExcerptLength = defaults.ExcerptLength
	}
}

func validatePolicy(policy *Policy) error {
	if policy.MaxSentenceWords < 0 {
		return fmt.Errorf("max sentence words must be non-negative")
	}
	if policy.ExcerptLength < 0 {
		return fmt.Errorf("excerpt length must be non-negative")
	}
	for i, phrase := range policy.BannedPhrases {
		if phrase == "" {
			return fmt.Errorf("banned phrase at index %d is empty", i)
		}
	}
	return nil
}
