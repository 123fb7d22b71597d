package safety

import (
	"fmt"
	"regexp"
	"strings"
)

type WarningKind string

const (
	WarningBannedPhrase WarningKind = "banned_phrase"
	WarningLongSentence WarningKind = "long_sentence"
)

// Warning is one advisory finding from a scan. Order of warnings follows
// discovery order during traversal; warnings are never persisted.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Phrase    string      `json:"phrase,omitempty"`
	WordCount int         `json:"word_count,omitempty"`
	Excerpt   string      `json:"excerpt"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarningBannedPhrase:
		return fmt.Sprintf("Banned phrase %q found in: %s", w.Phrase, w.Excerpt)
	case WarningLongSentence:
		return fmt.Sprintf("Long sentence (%d words): %s", w.WordCount, w.Excerpt)
	default:
		return w.Excerpt
	}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Scanner audits topic content against a fixed policy. A scan is a pure
// function of (content, policy): it never mutates its input, never fails,
// and produces identical output for identical input.
type Scanner struct {
	policy Policy
}

func NewScanner(policy Policy) *Scanner {
	return &Scanner{policy: policy}
}

func (s *Scanner) Policy() Policy {
	return s.policy
}

// Run scans every string leaf of the content tree. Each string yields at
// most one banned-phrase warning (first table entry wins) and at most one
// long-sentence warning (first oversized sentence wins).
func (s *Scanner) Run(node Node) []Warning {
	var warnings []Warning

	for _, text := range node.Strings() {
		if w, ok := s.checkBannedPhrases(text); ok {
			warnings = append(warnings, w)
		}
		if w, ok := s.checkSentenceLength(text); ok {
			warnings = append(warnings, w)
		}
	}

	return warnings
}

// RunRaw decodes a raw JSON record and scans it.
func (s *Scanner) RunRaw(data []byte) ([]Warning, error) {
	node, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return s.Run(node), nil
}

// checkBannedPhrases matches each table entry, in order, as a substring of
// the normalized text. The reported excerpt quotes the original text.
func (s *Scanner) checkBannedPhrases(text string) (Warning, bool) {
	normalized := Normalize(text)

	for _, phrase := range s.policy.BannedPhrases {
		if strings.Contains(normalized, phrase) {
			return Warning{
				Kind:    WarningBannedPhrase,
				Phrase:  phrase,
				Excerpt: s.excerpt(text),
			}, true
		}
	}

	return Warning{}, false
}

// checkSentenceLength splits the original, un-normalized text on sentence
// terminators and flags the first segment whose word count exceeds the
// policy threshold.
func (s *Scanner) checkSentenceLength(text string) (Warning, bool) {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		wordCount := len(strings.Fields(sentence))
		if wordCount > s.policy.MaxSentenceWords {
			return Warning{
				Kind:      WarningLongSentence,
				WordCount: wordCount,
				Excerpt:   s.excerpt(sentence),
			}, true
		}
	}

	return Warning{}, false
}

// excerpt takes the leading ExcerptLength characters and always appends the
// truncation marker, even when the source text is shorter.
func (s *Scanner) excerpt(text string) string {
	runes := []rune(text)
	if len(runes) > s.policy.ExcerptLength {
		runes = runes[:s.policy.ExcerptLength]
	}
	return string(runes) + "..."
}

// Normalize collapses whitespace runs to a single space, trims, and
// lowercases. Used for matching only, never for reporting.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " ")))
}
