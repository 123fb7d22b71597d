package content

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var searchSpaceRe = regexp.MustCompile(`\s+`)

// Matcher performs case- and accent-insensitive containment search over the
// fields users actually see on a topic card: title and both summaries.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Run filters topics by category and search query, preserving dataset order.
// An empty or "All" category matches everything; an empty query matches
// everything.
func (m *Matcher) Run(topics []Topic, category, query string) []Topic {
	filtered := make([]Topic, 0, len(topics))

	for _, topic := range topics {
		if category != "" && category != CategoryAll && topic.Category != category {
			continue
		}
		if !m.Match(topic, query) {
			continue
		}
		filtered = append(filtered, topic)
	}

	return filtered
}

func (m *Matcher) Match(topic Topic, query string) bool {
	if query == "" {
		return true
	}

	haystack := strings.Join([]string{
		topic.Title,
		topic.OneMinuteSummary,
		topic.Eli5Summary,
	}, " ")

	return strings.Contains(normalizeSearch(haystack), normalizeSearch(query))
}

// normalizeSearch lowercases, collapses whitespace, and strips combining
// marks so accented spellings still match.
func normalizeSearch(s string) string {
	folded, _, err := transform.String(transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), s)
	if err != nil {
		folded = s
	}

	collapsed := searchSpaceRe.ReplaceAllString(folded, " ")
	return strings.ToLower(strings.TrimSpace(collapsed))
}
