package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"
)

// Loader reads the static topic dataset. Topics are loaded read-only; the
// service never writes back to the dataset file.
type Loader struct {
	dataFile string
}

func NewLoader(dataFile string) *Loader {
	return &Loader{dataFile: dataFile}
}

// Run parses the dataset into topics, keeping each topic's raw JSON for
// safety scanning. Dataset order is preserved.
func (l *Loader) Run() ([]Topic, error) {
	data, err := os.ReadFile(l.dataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var rawTopics []json.RawMessage
	if err := json.Unmarshal(data, &rawTopics); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", l.dataFile, err)
	}

	topics := make([]Topic, 0, len(rawTopics))
	seen := make(map[string]bool, len(rawTopics))

	for i, raw := range rawTopics {
		var topic Topic
		if err := json.Unmarshal(raw, &topic); err != nil {
			return nil, fmt.Errorf("invalid topic at index %d: %w", i, err)
		}

		if topic.Title == "" {
			return nil, fmt.Errorf("topic at index %d has no title", i)
		}
		if topic.Slug == "" {
			topic.Slug = Slugify(topic.Title)
		}
		if seen[topic.Slug] {
			return nil, fmt.Errorf("duplicate topic slug: %s", topic.Slug)
		}
		seen[topic.Slug] = true

		topic.Raw = raw
		topic.ContentHash = hashContent(raw)

		topics = append(topics, topic)
	}

	slog.Debug("Dataset loaded", "file", l.dataFile, "topics", len(topics))

	return topics, nil
}

// Slugify derives a URL-safe identifier from a topic title.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

func hashContent(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
