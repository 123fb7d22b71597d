package database

import (
	"time"
)

// Topic is a topic record in the database. RawData holds the topic's
// original JSON; the safety scanner operates on it, never on the columns.
type Topic struct {
	ID               string // Database UUID
	Slug             string
	Title            string
	Category         string
	OneMinuteSummary string
	Eli5Summary      string
	LastReviewed     string
	Position         int // Dataset order
	RawData          []byte
	ContentHash      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot fetch statuses.
const (
	SnapshotStatusPending = "pending"
	SnapshotStatusFetched = "fetched"
	SnapshotStatusFailed  = "failed"
)

// ResourceSnapshot is a cached plain-text excerpt of an external resource
// linked from a topic.
type ResourceSnapshot struct {
	ID         string
	TopicSlug  string
	URL        string
	Label      string
	Excerpt    string
	Status     string
	FetchError string
	FetchedAt  *time.Time
	CreatedAt  time.Time
}

// CategoryCount is one row of the per-category topic statistics.
type CategoryCount struct {
	Category string
	Count    int
}
