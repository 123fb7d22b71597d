package database

import (
	"time"

	"github.com/claritycare/claritycare/app/content"
)

type TopicRepository interface {
	GetTopic(slug string) (*Topic, error)
	ListTopics(category string) ([]Topic, error)
	GetTopicCount() (int, error)
	GetCategoryStats() ([]CategoryCount, error)

	// UpsertTopic stores a topic at the given dataset position and reports
	// whether stored content changed.
	UpsertTopic(topic content.Topic, position int) (bool, error)

	// DeleteMissing removes topics whose slug is not in keep and returns
	// how many were removed.
	DeleteMissing(keep []string) (int, error)
}

type SnapshotRepository interface {
	GetForTopic(topicSlug string) ([]ResourceSnapshot, error)
	GetDue(cutoff time.Time, limit int) ([]ResourceSnapshot, error)
	GetStats() (total, fetched, failed int, err error)

	RegisterPending(topicSlug, url, label string) error
	UpdateResult(id, status, excerpt, fetchError string, fetchedAt time.Time) error
	PruneMissing(keepSlugs []string) (int, error)
}
