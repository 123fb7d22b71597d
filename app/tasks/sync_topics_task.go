package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claritycare/claritycare/app/content"
	"github.com/claritycare/claritycare/app/database"
	"github.com/claritycare/claritycare/app/metrics"
)

// SyncTopicsTask loads the topic dataset and reconciles the database with
// it: upserts every topic in dataset order, registers pending resource
// snapshots, and prunes topics removed from the dataset.
type SyncTopicsTask struct {
	Task
	loader       *content.Loader
	topicRepo    database.TopicRepository
	snapshotRepo database.SnapshotRepository
}

func NewSyncTopicsTask(dataFile string, loader *content.Loader,
	topicRepo database.TopicRepository, snapshotRepo database.SnapshotRepository) *SyncTopicsTask {
	return &SyncTopicsTask{
		Task:         NewTask(TaskTypeSyncTopics, dataFile),
		loader:       loader,
		topicRepo:    topicRepo,
		snapshotRepo: snapshotRepo,
	}
}

func (t *SyncTopicsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	topics, err := t.loader.Run()
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	slugs := make([]string, 0, len(topics))
	changedCount := 0

	for position, topic := range topics {
		changed, err := t.topicRepo.UpsertTopic(topic, position)
		if err != nil {
			return fmt.Errorf("failed to upsert topic %s: %w", topic.Slug, err)
		}
		if changed {
			changedCount++
		}
		slugs = append(slugs, topic.Slug)

		for _, resource := range topic.Resources {
			if resource.URL == "" {
				continue
			}
			if err := t.snapshotRepo.RegisterPending(topic.Slug, resource.URL, resource.Label); err != nil {
				slog.Warn("Failed to register resource snapshot",
					"topic", topic.Slug, "url", resource.URL, "error", err)
			}
		}
	}

	removed, err := t.topicRepo.DeleteMissing(slugs)
	if err != nil {
		return fmt.Errorf("failed to prune removed topics: %w", err)
	}
	if _, err := t.snapshotRepo.PruneMissing(slugs); err != nil {
		return fmt.Errorf("failed to prune orphaned snapshots: %w", err)
	}

	metrics.DatasetSyncs.Inc()

	slog.Info("Dataset synced",
		"topics", len(topics),
		"changed", changedCount,
		"removed", removed,
		"duration", t.GetDuration().String())

	return nil
}
