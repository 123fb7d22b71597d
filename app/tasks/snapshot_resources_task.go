package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/claritycare/claritycare/app/content"
	"github.com/claritycare/claritycare/app/database"
	"github.com/claritycare/claritycare/app/metrics"
)

const (
	snapshotBatchSize    = 10
	snapshotMaxBodyBytes = 2 << 20 // 2 MiB per resource page
)

// SnapshotResourcesTask fetches due resource links and stores a readable
// plain-text excerpt for each. A failed fetch is recorded on the snapshot,
// never surfaced to topic rendering.
type SnapshotResourcesTask struct {
	Task
	httpClient   *http.Client
	extractor    *content.Extractor
	snapshotRepo database.SnapshotRepository
	userAgent    string
	ttl          time.Duration
}

func NewSnapshotResourcesTask(subject string, httpClient *http.Client, extractor *content.Extractor,
	snapshotRepo database.SnapshotRepository, userAgent string, ttl time.Duration) *SnapshotResourcesTask {
	return &SnapshotResourcesTask{
		Task:         NewTask(TaskTypeSnapshotResources, subject),
		httpClient:   httpClient,
		extractor:    extractor,
		snapshotRepo: snapshotRepo,
		userAgent:    userAgent,
		ttl:          ttl,
	}
}

func (t *SnapshotResourcesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cutoff := time.Now().UTC().Add(-t.ttl)
	due, err := t.snapshotRepo.GetDue(cutoff, snapshotBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get due snapshots: %w", err)
	}

	if len(due) == 0 {
		slog.Debug("No resource snapshots due")
		return nil
	}

	for _, snapshot := range due {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		excerpt, err := t.fetch(ctx, snapshot.URL)
		fetchedAt := time.Now().UTC()

		if err != nil {
			metrics.SnapshotFetches.WithLabelValues(database.SnapshotStatusFailed).Inc()
			slog.Warn("Resource snapshot fetch failed",
				"topic", snapshot.TopicSlug, "url", snapshot.URL, "error", err)

			if updateErr := t.snapshotRepo.UpdateResult(snapshot.ID,
				database.SnapshotStatusFailed, "", err.Error(), fetchedAt); updateErr != nil {
				return fmt.Errorf("failed to record snapshot failure: %w", updateErr)
			}
			continue
		}

		metrics.SnapshotFetches.WithLabelValues(database.SnapshotStatusFetched).Inc()

		if err := t.snapshotRepo.UpdateResult(snapshot.ID,
			database.SnapshotStatusFetched, excerpt, "", fetchedAt); err != nil {
			return fmt.Errorf("failed to store snapshot result: %w", err)
		}

		slog.Debug("Resource snapshot stored",
			"topic", snapshot.TopicSlug, "url", snapshot.URL)
	}

	slog.Info("Resource snapshots processed",
		"count", len(due), "duration", t.GetDuration().String())

	return nil
}

func (t *SnapshotResourcesTask) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch resource: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, snapshotMaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return t.extractor.Run(body)
}
