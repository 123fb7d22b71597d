package database

import (
	"testing"
	"time"
)

func TestSnapshotRepository_RegisterAndGet(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	if err := repo.RegisterPending("headaches", "https://example.org/a", "NHS"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}
	if err := repo.RegisterPending("headaches", "https://example.org/b", "CDC"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}

	snapshots, err := repo.GetForTopic("headaches")
	if err != nil {
		t.Fatalf("Unexpected get error: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snapshots))
	}
	for _, s := range snapshots {
		if s.Status != SnapshotStatusPending {
			t.Errorf("Expected pending status, got %s", s.Status)
		}
		if s.FetchedAt != nil {
			t.Error("Expected unfetched snapshot")
		}
	}
}

func TestSnapshotRepository_RegisterPending_Idempotent(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	if err := repo.RegisterPending("headaches", "https://example.org/a", "NHS"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}

	snapshots, err := repo.GetForTopic("headaches")
	if err != nil {
		t.Fatalf("Unexpected get error: %v", err)
	}
	if err := repo.UpdateResult(snapshots[0].ID, SnapshotStatusFetched, "an excerpt", "", time.Now().UTC()); err != nil {
		t.Fatalf("Unexpected update error: %v", err)
	}

	// Re-registering the same URL keeps the fetched result, only the label
	// may change.
	if err := repo.RegisterPending("headaches", "https://example.org/a", "NHS (updated)"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}

	snapshots, err = repo.GetForTopic("headaches")
	if err != nil {
		t.Fatalf("Unexpected get error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(snapshots))
	}
	if snapshots[0].Status != SnapshotStatusFetched {
		t.Errorf("Expected fetched status preserved, got %s", snapshots[0].Status)
	}
	if snapshots[0].Label != "NHS (updated)" {
		t.Errorf("Expected label updated, got %s", snapshots[0].Label)
	}
}

func TestSnapshotRepository_GetDue(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	if err := repo.RegisterPending("headaches", "https://example.org/a", "NHS"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}
	if err := repo.RegisterPending("headaches", "https://example.org/b", "CDC"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}

	snapshots, err := repo.GetForTopic("headaches")
	if err != nil {
		t.Fatalf("Unexpected get error: %v", err)
	}

	// Mark one as freshly fetched.
	if err := repo.UpdateResult(snapshots[0].ID, SnapshotStatusFetched, "excerpt", "", time.Now().UTC()); err != nil {
		t.Fatalf("Unexpected update error: %v", err)
	}

	// Cutoff in the past: only the never-fetched snapshot is due.
	due, err := repo.GetDue(time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("Unexpected get due error: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("Expected 1 due snapshot, got %d", len(due))
	}
	if due[0].ID == snapshots[0].ID {
		t.Error("Expected the unfetched snapshot to be due, not the fresh one")
	}

	// Cutoff in the future: both are due again.
	due, err = repo.GetDue(time.Now().UTC().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("Unexpected get due error: %v", err)
	}
	if len(due) != 2 {
		t.Errorf("Expected 2 due snapshots, got %d", len(due))
	}
}

func TestSnapshotRepository_GetStats(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	total, fetched, failed, err := repo.GetStats()
	if err != nil {
		t.Fatalf("Unexpected stats error on empty table: %v", err)
	}
	if total != 0 || fetched != 0 || failed != 0 {
		t.Errorf("Expected zero stats, got %d/%d/%d", total, fetched, failed)
	}

	if err := repo.RegisterPending("headaches", "https://example.org/a", "NHS"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}
	if err := repo.RegisterPending("headaches", "https://example.org/b", "CDC"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}

	snapshots, err := repo.GetForTopic("headaches")
	if err != nil {
		t.Fatalf("Unexpected get error: %v", err)
	}
	if err := repo.UpdateResult(snapshots[0].ID, SnapshotStatusFetched, "excerpt", "", time.Now().UTC()); err != nil {
		t.Fatalf("Unexpected update error: %v", err)
	}
	if err := repo.UpdateResult(snapshots[1].ID, SnapshotStatusFailed, "", "connection refused", time.Now().UTC()); err != nil {
		t.Fatalf("Unexpected update error: %v", err)
	}

	total, fetched, failed, err = repo.GetStats()
	if err != nil {
		t.Fatalf("Unexpected stats error: %v", err)
	}
	if total != 2 || fetched != 1 || failed != 1 {
		t.Errorf("Expected 2/1/1, got %d/%d/%d", total, fetched, failed)
	}
}

func TestSnapshotRepository_PruneMissing(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	if err := repo.RegisterPending("headaches", "https://example.org/a", "NHS"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}
	if err := repo.RegisterPending("removed-topic", "https://example.org/b", "CDC"); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}

	pruned, err := repo.PruneMissing([]string{"headaches"})
	if err != nil {
		t.Fatalf("Unexpected prune error: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Expected 1 snapshot pruned, got %d", pruned)
	}

	remaining, err := repo.GetForTopic("removed-topic")
	if err != nil {
		t.Fatalf("Unexpected get error: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("Expected no snapshots for removed topic, got %d", len(remaining))
	}
}
