package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ SnapshotRepository = (*snapshotRepository)(nil)

type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

const snapshotColumns = `id, topic_slug, url, label, excerpt, status, fetch_error, fetched_at, created_at`

func (r *snapshotRepository) GetForTopic(topicSlug string) ([]ResourceSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT `+snapshotColumns+`
		FROM resource_snapshots
		WHERE topic_slug = ?
		ORDER BY created_at, url
	`, topicSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

func (r *snapshotRepository) GetDue(cutoff time.Time, limit int) ([]ResourceSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT `+snapshotColumns+`
		FROM resource_snapshots
		WHERE fetched_at IS NULL OR fetched_at < ?
		ORDER BY fetched_at IS NOT NULL, fetched_at
		LIMIT ?
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due snapshots: %w", err)
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

func (r *snapshotRepository) GetStats() (total, fetched, failed int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS fetched,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed
		FROM resource_snapshots
	`, SnapshotStatusFetched, SnapshotStatusFailed).Scan(&total, &fetched, &failed)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get snapshot stats: %w", err)
	}
	return total, fetched, failed, nil
}

func (r *snapshotRepository) RegisterPending(topicSlug, url, label string) error {
	_, err := r.db.Exec(`
		INSERT INTO resource_snapshots (id, topic_slug, url, label, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (topic_slug, url) DO UPDATE SET
			label = excluded.label
	`, uuid.NewString(), topicSlug, url, label, SnapshotStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to register snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) UpdateResult(id, status, excerpt, fetchError string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE resource_snapshots
		SET status = ?, excerpt = ?, fetch_error = ?, fetched_at = ?
		WHERE id = ?
	`, status, excerpt, fetchError, fetchedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update snapshot result: %w", err)
	}
	return nil
}

func (r *snapshotRepository) PruneMissing(keepSlugs []string) (int, error) {
	if len(keepSlugs) == 0 {
		result, err := r.db.Exec("DELETE FROM resource_snapshots")
		if err != nil {
			return 0, fmt.Errorf("failed to prune snapshots: %w", err)
		}
		affected, _ := result.RowsAffected()
		return int(affected), nil
	}

	placeholders := strings.Repeat("?,", len(keepSlugs)-1) + "?"
	args := make([]interface{}, len(keepSlugs))
	for i, slug := range keepSlugs {
		args[i] = slug
	}

	result, err := r.db.Exec(
		"DELETE FROM resource_snapshots WHERE topic_slug NOT IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune missing snapshots: %w", err)
	}

	affected, _ := result.RowsAffected()
	return int(affected), nil
}

func collectSnapshots(rows *sql.Rows) ([]ResourceSnapshot, error) {
	var snapshots []ResourceSnapshot

	for rows.Next() {
		var s ResourceSnapshot
		var fetchedAt sql.NullTime

		err := rows.Scan(&s.ID, &s.TopicSlug, &s.URL, &s.Label, &s.Excerpt,
			&s.Status, &s.FetchError, &fetchedAt, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		if fetchedAt.Valid {
			t := fetchedAt.Time
			s.FetchedAt = &t
		}

		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return snapshots, nil
}
