package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claritycare/claritycare/app/content"
)

var _ TopicRepository = (*topicRepository)(nil)

type topicRepository struct {
	db *DB
}

func NewTopicRepository(db *DB) TopicRepository {
	return &topicRepository{db: db}
}

const topicColumns = `id, slug, title, category, one_minute_summary, eli5_summary,
	       last_reviewed, position, raw_data, content_hash, created_at, updated_at`

func (r *topicRepository) GetTopic(slug string) (*Topic, error) {
	row := r.db.QueryRow(`
		SELECT `+topicColumns+`
		FROM topics
		WHERE slug = ?
	`, slug)

	topic, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	return topic, nil
}

func (r *topicRepository) ListTopics(category string) ([]Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics`
	var args []interface{}

	if category != "" && category != content.CategoryAll {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY position`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, *topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic rows: %w", err)
	}

	return topics, nil
}

func (r *topicRepository) GetTopicCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM topics").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get topic count: %w", err)
	}
	return count, nil
}

func (r *topicRepository) GetCategoryStats() ([]CategoryCount, error) {
	rows, err := r.db.Query(`
		SELECT category, COUNT(*)
		FROM topics
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}
	defer rows.Close()

	var stats []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		stats = append(stats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return stats, nil
}

func (r *topicRepository) UpsertTopic(topic content.Topic, position int) (bool, error) {
	var existingHash string
	err := r.db.QueryRow("SELECT content_hash FROM topics WHERE slug = ?", topic.Slug).Scan(&existingHash)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing topic: %w", err)
	}

	now := time.Now().UTC()

	if err == sql.ErrNoRows {
		_, err = r.db.Exec(`
			INSERT INTO topics (
				id, slug, title, category, one_minute_summary, eli5_summary,
				last_reviewed, position, raw_data, content_hash, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), topic.Slug, topic.Title, topic.Category,
			topic.OneMinuteSummary, topic.Eli5Summary, topic.LastReviewed,
			position, string(topic.Raw), topic.ContentHash, now, now)
		if err != nil {
			return false, fmt.Errorf("failed to insert topic: %w", err)
		}
		return true, nil
	}

	if existingHash == topic.ContentHash {
		// Content unchanged; still track dataset reordering.
		_, err = r.db.Exec("UPDATE topics SET position = ? WHERE slug = ?", position, topic.Slug)
		if err != nil {
			return false, fmt.Errorf("failed to update topic position: %w", err)
		}
		return false, nil
	}

	_, err = r.db.Exec(`
		UPDATE topics SET
			title = ?, category = ?, one_minute_summary = ?, eli5_summary = ?,
			last_reviewed = ?, position = ?, raw_data = ?, content_hash = ?, updated_at = ?
		WHERE slug = ?
	`, topic.Title, topic.Category, topic.OneMinuteSummary, topic.Eli5Summary,
		topic.LastReviewed, position, string(topic.Raw), topic.ContentHash, now, topic.Slug)
	if err != nil {
		return false, fmt.Errorf("failed to update topic: %w", err)
	}

	return true, nil
}

func (r *topicRepository) DeleteMissing(keep []string) (int, error) {
	if len(keep) == 0 {
		result, err := r.db.Exec("DELETE FROM topics")
		if err != nil {
			return 0, fmt.Errorf("failed to delete topics: %w", err)
		}
		affected, _ := result.RowsAffected()
		return int(affected), nil
	}

	placeholders := strings.Repeat("?,", len(keep)-1) + "?"
	args := make([]interface{}, len(keep))
	for i, slug := range keep {
		args[i] = slug
	}

	result, err := r.db.Exec(
		"DELETE FROM topics WHERE slug NOT IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete missing topics: %w", err)
	}

	affected, _ := result.RowsAffected()
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTopic(row rowScanner) (*Topic, error) {
	var topic Topic
	var rawData string

	err := row.Scan(
		&topic.ID, &topic.Slug, &topic.Title, &topic.Category,
		&topic.OneMinuteSummary, &topic.Eli5Summary, &topic.LastReviewed,
		&topic.Position, &rawData, &topic.ContentHash,
		&topic.CreatedAt, &topic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	topic.RawData = []byte(rawData)
	return &topic, nil
}
