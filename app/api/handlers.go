package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/claritycare/claritycare/app/assets"
	"github.com/claritycare/claritycare/app/content"
	"github.com/claritycare/claritycare/app/database"
	"github.com/claritycare/claritycare/app/metrics"
	"github.com/claritycare/claritycare/app/safety"
	"github.com/claritycare/claritycare/app/tasks"
)

func NewHandler(topicRepo database.TopicRepository, snapshotRepo database.SnapshotRepository,
	matcher *content.Matcher, scanner *safety.Scanner, resolver *assets.Resolver,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		topicRepo:    topicRepo,
		snapshotRepo: snapshotRepo,
		matcher:      matcher,
		scanner:      scanner,
		resolver:     resolver,
		scheduler:    scheduler,
	}
}

func (h *Handler) GetTopics(c *gin.Context) {
	category := c.Query("category")
	query := c.Query("q")

	records, err := h.topicRepo.ListTopics(category)
	if err != nil {
		slog.Error("Database error", "operation", "list_topics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	topics := make([]content.Topic, 0, len(records))
	for _, record := range records {
		topic, err := decodeTopic(record)
		if err != nil {
			slog.Error("Stored topic is malformed", "topic", record.Slug, "error", err)
			continue
		}
		topics = append(topics, topic)
	}

	filtered := h.matcher.Run(topics, "", query)

	summaries := make([]TopicSummary, 0, len(filtered))
	for _, topic := range filtered {
		summaries = append(summaries, TopicSummary{
			Slug:             topic.Slug,
			Title:            topic.Title,
			Category:         topic.Category,
			OneMinuteSummary: topic.OneMinuteSummary,
			Eli5Summary:      topic.Eli5Summary,
			LastReviewed:     topic.LastReviewed,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": summaries,
		"total":  len(summaries),
	})
}

func (h *Handler) GetTopic(c *gin.Context) {
	slug := c.Param("slug")

	record, err := h.topicRepo.GetTopic(slug)
	if err != nil {
		slog.Error("Database error", "operation", "get_topic", "topic", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	topic, err := decodeTopic(*record)
	if err != nil {
		slog.Error("Stored topic is malformed", "topic", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored topic is malformed"})
		return
	}

	detail := TopicDetail{
		Topic:     topic,
		UpdatedAt: record.UpdatedAt.Format(time.RFC3339),
	}

	// Snapshot lookup failures degrade to plain resource links.
	if snapshots, err := h.snapshotRepo.GetForTopic(slug); err == nil {
		detail.ResourceViews = mergeResourceViews(topic.Resources, snapshots)
	} else {
		slog.Warn("Failed to load resource snapshots", "topic", slug, "error", err)
	}

	metrics.TopicsServed.Inc()

	c.JSON(http.StatusOK, detail)
}

// GetTopicSafety runs an on-demand safety scan over the stored topic. The
// scan is advisory and recomputed per request, never cached.
func (h *Handler) GetTopicSafety(c *gin.Context) {
	slug := c.Param("slug")

	record, err := h.topicRepo.GetTopic(slug)
	if err != nil {
		slog.Error("Database error", "operation", "get_topic", "topic", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	warnings, err := h.scanner.RunRaw(record.RawData)
	if err != nil {
		slog.Error("Stored topic is malformed", "topic", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored topic is malformed"})
		return
	}

	metrics.SafetyScans.Inc()
	for _, w := range warnings {
		metrics.SafetyWarnings.WithLabelValues(string(w.Kind)).Inc()
	}

	views := make([]WarningView, 0, len(warnings))
	for _, w := range warnings {
		views = append(views, WarningView{
			Kind:      string(w.Kind),
			Phrase:    w.Phrase,
			WordCount: w.WordCount,
			Excerpt:   w.Excerpt,
			Message:   w.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":    slug,
		"warnings": views,
		"total":    len(views),
		"clean":    len(views) == 0,
	})
}

// GetAsset serves a topic visual. A missing file is a structured response
// naming the expected path, mirroring how the dataset treats visuals as
// optional.
func (h *Handler) GetAsset(c *gin.Context) {
	name := c.Param("name")

	path, ok := h.resolver.Resolve(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":         "Asset missing",
			"expected_path": path,
		})
		return
	}

	c.File(path)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if topicCount, err := h.topicRepo.GetTopicCount(); err == nil {
		health["topics"] = topicCount
	}

	health["banned_phrases"] = len(h.scanner.Policy().BannedPhrases)

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if topicCount, err := h.topicRepo.GetTopicCount(); err == nil {
		stats["topics"] = topicCount
	}

	if categories, err := h.topicRepo.GetCategoryStats(); err == nil {
		byCategory := make([]map[string]interface{}, 0, len(categories))
		for _, cc := range categories {
			byCategory = append(byCategory, map[string]interface{}{
				"category": cc.Category,
				"count":    cc.Count,
			})
		}
		stats["categories"] = byCategory
	}

	if total, fetched, failed, err := h.snapshotRepo.GetStats(); err == nil {
		stats["resource_snapshots"] = map[string]interface{}{
			"total":   total,
			"fetched": fetched,
			"failed":  failed,
		}
	}

	policy := h.scanner.Policy()
	stats["safety_policy"] = map[string]interface{}{
		"banned_phrases":     len(policy.BannedPhrases),
		"max_sentence_words": policy.MaxSentenceWords,
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListTopics(c *gin.Context) {
	records, err := h.topicRepo.ListTopics("")
	if err != nil {
		slog.Error("Database error", "operation", "list_topics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	topics := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		topics = append(topics, map[string]interface{}{
			"slug":         record.Slug,
			"title":        record.Title,
			"category":     record.Category,
			"position":     record.Position,
			"content_hash": record.ContentHash,
			"created_at":   record.CreatedAt,
			"updated_at":   record.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": topics,
		"total":  len(topics),
	})
}

func (h *Handler) APIReloadTopics(c *gin.Context) {
	task := h.scheduler.NewSyncTask()
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing sync task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Dataset sync enqueued",
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func (h *Handler) APIRefreshSnapshots(c *gin.Context) {
	task := h.scheduler.NewSnapshotTask("api")
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing snapshot task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue snapshot task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Snapshot refresh enqueued",
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func decodeTopic(record database.Topic) (content.Topic, error) {
	var topic content.Topic
	if err := json.Unmarshal(record.RawData, &topic); err != nil {
		return content.Topic{}, err
	}

	topic.Slug = record.Slug
	topic.Raw = record.RawData
	topic.ContentHash = record.ContentHash

	if topic.Category == "" {
		topic.Category = record.Category
	}

	return topic, nil
}

func mergeResourceViews(resources []content.Resource, snapshots []database.ResourceSnapshot) []ResourceView {
	bySnapshotURL := make(map[string]database.ResourceSnapshot, len(snapshots))
	for _, s := range snapshots {
		bySnapshotURL[s.URL] = s
	}

	views := make([]ResourceView, 0, len(resources))
	for _, r := range resources {
		view := ResourceView{Label: r.Label, URL: r.URL}
		if s, ok := bySnapshotURL[r.URL]; ok {
			view.Status = s.Status
			if s.Status == database.SnapshotStatusFetched {
				view.Excerpt = s.Excerpt
			}
		}
		views = append(views, view)
	}

	return views
}
