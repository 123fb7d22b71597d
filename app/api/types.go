package api

import (
	"github.com/claritycare/claritycare/app/assets"
	"github.com/claritycare/claritycare/app/content"
	"github.com/claritycare/claritycare/app/database"
	"github.com/claritycare/claritycare/app/safety"
	"github.com/claritycare/claritycare/app/tasks"
)

type Handler struct {
	topicRepo    database.TopicRepository
	snapshotRepo database.SnapshotRepository
	matcher      *content.Matcher
	scanner      *safety.Scanner
	resolver     *assets.Resolver
	scheduler    tasks.TaskSchedulerInterface
}

// TopicSummary is the card view of a topic in list responses.
type TopicSummary struct {
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	OneMinuteSummary string `json:"one_minute_summary"`
	Eli5Summary      string `json:"eli5_summary,omitempty"`
	LastReviewed     string `json:"last_reviewed,omitempty"`
}

// ResourceView is a topic resource with its cached snapshot, when present.
type ResourceView struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt,omitempty"`
	Status  string `json:"status,omitempty"`
}

// TopicDetail is the full topic view.
type TopicDetail struct {
	content.Topic
	ResourceViews []ResourceView `json:"resource_snapshots,omitempty"`
	UpdatedAt     string         `json:"updated_at"`
}

// WarningView is one safety warning in scan responses.
type WarningView struct {
	Kind      string `json:"kind"`
	Phrase    string `json:"phrase,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	Excerpt   string `json:"excerpt"`
	Message   string `json:"message"`
}
