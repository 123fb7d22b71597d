package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/claritycare/claritycare/app/assets"
	"github.com/claritycare/claritycare/app/content"
	"github.com/claritycare/claritycare/app/database"
	"github.com/claritycare/claritycare/app/safety"
	"github.com/claritycare/claritycare/app/tasks"
)

type stubTopicRepo struct {
	topics []database.Topic
	err    error
}

func (r *stubTopicRepo) GetTopic(slug string) (*database.Topic, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.topics {
		if r.topics[i].Slug == slug {
			return &r.topics[i], nil
		}
	}
	return nil, nil
}

func (r *stubTopicRepo) ListTopics(category string) ([]database.Topic, error) {
	if r.err != nil {
		return nil, r.err
	}
	if category == "" || category == content.CategoryAll {
		return r.topics, nil
	}
	var filtered []database.Topic
	for _, t := range r.topics {
		if t.Category == category {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (r *stubTopicRepo) GetTopicCount() (int, error) {
	return len(r.topics), r.err
}

func (r *stubTopicRepo) GetCategoryStats() ([]database.CategoryCount, error) {
	counts := make(map[string]int)
	for _, t := range r.topics {
		counts[t.Category]++
	}
	var stats []database.CategoryCount
	for category, count := range counts {
		stats = append(stats, database.CategoryCount{Category: category, Count: count})
	}
	return stats, nil
}

func (r *stubTopicRepo) UpsertTopic(topic content.Topic, position int) (bool, error) {
	return false, nil
}

func (r *stubTopicRepo) DeleteMissing(keep []string) (int, error) {
	return 0, nil
}

type stubSnapshotRepo struct {
	snapshots []database.ResourceSnapshot
}

func (r *stubSnapshotRepo) GetForTopic(topicSlug string) ([]database.ResourceSnapshot, error) {
	var out []database.ResourceSnapshot
	for _, s := range r.snapshots {
		if s.TopicSlug == topicSlug {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSnapshotRepo) GetDue(cutoff time.Time, limit int) ([]database.ResourceSnapshot, error) {
	return nil, nil
}

func (r *stubSnapshotRepo) GetStats() (int, int, int, error) {
	fetched := 0
	failed := 0
	for _, s := range r.snapshots {
		switch s.Status {
		case database.SnapshotStatusFetched:
			fetched++
		case database.SnapshotStatusFailed:
			failed++
		}
	}
	return len(r.snapshots), fetched, failed, nil
}

func (r *stubSnapshotRepo) RegisterPending(topicSlug, url, label string) error {
	return nil
}

func (r *stubSnapshotRepo) UpdateResult(id, status, excerpt, fetchError string, fetchedAt time.Time) error {
	return nil
}

func (r *stubSnapshotRepo) PruneMissing(keepSlugs []string) (int, error) {
	return 0, nil
}

type stubTask struct {
	tasks.Task
}

func (t *stubTask) Execute(ctx context.Context) error {
	return nil
}

type stubScheduler struct {
	enqueued []tasks.TaskInterface
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}

func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.enqueued = append(s.enqueued, task)
	return nil
}

func (s *stubScheduler) NewSyncTask() tasks.TaskInterface {
	return &stubTask{Task: tasks.Task{ID: "task-sync", Type: tasks.TaskTypeSyncTopics}}
}

func (s *stubScheduler) NewSnapshotTask(subject string) tasks.TaskInterface {
	return &stubTask{Task: tasks.Task{ID: "task-snapshot", Type: tasks.TaskTypeSnapshotResources, Subject: subject}}
}

func topicRecord(slug, title, category, summary, raw string) database.Topic {
	return database.Topic{
		ID:               "db-" + slug,
		Slug:             slug,
		Title:            title,
		Category:         category,
		OneMinuteSummary: summary,
		RawData:          []byte(raw),
		ContentHash:      "hash-" + slug,
		UpdatedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestRouter(t *testing.T, topicRepo database.TopicRepository,
	snapshotRepo database.SnapshotRepository, scheduler tasks.TaskSchedulerInterface,
	apiAccessKey string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(topicRepo, snapshotRepo,
		content.NewMatcher(), safety.NewScanner(safety.DefaultPolicy()),
		assets.NewResolver(t.TempDir()), scheduler)

	return NewServer(handler, apiAccessKey)
}

func performRequest(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetTopics(t *testing.T) {
	repo := &stubTopicRepo{topics: []database.Topic{
		topicRecord("headaches", "Headaches", content.CategoryEveryday,
			"Most headaches settle on their own.",
			`{"title":"Headaches","category":"Everyday Symptoms","oneMinuteSummary":"Most headaches settle on their own."}`),
		topicRecord("anemia", "Understanding Anemia", content.CategoryPostDiagnosis,
			"Anemia means fewer red blood cells than usual.",
			`{"title":"Understanding Anemia","category":"Post-Diagnosis Companion","oneMinuteSummary":"Anemia means fewer red blood cells than usual."}`),
	}}
	router := newTestRouter(t, repo, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/topics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Topics []TopicSummary `json:"topics"`
		Total  int            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.Total != 2 {
		t.Errorf("Expected 2 topics, got %d", resp.Total)
	}
	if len(resp.Topics) != 2 || resp.Topics[0].Slug != "headaches" {
		t.Errorf("Expected dataset order preserved, got %+v", resp.Topics)
	}
}

func TestGetTopicsCategoryFilter(t *testing.T) {
	repo := &stubTopicRepo{topics: []database.Topic{
		topicRecord("headaches", "Headaches", content.CategoryEveryday,
			"Most headaches settle on their own.",
			`{"title":"Headaches","category":"Everyday Symptoms","oneMinuteSummary":"Most headaches settle on their own."}`),
		topicRecord("anemia", "Understanding Anemia", content.CategoryPostDiagnosis,
			"Anemia means fewer red blood cells than usual.",
			`{"title":"Understanding Anemia","category":"Post-Diagnosis Companion","oneMinuteSummary":"Anemia means fewer red blood cells than usual."}`),
	}}
	router := newTestRouter(t, repo, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/topics?category=Post-Diagnosis+Companion", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Topics []TopicSummary `json:"topics"`
		Total  int            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.Total != 1 || resp.Topics[0].Slug != "anemia" {
		t.Errorf("Expected only the anemia topic, got %+v", resp.Topics)
	}
}

func TestGetTopicsSearch(t *testing.T) {
	repo := &stubTopicRepo{topics: []database.Topic{
		topicRecord("headaches", "Headaches", content.CategoryEveryday,
			"Most headaches settle on their own.",
			`{"title":"Headaches","category":"Everyday Symptoms","oneMinuteSummary":"Most headaches settle on their own."}`),
		topicRecord("anemia", "Understanding Anemia", content.CategoryPostDiagnosis,
			"Anemia means fewer red blood cells than usual.",
			`{"title":"Understanding Anemia","category":"Post-Diagnosis Companion","oneMinuteSummary":"Anemia means fewer red blood cells than usual."}`),
	}}
	router := newTestRouter(t, repo, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/topics?q=red+blood", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Topics []TopicSummary `json:"topics"`
		Total  int            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.Total != 1 || resp.Topics[0].Slug != "anemia" {
		t.Errorf("Expected search to match the anemia summary, got %+v", resp.Topics)
	}
}

func TestGetTopicNotFound(t *testing.T) {
	router := newTestRouter(t, &stubTopicRepo{}, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/topics/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetTopicWithSnapshots(t *testing.T) {
	repo := &stubTopicRepo{topics: []database.Topic{
		topicRecord("anemia", "Understanding Anemia", content.CategoryPostDiagnosis,
			"Anemia means fewer red blood cells than usual.",
			`{"title":"Understanding Anemia","category":"Post-Diagnosis Companion","oneMinuteSummary":"Anemia means fewer red blood cells than usual.","resources":[{"label":"NHS overview","url":"https://example.com/anemia"}]}`),
	}}
	fetchedAt := time.Now()
	snapshots := &stubSnapshotRepo{snapshots: []database.ResourceSnapshot{
		{
			ID:        "snap-1",
			TopicSlug: "anemia",
			URL:       "https://example.com/anemia",
			Label:     "NHS overview",
			Excerpt:   "Anemia is a condition where the blood carries less oxygen.",
			Status:    database.SnapshotStatusFetched,
			FetchedAt: &fetchedAt,
		},
	}}
	router := newTestRouter(t, repo, snapshots, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/topics/anemia", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var detail TopicDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if detail.Title != "Understanding Anemia" {
		t.Errorf("Expected topic title, got %q", detail.Title)
	}
	if len(detail.ResourceViews) != 1 {
		t.Fatalf("Expected 1 resource view, got %d", len(detail.ResourceViews))
	}
	view := detail.ResourceViews[0]
	if view.Status != database.SnapshotStatusFetched || view.Excerpt == "" {
		t.Errorf("Expected fetched snapshot excerpt, got %+v", view)
	}
}

func TestGetTopicSafetyFlagsBannedPhrase(t *testing.T) {
	repo := &stubTopicRepo{topics: []database.Topic{
		topicRecord("anemia", "Understanding Anemia", content.CategoryPostDiagnosis,
			"Anemia means fewer red blood cells than usual.",
			`{"title":"Understanding Anemia","generalSelfCare":["Start taking this medication twice daily."]}`),
	}}
	router := newTestRouter(t, repo, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/topics/anemia/safety", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Warnings []WarningView `json:"warnings"`
		Total    int           `json:"total"`
		Clean    bool          `json:"clean"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.Clean {
		t.Error("Expected topic to be flagged")
	}
	if resp.Total != 1 {
		t.Fatalf("Expected 1 warning, got %d", resp.Total)
	}
	w0 := resp.Warnings[0]
	if w0.Kind != "banned_phrase" || w0.Phrase != "start taking" {
		t.Errorf("Expected banned_phrase warning for 'start taking', got %+v", w0)
	}
	if w0.Message == "" {
		t.Error("Expected rendered warning message")
	}
}

func TestGetTopicSafetyCleanTopic(t *testing.T) {
	repo := &stubTopicRepo{topics: []database.Topic{
		topicRecord("headaches", "Headaches", content.CategoryEveryday,
			"Most headaches settle on their own.",
			`{"title":"Headaches","oneMinuteSummary":"Rest and fluids help many people feel better."}`),
	}}
	router := newTestRouter(t, repo, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/topics/headaches/safety", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Warnings []WarningView `json:"warnings"`
		Clean    bool          `json:"clean"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if !resp.Clean || len(resp.Warnings) != 0 {
		t.Errorf("Expected clean scan, got %+v", resp)
	}
}

func TestGetAssetMissing(t *testing.T) {
	router := newTestRouter(t, &stubTopicRepo{}, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/assets/images/missing.png", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["expected_path"] == "" {
		t.Error("Expected the response to name the expected asset path")
	}
}

func TestAPIRequiresKey(t *testing.T) {
	router := newTestRouter(t, &stubTopicRepo{}, &stubSnapshotRepo{}, &stubScheduler{}, "secret")

	w := performRequest(router, "GET", "/api/topics", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}

	w = performRequest(router, "GET", "/api/topics", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}

	w = performRequest(router, "GET", "/api/topics", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with valid key, got %d", w.Code)
	}

	w = performRequest(router, "GET", "/api/topics", map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with bearer token, got %d", w.Code)
	}
}

func TestAPIReloadEnqueuesSyncTask(t *testing.T) {
	scheduler := &stubScheduler{}
	router := newTestRouter(t, &stubTopicRepo{}, &stubSnapshotRepo{}, scheduler, "secret")

	w := performRequest(router, "POST", "/api/reload", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if len(scheduler.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}
	if scheduler.enqueued[0].GetType() != tasks.TaskTypeSyncTopics {
		t.Errorf("Expected sync task, got %s", scheduler.enqueued[0].GetType())
	}
}

func TestAPIRefreshSnapshotsEnqueuesTask(t *testing.T) {
	scheduler := &stubScheduler{}
	router := newTestRouter(t, &stubTopicRepo{}, &stubSnapshotRepo{}, scheduler, "secret")

	w := performRequest(router, "POST", "/api/snapshots/refresh", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if len(scheduler.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}
	if scheduler.enqueued[0].GetType() != tasks.TaskTypeSnapshotResources {
		t.Errorf("Expected snapshot task, got %s", scheduler.enqueued[0].GetType())
	}
}

func TestGetStats(t *testing.T) {
	repo := &stubTopicRepo{topics: []database.Topic{
		topicRecord("headaches", "Headaches", content.CategoryEveryday,
			"Most headaches settle on their own.",
			`{"title":"Headaches"}`),
	}}
	router := newTestRouter(t, repo, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if stats["topics"] != float64(1) {
		t.Errorf("Expected topics count 1, got %v", stats["topics"])
	}
	policy, ok := stats["safety_policy"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected safety_policy section in stats")
	}
	if policy["banned_phrases"] != float64(12) {
		t.Errorf("Expected 12 banned phrases in default policy, got %v", policy["banned_phrases"])
	}
}

func TestGetHealth(t *testing.T) {
	router := newTestRouter(t, &stubTopicRepo{}, &stubSnapshotRepo{}, &stubScheduler{}, "")

	w := performRequest(router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}
