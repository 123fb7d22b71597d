package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/claritycare/claritycare/app/cfg"
	"github.com/claritycare/claritycare/app/content"
	"github.com/claritycare/claritycare/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	loader       *content.Loader
	topicRepo    database.TopicRepository
	snapshotRepo database.SnapshotRepository
	httpClient   *http.Client
	extractor    *content.Extractor
	dataFile     string
	userAgent    string
	interval     time.Duration
	snapshotTTL  time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(loader *content.Loader, topicRepo database.TopicRepository,
	snapshotRepo database.SnapshotRepository, httpClient *http.Client,
	extractor *content.Extractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		loader:       loader,
		topicRepo:    topicRepo,
		snapshotRepo: snapshotRepo,
		httpClient:   httpClient,
		extractor:    extractor,
		dataFile:     cfg.DataFile,
		userAgent:    cfg.UserAgent,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		snapshotTTL:  time.Duration(cfg.SnapshotTTL) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueSnapshotTask("scheduled")
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// NewSyncTask builds a dataset sync task with the scheduler's collaborators
// wired in, for callers that trigger syncs (API reload, dataset watcher).
func (s *Scheduler) NewSyncTask() TaskInterface {
	return NewSyncTopicsTask(s.dataFile, s.loader, s.topicRepo, s.snapshotRepo)
}

// NewSnapshotTask builds a resource snapshot task the same way.
func (s *Scheduler) NewSnapshotTask(subject string) TaskInterface {
	return NewSnapshotResourcesTask(subject, s.httpClient, s.extractor,
		s.snapshotRepo, s.userAgent, s.snapshotTTL)
}

func (s *Scheduler) enqueueStartupTasks() {
	if err := s.EnqueueTask(s.NewSyncTask()); err != nil {
		slog.Warn("Failed to enqueue startup SyncTopicsTask", "error", err)
	}
	s.enqueueSnapshotTask("startup")
}

func (s *Scheduler) enqueueSnapshotTask(subject string) {
	if err := s.EnqueueTask(s.NewSnapshotTask(subject)); err != nil {
		slog.Warn("Failed to enqueue SnapshotResourcesTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
