package tasks

// TaskSchedulerInterface defines the interface for task scheduling
// operations: queue management and worker pool lifecycle.
// Example usage:
//
//	scheduler := NewScheduler(loader, topicRepo, snapshotRepo, httpClient, extractor)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewSyncTopicsTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error

	// Factories with the scheduler's collaborators wired in, for callers
	// that trigger work on demand (API reload, dataset watcher).
	NewSyncTask() TaskInterface
	NewSnapshotTask(subject string) TaskInterface
}
