package tasks

import (
	"github.com/lysyi3m/card-thumbnails/app/batch"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to queue thumbnail work.
// Example usage:
//
//	scheduler := NewScheduler(runner, resolver, settings.Regenerate, logger)
//	scheduler.Start()
//	defer scheduler.Stop()
//	run, err := scheduler.QueueRun("article")
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	QueueRun(contentType string) (batch.Run, error)
	QueueBuild(nodeID int64) (string, error)
}
