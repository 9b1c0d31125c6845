package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/card-thumbnails/app/batch"
)

// GenerateThumbnailsTask executes a registered batch run. A failed run is
// reported in the registry and not retried.
type GenerateThumbnailsTask struct {
	Task
	RunID  string
	runner *batch.Runner
}

func NewGenerateThumbnailsTask(run batch.Run, runner *batch.Runner) *GenerateThumbnailsTask {
	task := NewTask(TaskTypeGenerateThumbnails, run.ContentType)
	task.MaxRetries = 0
	task.Timeout = 0

	return &GenerateThumbnailsTask{
		Task:   task,
		RunID:  run.ID,
		runner: runner,
	}
}

// Abandon marks the run failed when the task is dropped before it runs
func (t *GenerateThumbnailsTask) Abandon() {
	t.runner.Registry().Abandon(t.RunID)
}

func (t *GenerateThumbnailsTask) Execute(ctx context.Context) error {
	run, err := t.runner.Execute(ctx, t.RunID)
	if err != nil {
		return err
	}

	slog.Info("Thumbnail generation completed",
		"run_id", run.ID,
		"type", run.ContentType,
		"summary", run.Summary,
		"duration", t.GetDuration().String())
	return nil
}
