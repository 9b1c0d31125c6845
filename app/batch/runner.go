package batch

import (
	"context"
	"fmt"
	"log/slog"
)

// Runner drives tracker steps until a run completes
type Runner struct {
	source   Source
	builder  Builder
	registry *Registry
	pageSize int
	logger   *slog.Logger
}

func NewRunner(source Source, builder Builder, registry *Registry, pageSize int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		source:   source,
		builder:  builder,
		registry: registry,
		pageSize: pageSize,
		logger:   logger,
	}
}

func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run registers and executes a run over every item of contentType
func (r *Runner) Run(ctx context.Context, contentType string) (Run, error) {
	run := r.registry.Create(contentType)
	return r.Execute(ctx, run.ID)
}

// Execute runs a previously registered run to completion. The returned run
// carries the summary message; on error it reads FailureMessage and the
// details are only logged.
func (r *Runner) Execute(ctx context.Context, runID string) (Run, error) {
	run, ok := r.registry.Get(runID)
	if !ok {
		return Run{}, fmt.Errorf("run %s not found", runID)
	}

	logger := r.logger.With("run_id", runID, "type", run.ContentType)
	tracker := NewTracker(r.source, r.builder, run.ContentType, r.pageSize, logger)

	r.registry.start(runID)
	logger.Info("Batch run started")

	err := r.loop(ctx, runID, tracker, logger)

	if err != nil {
		logger.Error("Batch run failed", "error", err)
		r.registry.finish(runID, StatusFailed, FailureMessage)
	} else {
		run, _ = r.registry.Get(runID)
		summary := FormatSummary(len(run.Results))
		logger.Info(summary, "built", run.Built(), "processed", run.State.Processed)
		r.registry.finish(runID, StatusSucceeded, summary)
	}

	run, _ = r.registry.Get(runID)
	return run, err
}

func (r *Runner) loop(ctx context.Context, runID string, tracker *Tracker, logger *slog.Logger) error {
	var state State
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, progress, results, err := tracker.Step(ctx, state)
		r.registry.record(runID, next, progress, results)
		if err != nil {
			return err
		}
		state = next

		if progress.Complete {
			return nil
		}
		logger.Info(progress.Message, "finished", progress.Finished, "current_id", state.CurrentID)
	}
}
