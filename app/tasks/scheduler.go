package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/card-thumbnails/app/batch"
	"github.com/lysyi3m/card-thumbnails/app/config"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize     = 300
	maxRetryDelay = 30 * time.Second
)

// Scheduler runs queued tasks on a single worker. Batch runs are not safe
// to execute concurrently, so the worker count is fixed.
type Scheduler struct {
	runner     *batch.Runner
	builder    batch.Builder
	regenerate config.RegenerateSettings
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	taskQueue  chan TaskInterface
	stopOnce   sync.Once
}

func NewScheduler(runner *batch.Runner, builder batch.Builder, regenerate config.RegenerateSettings, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:     runner,
		builder:    builder,
		regenerate: regenerate,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		taskQueue:  make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	interval := s.regenerate.GetInterval()
	if interval <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueRegeneration()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.drain()
	})
}

// abandoner is implemented by tasks that record state which must be closed
// when they are dropped unexecuted
type abandoner interface {
	Abandon()
}

// drain empties the queue after the worker has exited
func (s *Scheduler) drain() {
	for {
		select {
		case task := <-s.taskQueue:
			s.logger.Warn("Dropping queued task on shutdown", "type", string(task.GetType()), "id", task.GetID(), "subject", task.GetSubject())
			if a, ok := task.(abandoner); ok {
				a.Abandon()
			}
		default:
			return
		}
	}
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// QueueRun registers a batch run for contentType and queues it
func (s *Scheduler) QueueRun(contentType string) (batch.Run, error) {
	registry := s.runner.Registry()
	run := registry.Create(contentType)

	if err := s.EnqueueTask(NewGenerateThumbnailsTask(run, s.runner)); err != nil {
		registry.Remove(run.ID)
		return batch.Run{}, err
	}

	return run, nil
}

// QueueBuild queues a thumbnail rebuild of one node and returns the task ID
func (s *Scheduler) QueueBuild(nodeID int64) (string, error) {
	task := NewBuildNodeTask(nodeID, s.builder)
	if err := s.EnqueueTask(task); err != nil {
		return "", err
	}
	return task.GetID(), nil
}

func (s *Scheduler) enqueueRegeneration() {
	registry := s.runner.Registry()

	for _, contentType := range s.regenerate.ContentTypes {
		if registry.Active(contentType) {
			s.logger.Debug("Run already pending, skipping regeneration", "type", contentType)
			continue
		}

		run, err := s.QueueRun(contentType)
		if err != nil {
			s.logger.Warn("Failed to enqueue GenerateThumbnailsTask", "type", contentType, "error", err)
			continue
		}
		s.logger.Debug("Queued periodic regeneration", "type", contentType, "run_id", run.ID)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := s.ctx, context.CancelFunc(func() {})
	if timeout := task.GetTimeout(); timeout > 0 {
		taskCtx, cancel = context.WithTimeout(s.ctx, timeout)
	}
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	s.logger.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			s.logger.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryDelay(task.GetRetryCount())

	s.logger.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			s.logger.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				s.logger.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles from one second per attempt up to maxRetryDelay
func retryDelay(attempt int) time.Duration {
	if attempt > 6 {
		return maxRetryDelay
	}
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
