package tasks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

type TaskType string

const (
	TaskTypeGenerateThumbnails TaskType = "generate_thumbnails"
	TaskTypeBuildNode          TaskType = "build_node"
	TaskTypeImportFeed         TaskType = "import_feed"
)

const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 5 * time.Minute
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSubject() string
	GetRetryCount() int
	GetMaxRetries() int
	GetTimeout() time.Duration
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID         string
	Type       TaskType
	Subject    string // what the task works on: a content type, node ID or feed URL
	RetryCount int
	MaxRetries int
	Timeout    time.Duration // 0 runs without a deadline
	StartedAt  *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetSubject() string {
	return t.Subject
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) GetTimeout() time.Duration {
	return t.Timeout
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, subject string) Task {
	return Task{
		ID:         ulid.Make().String(),
		Type:       taskType,
		Subject:    subject,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
		Timeout:    DefaultTimeout,
	}
}
