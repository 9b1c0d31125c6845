package batch

import (
	"context"
	"fmt"
	"log/slog"
)

// Source lists the content items a batch run walks over
type Source interface {
	CountByType(contentType string) (int, error)
	ListIDsAfter(contentType string, afterID int64, limit int) ([]int64, error)
}

// Builder recomputes one content item
type Builder interface {
	Build(id int64) (bool, error)
}

// State is carried from one step of a run to the next
type State struct {
	Processed   int   `json:"processed"`
	CurrentID   int64 `json:"current_id"`
	Total       int   `json:"total"`
	Initialized bool  `json:"-"`
}

// Progress is reported after every step. Finished and Message are only set
// while the run is still in progress.
type Progress struct {
	Finished float64 `json:"finished,omitempty"`
	Message  string  `json:"message,omitempty"`
	Complete bool    `json:"complete"`
}

type Tracker struct {
	source      Source
	builder     Builder
	contentType string
	pageSize    int
	logger      *slog.Logger
}

func NewTracker(source Source, builder Builder, contentType string, pageSize int, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		source:      source,
		builder:     builder,
		contentType: contentType,
		pageSize:    pageSize,
		logger:      logger,
	}
}

// Step processes the next page of content items. It returns the advanced
// state, the progress to report and the build result of every item in the
// page. Any error aborts the run.
func (t *Tracker) Step(ctx context.Context, state State) (State, Progress, []bool, error) {
	if !state.Initialized {
		total, err := t.source.CountByType(t.contentType)
		if err != nil {
			return state, Progress{}, nil, fmt.Errorf("failed to count %s items: %w", t.contentType, err)
		}
		state = State{Total: total, Initialized: true}
	}

	if state.Processed >= state.Total {
		return state, Progress{Complete: true}, nil, nil
	}

	// Page by key so items created or deleted during the run do not shift
	// the window. Items beyond the initial total are left for the next run.
	limit := min(t.pageSize, state.Total-state.Processed)
	ids, err := t.source.ListIDsAfter(t.contentType, state.CurrentID, limit)
	if err != nil {
		return state, Progress{}, nil, fmt.Errorf("failed to list %s items: %w", t.contentType, err)
	}

	if len(ids) == 0 {
		t.logger.Warn("Content set shrank during run, finishing early",
			"type", t.contentType,
			"processed", state.Processed,
			"total", state.Total)
		return state, Progress{Complete: true}, nil, nil
	}

	results := make([]bool, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return state, Progress{}, results, err
		}

		built, err := t.builder.Build(id)
		if err != nil {
			return state, Progress{}, results, fmt.Errorf("failed to build node %d: %w", id, err)
		}
		results = append(results, built)
		state.Processed++
		state.CurrentID = id
	}

	if state.Processed != state.Total {
		return state, Progress{
			Finished: float64(state.Processed) / float64(state.Total),
			Message:  fmt.Sprintf("Generated: %d/%d", state.Processed, state.Total),
		}, results, nil
	}

	return state, Progress{Complete: true}, results, nil
}
