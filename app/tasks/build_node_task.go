package tasks

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/lysyi3m/card-thumbnails/app/batch"
)

type BuildNodeTask struct {
	Task
	NodeID  int64
	builder batch.Builder
}

func NewBuildNodeTask(nodeID int64, builder batch.Builder) *BuildNodeTask {
	return &BuildNodeTask{
		Task:    NewTask(TaskTypeBuildNode, strconv.FormatInt(nodeID, 10)),
		NodeID:  nodeID,
		builder: builder,
	}
}

func (t *BuildNodeTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	built, err := t.builder.Build(t.NodeID)
	if err != nil {
		return err
	}

	if !built {
		slog.Warn("Node not found, thumbnail not built", "nid", t.NodeID)
		return nil
	}

	slog.Info("Node thumbnail built", "nid", t.NodeID, "duration", t.GetDuration().String())
	return nil
}
