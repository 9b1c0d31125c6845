package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/card-thumbnails/app/batch"
)

// FeedImporter creates nodes from a feed and returns their IDs
type FeedImporter interface {
	Run(ctx context.Context, feedURL, contentType, langcode string) ([]int64, error)
}

// ImportFeedTask imports a feed and builds the thumbnails of the new nodes.
// A retry after a successful import only repeats the builds.
type ImportFeedTask struct {
	Task
	FeedURL     string
	ContentType string
	Langcode    string
	importer    FeedImporter
	builder     batch.Builder
	imported    []int64
	done        int
}

func NewImportFeedTask(feedURL, contentType, langcode string, importer FeedImporter, builder batch.Builder) *ImportFeedTask {
	return &ImportFeedTask{
		Task:        NewTask(TaskTypeImportFeed, feedURL),
		FeedURL:     feedURL,
		ContentType: contentType,
		Langcode:    langcode,
		importer:    importer,
		builder:     builder,
	}
}

// Imported returns the IDs of the nodes created by the task
func (t *ImportFeedTask) Imported() []int64 {
	return t.imported
}

func (t *ImportFeedTask) Execute(ctx context.Context) error {
	if t.imported == nil {
		ids, err := t.importer.Run(ctx, t.FeedURL, t.ContentType, t.Langcode)
		if err != nil {
			return fmt.Errorf("failed to import feed: %w", err)
		}
		t.imported = ids
	}

	for ; t.done < len(t.imported); t.done++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.builder.Build(t.imported[t.done]); err != nil {
			return err
		}
	}

	slog.Info("Feed import completed",
		"feed", t.FeedURL,
		"type", t.ContentType,
		"nodes", len(t.imported),
		"duration", t.GetDuration().String())
	return nil
}
