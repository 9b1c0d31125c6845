package batch

import (
	"context"
	"testing"
)

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "0 thumbnails generated."},
		{1, "1 thumbnail generated."},
		{2, "2 thumbnails generated."},
		{45, "45 thumbnails generated."},
	}

	for _, tt := range tests {
		if got := FormatSummary(tt.count); got != tt.want {
			t.Errorf("FormatSummary(%d): expected %q, got %q", tt.count, tt.want, got)
		}
	}
}

func TestRunnerRunSucceeds(t *testing.T) {
	builder := &mockBuilder{missing: map[int64]bool{7: true}}
	runner := NewRunner(&mockSource{ids: sequence(45)}, builder, NewRegistry(), 20, nil)

	run, err := runner.Run(context.Background(), "article")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if run.Status != StatusSucceeded {
		t.Errorf("Expected succeeded, got %s", run.Status)
	}
	if run.Summary != "45 thumbnails generated." {
		t.Errorf("Unexpected summary: %q", run.Summary)
	}
	if len(run.Results) != 45 {
		t.Errorf("Expected results to accumulate across pages, got %d", len(run.Results))
	}
	if run.Built() != 44 {
		t.Errorf("Expected 44 built, got %d", run.Built())
	}
	if !run.Progress.Complete || run.StartedAt == nil || run.FinishedAt == nil {
		t.Errorf("Unexpected final run: %+v", run)
	}
}

func TestRunnerRunSingleItem(t *testing.T) {
	runner := NewRunner(&mockSource{ids: sequence(1)}, &mockBuilder{}, NewRegistry(), 20, nil)

	run, err := runner.Run(context.Background(), "article")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if run.Summary != "1 thumbnail generated." {
		t.Errorf("Unexpected summary: %q", run.Summary)
	}
}

func TestRunnerRunFails(t *testing.T) {
	registry := NewRegistry()
	runner := NewRunner(&mockSource{ids: sequence(45)}, &mockBuilder{failOn: 25}, registry, 20, nil)

	run, err := runner.Run(context.Background(), "article")
	if err == nil {
		t.Fatal("Expected run error")
	}
	if run.Status != StatusFailed {
		t.Errorf("Expected failed, got %s", run.Status)
	}
	if run.Summary != FailureMessage {
		t.Errorf("Expected %q, got %q", FailureMessage, run.Summary)
	}

	stored, ok := registry.Get(run.ID)
	if !ok || stored.Status != StatusFailed {
		t.Errorf("Expected failed run in registry, got %+v", stored)
	}
}

func TestRunnerExecuteUnknownRun(t *testing.T) {
	runner := NewRunner(&mockSource{}, &mockBuilder{}, NewRegistry(), 20, nil)

	if _, err := runner.Execute(context.Background(), "missing"); err == nil {
		t.Fatal("Expected error for unknown run")
	}
}

func TestRegistryListNewestFirst(t *testing.T) {
	registry := NewRegistry()
	first := registry.Create("article")
	second := registry.Create("page")

	runs := registry.List()
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Errorf("Expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].Status != StatusQueued {
		t.Errorf("Expected queued status, got %s", runs[0].Status)
	}
}

func TestRegistryEvictsFinishedRuns(t *testing.T) {
	registry := NewRegistry()

	var ids []string
	for i := 0; i < maxRuns; i++ {
		run := registry.Create("article")
		registry.finish(run.ID, StatusSucceeded, "")
		ids = append(ids, run.ID)
	}
	registry.Create("article")

	if got := len(registry.List()); got != maxRuns {
		t.Errorf("Expected %d runs, got %d", maxRuns, got)
	}
	if _, ok := registry.Get(ids[0]); ok {
		t.Error("Expected oldest finished run to be evicted")
	}
}

func TestRegistryAbandon(t *testing.T) {
	registry := NewRegistry()
	queued := registry.Create("article")
	running := registry.Create("page")
	registry.start(running.ID)

	registry.Abandon(queued.ID)
	registry.Abandon(running.ID)

	run, _ := registry.Get(queued.ID)
	if run.Status != StatusFailed || run.Summary != FailureMessage || run.FinishedAt == nil {
		t.Errorf("Expected abandoned run to fail, got %+v", run)
	}
	if registry.Active("article") {
		t.Error("Expected abandoned run to be inactive")
	}

	run, _ = registry.Get(running.ID)
	if run.Status != StatusRunning {
		t.Errorf("Expected running run to be left alone, got %s", run.Status)
	}
}

func TestRegistryActive(t *testing.T) {
	registry := NewRegistry()
	run := registry.Create("article")

	if !registry.Active("article") {
		t.Error("Expected queued run to be active")
	}
	if registry.Active("page") {
		t.Error("Expected no active page run")
	}

	registry.finish(run.ID, StatusSucceeded, "")
	if registry.Active("article") {
		t.Error("Expected finished run to be inactive")
	}

	registry.Remove(run.ID)
	if _, ok := registry.Get(run.ID); ok {
		t.Error("Expected removed run to be gone")
	}
}
