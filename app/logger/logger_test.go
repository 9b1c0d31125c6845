package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, "json")

	l.Info("thumbnail generated", "nid", 5)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "thumbnail generated" {
		t.Errorf("Expected msg 'thumbnail generated', got %v", entry["msg"])
	}
	if entry["nid"] != float64(5) {
		t.Errorf("Expected nid 5, got %v", entry["nid"])
	}
}

func TestNewTextLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, "text")

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug to be suppressed, got %q", buf.String())
	}

	l.Warn("visible", "fid", 9)
	out := buf.String()
	if !strings.Contains(out, "visible") || !strings.Contains(out, "fid=9") {
		t.Errorf("Expected warning with attributes, got %q", out)
	}

	buf.Reset()
	New(&buf, true, "text").Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected debug output with debug enabled, got %q", buf.String())
	}
}
