package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadValidSettings(t *testing.T) {
	// Create temp directory
	tempDir := t.TempDir()

	// Create test YAML file
	content := `
style:
  name: "parade_card_thumbnail"
  width: 320
  height: 180
  format: "webp"
  quality: 75

default_thumbnail: "modules/lister/images/default-thumbnail.png"
page_size: 50

regenerate:
  content_types:
    - "article"
    - "event"
  interval: 3600
`

	path := filepath.Join(tempDir, "thumbnails.yml")
	err := os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	settings, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}

	// Validate loaded values
	if settings.Style.Name != "parade_card_thumbnail" {
		t.Errorf("Expected style name 'parade_card_thumbnail', got '%s'", settings.Style.Name)
	}
	if settings.Style.Width != 320 || settings.Style.Height != 180 {
		t.Errorf("Expected 320x180, got %dx%d", settings.Style.Width, settings.Style.Height)
	}
	if settings.Style.Format != "webp" {
		t.Errorf("Expected format 'webp', got '%s'", settings.Style.Format)
	}
	if settings.DefaultThumbnail != "modules/lister/images/default-thumbnail.png" {
		t.Errorf("Unexpected default thumbnail '%s'", settings.DefaultThumbnail)
	}
	if settings.PageSize != 50 {
		t.Errorf("Expected page size 50, got %d", settings.PageSize)
	}
	if settings.Regenerate.GetInterval() != time.Hour {
		t.Errorf("Expected regenerate interval 1h, got %v", settings.Regenerate.GetInterval())
	}
	if len(settings.Regenerate.ContentTypes) != 2 {
		t.Errorf("Expected 2 content types, got %d", len(settings.Regenerate.ContentTypes))
	}
}

func TestLoadSettingsWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
style:
  format: "JPEG"
`

	path := filepath.Join(tempDir, "thumbnails.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}

	if settings.Style.Name != DefaultStyleName {
		t.Errorf("Expected default style name, got '%s'", settings.Style.Name)
	}
	if settings.Style.Format != "jpg" {
		t.Errorf("Expected JPEG to normalize to 'jpg', got '%s'", settings.Style.Format)
	}
	if settings.Style.Quality != 80 {
		t.Errorf("Expected default quality 80, got %d", settings.Style.Quality)
	}
	if settings.PageSize != DefaultPageSize {
		t.Errorf("Expected default page size %d, got %d", DefaultPageSize, settings.PageSize)
	}
	if settings.TextFormat != "full_html" {
		t.Errorf("Expected default text format 'full_html', got '%s'", settings.TextFormat)
	}
	if settings.HeaderBlockType != "header" {
		t.Errorf("Expected default header block type 'header', got '%s'", settings.HeaderBlockType)
	}
	if settings.Import.GetTimeout() != 30*time.Second {
		t.Errorf("Expected default import timeout 30s, got %v", settings.Import.GetTimeout())
	}
	if settings.Regenerate.GetInterval() != 0 {
		t.Errorf("Expected regeneration disabled by default, got %v", settings.Regenerate.GetInterval())
	}
}

func TestLoadMissingSettingsFile(t *testing.T) {
	settings, err := NewLoader(filepath.Join(t.TempDir(), "missing.yml")).Load()
	if err != nil {
		t.Fatal(err)
	}

	if settings.DefaultThumbnail != DefaultThumbnailPath {
		t.Errorf("Expected default thumbnail path, got '%s'", settings.DefaultThumbnail)
	}
}

func TestLoadInvalidSettings(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"invalid format", "style:\n  format: \"gif\"\n"},
		{"negative width", "style:\n  width: -10\n"},
		{"quality out of range", "style:\n  quality: 150\n"},
		{"style name with separator", "style:\n  name: \"../evil\"\n"},
		{"interval without content types", "regenerate:\n  interval: 60\n"},
		{"broken yaml", "style: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "thumbnails.yml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			if _, err := NewLoader(path).Load(); err == nil {
				t.Errorf("Expected error for %s", tc.name)
			}
		})
	}
}
