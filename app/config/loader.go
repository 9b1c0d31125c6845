package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStyleName       = "card_thumbnail"
	DefaultThumbnailPath   = "assets/images/default-thumbnail.png"
	DefaultTextFormat      = "full_html"
	DefaultHeaderBlockType = "header"
	DefaultPageSize        = 20
	DefaultImportTimeout   = 30
	DefaultMaxImageSize    = 10 << 20
	defaultStyleWidth      = 400
	defaultStyleHeight     = 300
	defaultStyleFormat     = "jpg"
	defaultStyleQuality    = 80
)

// Loader handles loading and validation of the thumbnail settings file
type Loader struct {
	path string
}

// NewLoader creates a new settings loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the settings file. A missing file yields the defaults.
func (l *Loader) Load() (*Settings, error) {
	var settings Settings

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		slog.Warn("Settings file not found, using defaults", "path", l.path)
	} else if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&settings)

	if err := l.validate(&settings); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", l.path, err)
	}

	return &settings, nil
}

// setDefaults applies default values to the settings
func (l *Loader) setDefaults(s *Settings) {
	if s.Style.Name == "" {
		s.Style.Name = DefaultStyleName
	}
	if s.Style.Width == 0 {
		s.Style.Width = defaultStyleWidth
	}
	if s.Style.Height == 0 {
		s.Style.Height = defaultStyleHeight
	}
	if s.Style.Format == "" {
		s.Style.Format = defaultStyleFormat
	}
	s.Style.Format = strings.ToLower(s.Style.Format)
	if s.Style.Format == "jpeg" {
		s.Style.Format = "jpg"
	}
	if s.Style.Quality == 0 {
		s.Style.Quality = defaultStyleQuality
	}
	if s.DefaultThumbnail == "" {
		s.DefaultThumbnail = DefaultThumbnailPath
	}
	if s.TextFormat == "" {
		s.TextFormat = DefaultTextFormat
	}
	if s.HeaderBlockType == "" {
		s.HeaderBlockType = DefaultHeaderBlockType
	}
	if s.PageSize == 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Import.Timeout == 0 {
		s.Import.Timeout = DefaultImportTimeout
	}
	if s.Import.MaxImageSize == 0 {
		s.Import.MaxImageSize = DefaultMaxImageSize
	}
}

// validate validates the settings
func (l *Loader) validate(s *Settings) error {
	if strings.ContainsAny(s.Style.Name, "/\\") {
		return fmt.Errorf("style name must not contain path separators: %s", s.Style.Name)
	}

	positiveFields := map[string]int{
		"style width":  s.Style.Width,
		"style height": s.Style.Height,
		"page size":    s.PageSize,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"regenerate interval": s.Regenerate.Interval,
		"import timeout":      s.Import.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if s.Style.Quality < 1 || s.Style.Quality > 100 {
		return fmt.Errorf("style quality must be between 1 and 100")
	}

	validFormats := map[string]bool{
		"jpg":  true,
		"png":  true,
		"webp": true,
	}

	if !validFormats[s.Style.Format] {
		return fmt.Errorf("invalid style format: %s", s.Style.Format)
	}

	if s.Regenerate.Interval > 0 && len(s.Regenerate.ContentTypes) == 0 {
		return fmt.Errorf("regenerate interval is set but no content types are listed")
	}

	return nil
}
