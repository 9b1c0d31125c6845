package config

// Settings represents the thumbnail settings file
type Settings struct {
	Style            StyleSettings      `yaml:"style"`
	DefaultThumbnail string             `yaml:"default_thumbnail"` // path relative to the assets directory
	TextFormat       string             `yaml:"text_format"`
	HeaderBlockType  string             `yaml:"header_block_type"`
	PageSize         int                `yaml:"page_size"`
	Regenerate       RegenerateSettings `yaml:"regenerate"`
	Import           ImportSettings     `yaml:"import"`
}

// StyleSettings describes the card thumbnail image style preset
type StyleSettings struct {
	Name    string `yaml:"name"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Format  string `yaml:"format"` // jpg, png or webp
	Quality int    `yaml:"quality"`
}

// RegenerateSettings controls periodic batch runs in serve mode
type RegenerateSettings struct {
	ContentTypes []string `yaml:"content_types"`
	Interval     int      `yaml:"interval"` // seconds, 0 disables
}

// ImportSettings controls the feed importer
type ImportSettings struct {
	Timeout      int   `yaml:"timeout"`        // seconds
	MaxImageSize int64 `yaml:"max_image_size"` // bytes
}
