package cfg

import (
	"cmp"
	"fmt"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./data/content.db" description:"Path to the sqlite content database"`
	FilesDir  string `long:"files-dir" env:"FILES_DIR" default:"./data/files" description:"Directory backing the public:// file scheme"`
	AssetsDir string `long:"assets-dir" env:"ASSETS_DIR" default:"." description:"Directory that scheme-less image paths are resolved against"`

	// Public URL configuration
	PublicPath string `long:"public-path" env:"PUBLIC_PATH" default:"/files" description:"URL path under which public:// files are served"`
	BaseUrl    string `long:"base-url" env:"BASE_URL" description:"Public base URL prepended to file URLs (e.g., https://cms.example.com)"`

	// Application configuration
	SettingsFile string `long:"settings" env:"SETTINGS_FILE" default:"./thumbnails.yml" description:"Thumbnail settings YAML file"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Card Thumbnails/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"Log output format"`
}

type serveCmd struct{}

type generateCmd struct {
	ContentType string `short:"t" long:"type" required:"true" description:"Content type whose thumbnails are regenerated"`
}

type buildCmd struct {
	Args struct {
		IDs []string `positional-arg-name:"id" required:"1"`
	} `positional-args:"yes"`
}

type importFeedCmd struct {
	URL         string `long:"url" required:"true" description:"RSS/Atom feed URL"`
	ContentType string `short:"t" long:"type" default:"article" description:"Content type of the imported nodes"`
	Langcode    string `long:"lang" description:"Language code of the imported nodes (defaults to the feed language)"`
}

// Load parses command-line arguments and environment variables.
// It returns nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg
	var serve serveCmd
	var generate generateCmd
	var build buildCmd
	var importFeed importFeedCmd

	parser := flags.NewParser(&raw, flags.Default)

	commands := []struct {
		name        string
		description string
		data        interface{}
	}{
		{CommandServe, "Run the task scheduler and the HTTP status API", &serve},
		{CommandGenerate, "Regenerate card thumbnails for every node of a content type", &generate},
		{CommandBuild, "Rebuild card thumbnails for the given node ids", &build},
		{CommandImportFeed, "Create nodes from an RSS/Atom feed, using entry images as thumbnails", &importFeed},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.description, c.description, c.data); err != nil {
			return nil, fmt.Errorf("failed to register command %s: %w", c.name, err)
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	c := &Cfg{
		DBPath:       raw.DBPath,
		FilesDir:     raw.FilesDir,
		AssetsDir:    raw.AssetsDir,
		PublicPath:   raw.PublicPath,
		BaseUrl:      raw.BaseUrl,
		SettingsFile: raw.SettingsFile,
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		LogFormat:    raw.LogFormat,
		Version:      GetVersion(),
	}

	if parser.Active != nil {
		c.Command = parser.Active.Name
	}

	switch c.Command {
	case CommandGenerate:
		c.ContentType = generate.ContentType
	case CommandBuild:
		ids, err := parseNodeIDs(build.Args.IDs)
		if err != nil {
			return nil, err
		}
		c.NodeIDs = ids
	case CommandImportFeed:
		c.FeedURL = importFeed.URL
		c.ContentType = importFeed.ContentType
		c.Langcode = importFeed.Langcode
	}

	if err := applyTimezone(c.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", c.Timezone, err)
	}

	return c, nil
}

func parseNodeIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid node id %q", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
