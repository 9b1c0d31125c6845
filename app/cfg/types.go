package cfg

// Command names accepted on the command line.
const (
	CommandServe      = "serve"
	CommandGenerate   = "generate"
	CommandBuild      = "build"
	CommandImportFeed = "import-feed"
)

type Cfg struct {
	// Storage configuration
	DBPath    string
	FilesDir  string
	AssetsDir string

	// Public URL configuration
	PublicPath string
	BaseUrl    string

	// Application configuration
	SettingsFile string
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	LogFormat string
	Version   string

	// Active command and its arguments
	Command     string
	ContentType string
	NodeIDs     []int64
	FeedURL     string
	Langcode    string
}
