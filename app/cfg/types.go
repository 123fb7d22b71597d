package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Content configuration
	DataFile   string
	AssetsDir  string
	PolicyFile string

	// Application configuration
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	SnapshotTTL       int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Lint      bool
	Version   string
}
