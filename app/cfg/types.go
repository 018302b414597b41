package cfg

type Cfg struct {
	// Storage configuration
	DBPath  string
	DataDir string

	// Pipeline configuration
	FeedsFile         string
	LLMFile           string
	WorkerCount       int
	SchedulerInterval int
	ReaderProxyURL    string
	ItemMaxAgeDays    int

	// HTTP server configuration
	Port string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
