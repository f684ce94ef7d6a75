package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SourcesDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Property store export
	StoreAPIKey     string
	StoreDatabaseID string
	StoreBaseURL    string
	StoreAPIVersion string

	// Publishing
	PublishToken        string
	PublishBaseURL      string
	ProfileMicroblog    string
	ProfileThread       string
	ProfileFacebook     string
	ProfileProfessional string

	// Scraping actors
	ActorBaseURL string
	ActorToken   string

	// AI summarization
	ModelAPIKey      string
	Model            string
	ModelMaxTokens   int
	ModelTemperature float64

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
