package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./curate.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for source processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Property store export
	StoreAPIKey     string `long:"store-api-key" env:"STORE_API_KEY" description:"Property store integration token"`
	StoreDatabaseID string `long:"store-database-id" env:"STORE_DATABASE_ID" description:"Default property store database ID for exports"`
	StoreBaseURL    string `long:"store-base-url" env:"STORE_BASE_URL" default:"https://api.notion.com/v1" description:"Property store API base URL"`
	StoreAPIVersion string `long:"store-api-version" env:"STORE_API_VERSION" default:"2022-06-28" description:"Property store API version header"`

	// Publishing
	PublishToken        string `long:"publish-token" env:"PUBLISH_TOKEN" description:"Publishing service access token"`
	PublishBaseURL      string `long:"publish-base-url" env:"PUBLISH_BASE_URL" default:"https://api.bufferapp.com/1" description:"Publishing service API base URL"`
	ProfileMicroblog    string `long:"profile-microblog" env:"PROFILE_MICROBLOG" description:"Publishing profile ID for the microblog destination"`
	ProfileThread       string `long:"profile-thread" env:"PROFILE_THREAD" description:"Publishing profile ID for the thread destination"`
	ProfileFacebook     string `long:"profile-facebook" env:"PROFILE_FACEBOOK" description:"Publishing profile ID for the facebook destination"`
	ProfileProfessional string `long:"profile-professional" env:"PROFILE_PROFESSIONAL" description:"Publishing profile ID for the professional network destination"`

	// Scraping actors
	ActorBaseURL string `long:"actor-base-url" env:"ACTOR_BASE_URL" default:"https://api.apify.com" description:"Scraping actor platform base URL"`
	ActorToken   string `long:"actor-token" env:"ACTOR_TOKEN" description:"Scraping actor platform token"`

	// AI summarization
	ModelAPIKey      string  `long:"model-api-key" env:"MODEL_API_KEY" description:"LLM provider API key for summarization"`
	Model            string  `long:"model" env:"MODEL" default:"claude-sonnet-4-20250514" description:"Model used for summarization"`
	ModelMaxTokens   int     `long:"model-max-tokens" env:"MODEL_MAX_TOKENS" default:"2048" description:"Maximum tokens per summarization response"`
	ModelTemperature float64 `long:"model-temperature" env:"MODEL_TEMPERATURE" default:"0.3" description:"Sampling temperature for summarization"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Curate Press/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Seoul)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		SourcesDir:          raw.SourcesDir,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		APIAccessKey:        raw.APIAccessKey,
		StoreAPIKey:         raw.StoreAPIKey,
		StoreDatabaseID:     raw.StoreDatabaseID,
		StoreBaseURL:        raw.StoreBaseURL,
		StoreAPIVersion:     raw.StoreAPIVersion,
		PublishToken:        raw.PublishToken,
		PublishBaseURL:      raw.PublishBaseURL,
		ProfileMicroblog:    raw.ProfileMicroblog,
		ProfileThread:       raw.ProfileThread,
		ProfileFacebook:     raw.ProfileFacebook,
		ProfileProfessional: raw.ProfileProfessional,
		ActorBaseURL:        raw.ActorBaseURL,
		ActorToken:          raw.ActorToken,
		ModelAPIKey:         raw.ModelAPIKey,
		Model:               raw.Model,
		ModelMaxTokens:      raw.ModelMaxTokens,
		ModelTemperature:    raw.ModelTemperature,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTesting installs a config without going through flag parsing.
func SetForTesting(cfg *Cfg) {
	globalCfg = cfg
}

// ProfileIDs maps destination names to configured publishing profile IDs.
// Destinations without a profile are absent from the map.
func (c *Cfg) ProfileIDs() map[string]string {
	profiles := make(map[string]string)
	if c.ProfileMicroblog != "" {
		profiles["microblog"] = c.ProfileMicroblog
	}
	if c.ProfileThread != "" {
		profiles["thread"] = c.ProfileThread
	}
	if c.ProfileFacebook != "" {
		profiles["facebook"] = c.ProfileFacebook
	}
	if c.ProfileProfessional != "" {
		profiles["professional"] = c.ProfileProfessional
	}
	return profiles
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
