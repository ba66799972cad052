package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// TMDB (movie, tv)
	TMDBAPIKey  string
	TMDBBaseURL string

	// Google Books (book)
	GoogleBooksAPIKey  string
	GoogleBooksBaseURL string

	// iTunes (podcast, album)
	ITunesBaseURL      string
	EnrichPodcastFeeds bool // Fetch the podcast RSS feed on get-by-id

	// Jikan (anime)
	JikanBaseURL string
	JikanRPS     float64 // Client-side request budget (default: 3)

	// TheSportsDB (athlete, sportingEvent)
	SportsDBAPIKey  string
	SportsDBBaseURL string

	// Dispatcher
	ProviderTimeout      time.Duration // Per upstream call (default: 10s)
	CacheTTL             time.Duration // Result cache lifetime (default: 10m)
	FanOutWorkers        int           // Concurrent categories in an all-categories search (default: 4)
	DiscoveryConcurrency int           // Concurrent discovery terms (default: 1, sequential)

	// Lists
	MaxTempListItems int // Cap on a working list (default: 50)

	// Sync
	PushMaxRetries     int           // Retries after the first push attempt (default: 5)
	PushInitialBackoff time.Duration // First retry delay (default: 1s)
	PullOnSignIn       bool          // Pull and merge when a session signs in (default: true)

	// Scheduler
	PullSchedule    string // Cron spec for periodic pull-and-merge (default: every 15 minutes)
	RematchSchedule string // Cron spec for watched-pool rematch (default: hourly)

	// Tracing
	TraceSampleRatio float64

	// Server
	ServerPort string

	// Paths
	ConfigDir          string
	LocalDatabaseFile  string // $CONFIG_DIR/local.db
	RemoteDatabaseFile string // $CONFIG_DIR/remote.db
	DiscoveryTermsFile string // $CONFIG_DIR/discovery_terms.txt

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	SetDefaults()

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "rankboard")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := FromViper(configDir)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SetDefaults registers default values for every key
func SetDefaults() {
	viper.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	viper.SetDefault("GOOGLE_BOOKS_BASE_URL", "https://www.googleapis.com/books/v1")
	viper.SetDefault("ITUNES_BASE_URL", "https://itunes.apple.com")
	viper.SetDefault("JIKAN_BASE_URL", "https://api.jikan.moe/v4")
	viper.SetDefault("JIKAN_RPS", 3)
	viper.SetDefault("SPORTSDB_BASE_URL", "https://www.thesportsdb.com/api/v1/json")
	viper.SetDefault("SPORTSDB_API_KEY", "3")
	viper.SetDefault("PROVIDER_TIMEOUT", "10s")
	viper.SetDefault("CACHE_TTL", "10m")
	viper.SetDefault("FANOUT_WORKERS", 4)
	viper.SetDefault("DISCOVERY_CONCURRENCY", 1)
	viper.SetDefault("MAX_TEMP_LIST_ITEMS", 50)
	viper.SetDefault("PUSH_MAX_RETRIES", 5)
	viper.SetDefault("PUSH_INITIAL_BACKOFF", "1s")
	viper.SetDefault("PULL_ON_SIGN_IN", true)
	viper.SetDefault("PULL_SCHEDULE", "*/15 * * * *")
	viper.SetDefault("REMATCH_SCHEDULE", "0 * * * *")
	viper.SetDefault("TRACE_SAMPLE_RATIO", 0.1)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
}

// FromViper builds a Config from the current viper state
func FromViper(configDir string) *Config {
	return &Config{
		// TMDB
		TMDBAPIKey:  viper.GetString("TMDB_API_KEY"),
		TMDBBaseURL: viper.GetString("TMDB_BASE_URL"),

		// Google Books
		GoogleBooksAPIKey:  viper.GetString("GOOGLE_BOOKS_API_KEY"),
		GoogleBooksBaseURL: viper.GetString("GOOGLE_BOOKS_BASE_URL"),

		// iTunes
		ITunesBaseURL:      viper.GetString("ITUNES_BASE_URL"),
		EnrichPodcastFeeds: viper.GetBool("ENRICH_PODCAST_FEEDS"),

		// Jikan
		JikanBaseURL: viper.GetString("JIKAN_BASE_URL"),
		JikanRPS:     viper.GetFloat64("JIKAN_RPS"),

		// TheSportsDB
		SportsDBAPIKey:  viper.GetString("SPORTSDB_API_KEY"),
		SportsDBBaseURL: viper.GetString("SPORTSDB_BASE_URL"),

		// Dispatcher
		ProviderTimeout:      viper.GetDuration("PROVIDER_TIMEOUT"),
		CacheTTL:             viper.GetDuration("CACHE_TTL"),
		FanOutWorkers:        viper.GetInt("FANOUT_WORKERS"),
		DiscoveryConcurrency: viper.GetInt("DISCOVERY_CONCURRENCY"),

		// Lists
		MaxTempListItems: viper.GetInt("MAX_TEMP_LIST_ITEMS"),

		// Sync
		PushMaxRetries:     viper.GetInt("PUSH_MAX_RETRIES"),
		PushInitialBackoff: viper.GetDuration("PUSH_INITIAL_BACKOFF"),
		PullOnSignIn:       viper.GetBool("PULL_ON_SIGN_IN"),

		// Scheduler
		PullSchedule:    viper.GetString("PULL_SCHEDULE"),
		RematchSchedule: viper.GetString("REMATCH_SCHEDULE"),

		// Tracing
		TraceSampleRatio: viper.GetFloat64("TRACE_SAMPLE_RATIO"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Paths
		ConfigDir:          configDir,
		LocalDatabaseFile:  filepath.Join(configDir, "local.db"),
		RemoteDatabaseFile: filepath.Join(configDir, "remote.db"),
		DiscoveryTermsFile: filepath.Join(configDir, "discovery_terms.txt"),

		// Logging
		LogLevel:  viper.GetString("LOG_LEVEL"),
		LogFormat: viper.GetString("LOG_FORMAT"),
	}
}

// Validate checks numeric bounds. Missing API keys are not errors: the
// provider is simply disabled.
func (c *Config) Validate() error {
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	if c.FanOutWorkers < 1 {
		return fmt.Errorf("FANOUT_WORKERS must be at least 1")
	}
	if c.DiscoveryConcurrency < 1 {
		return fmt.Errorf("DISCOVERY_CONCURRENCY must be at least 1")
	}
	if c.MaxTempListItems < 1 {
		return fmt.Errorf("MAX_TEMP_LIST_ITEMS must be at least 1")
	}
	if c.PushMaxRetries < 0 {
		return fmt.Errorf("PUSH_MAX_RETRIES must not be negative")
	}
	if c.PushInitialBackoff <= 0 {
		return fmt.Errorf("PUSH_INITIAL_BACKOFF must be positive")
	}
	if c.JikanRPS <= 0 {
		return fmt.Errorf("JIKAN_RPS must be positive")
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1")
	}
	return nil
}

// Default returns a validated configuration rooted at configDir, ignoring the environment
func Default(configDir string) *Config {
	return &Config{
		TMDBBaseURL:          "https://api.themoviedb.org/3",
		GoogleBooksBaseURL:   "https://www.googleapis.com/books/v1",
		ITunesBaseURL:        "https://itunes.apple.com",
		JikanBaseURL:         "https://api.jikan.moe/v4",
		JikanRPS:             3,
		SportsDBAPIKey:       "3",
		SportsDBBaseURL:      "https://www.thesportsdb.com/api/v1/json",
		ProviderTimeout:      10 * time.Second,
		CacheTTL:             10 * time.Minute,
		FanOutWorkers:        4,
		DiscoveryConcurrency: 1,
		MaxTempListItems:     50,
		PushMaxRetries:       5,
		PushInitialBackoff:   time.Second,
		PullOnSignIn:         true,
		PullSchedule:         "*/15 * * * *",
		RematchSchedule:      "0 * * * *",
		TraceSampleRatio:     0.1,
		ServerPort:           "8080",
		ConfigDir:            configDir,
		LocalDatabaseFile:    filepath.Join(configDir, "local.db"),
		RemoteDatabaseFile:   filepath.Join(configDir, "remote.db"),
		DiscoveryTermsFile:   filepath.Join(configDir, "discovery_terms.txt"),
		LogLevel:             "info",
		LogFormat:            "text",
	}
}
