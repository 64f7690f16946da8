package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Credentials CredentialsConfig `toml:"credentials"`
	Sync        SyncConfig        `toml:"sync"`
	Enrichment  EnrichmentConfig  `toml:"enrichment"`
	Schedule    ScheduleConfig    `toml:"schedule"`
	Logging     LoggingConfig     `toml:"logging"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PlaylistConfig identifies the source playlist and the tail marker used to detect caught-up incremental syncs.
type PlaylistConfig struct {
	ID          string `toml:"id"`
	LastVideoID string `toml:"last_video_id"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Google     GoogleConfig     `toml:"google"`
	OpenRouter OpenRouterConfig `toml:"openrouter"`
}

// GoogleConfig contains the YouTube Data API key.
type GoogleConfig struct {
	APIKey string `toml:"api_key"`
}

// OpenRouterConfig contains chat completion credentials and model selection.
type OpenRouterConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// SyncConfig tunes playlist source calls.
type SyncConfig struct {
	PageSize          int64    `toml:"page_size"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Endpoint          string   `toml:"endpoint"`
}

// EnrichmentConfig tunes the completion client.
type EnrichmentConfig struct {
	Timeout Duration `toml:"timeout"`
}

// ScheduleConfig holds cron expressions for the periodic runs.
type ScheduleConfig struct {
	Timezone    string `toml:"timezone"`
	Incremental string `toml:"incremental"`
	FullScan    string `toml:"full_scan"`
}

// LoggingConfig controls log level and the optional webhook sink.
type LoggingConfig struct {
	Level      string `toml:"level"`
	WebhookURL string `toml:"webhook_url"`
}

// Duration is a [time.Duration] read from strings like "60s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		d.Duration = 0
		return nil
	}

	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("%w: could not parse duration %q: %v", ErrInvalidConfig, string(b), err)
	}

	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// envOverrides maps environment variables to the config fields they replace.
func (c *Config) envOverrides() map[string]*string {
	return map[string]*string{
		"PLAYLIST_ID":            &c.Playlist.ID,
		"PLAYLIST_LAST_VIDEO_ID": &c.Playlist.LastVideoID,
		"GOOGLE_API_KEY":         &c.Credentials.Google.APIKey,
		"OPENROUTER_API_KEY":     &c.Credentials.OpenRouter.APIKey,
		"DISCORD_WEBHOOK_URL":    &c.Logging.WebhookURL,
		"DATABASE_PATH":          &c.Database.Path,
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults of the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFile (when it exists) into the process environment and lets non-empty
// variables override file values. Variables already set in the environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	for key, target := range c.envOverrides() {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}

	return nil
}

// Validate checks the settings needed to synchronize the playlist.
func (c *Config) Validate() error {
	if c.Playlist.ID == "" {
		return fmt.Errorf("%w: playlist.id is required", ErrInvalidConfig)
	}
	if c.Credentials.Google.APIKey == "" {
		return fmt.Errorf("%w: credentials.google.api_key is required", ErrMissingCredentials)
	}
	if c.Sync.PageSize <= 0 || c.Sync.PageSize > 50 {
		return fmt.Errorf("%w: sync.page_size must be between 1 and 50", ErrInvalidConfig)
	}
	return nil
}

// ValidateEnrichment checks the settings needed to call the completion service.
func (c *Config) ValidateEnrichment() error {
	if c.Credentials.OpenRouter.APIKey == "" {
		return fmt.Errorf("%w: credentials.openrouter.api_key is required", ErrMissingCredentials)
	}
	if c.Credentials.OpenRouter.Model == "" {
		return fmt.Errorf("%w: credentials.openrouter.model is required", ErrInvalidConfig)
	}
	return nil
}
