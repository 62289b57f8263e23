package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	LogLevel      string              `toml:"log_level"`
	Database      DatabaseConfig      `toml:"database"`
	Server        ServerConfig        `toml:"server"`
	Sync          SyncConfig          `toml:"sync"`
	Tracker       TrackerConfig       `toml:"tracker"`
	Accessibility AccessibilityConfig `toml:"accessibility"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the progress endpoint.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// Token, when set, is required as a bearer credential on /api routes.
	Token string `toml:"token"`
}

// SyncConfig contains settings for the outbound progress sync client.
type SyncConfig struct {
	BaseURL   string   `toml:"base_url"`
	Token     string   `toml:"token"`
	UserID    string   `toml:"user_id"`
	RateLimit float64  `toml:"rate_limit"`
	Timeout   Duration `toml:"timeout"`
}

// TrackerConfig contains tuning for the watch-progress engine.
type TrackerConfig struct {
	SegmentCount      int      `toml:"segment_count"`
	ThrottleWindow    Duration `toml:"throttle_window"`
	PlayerRetryDelay  Duration `toml:"player_retry_delay"`
	PlayerMaxAttempts int      `toml:"player_max_attempts"`
	LogPath           string   `toml:"log_path"`
}

// AccessibilityConfig mirrors the user's accessibility toggles.
type AccessibilityConfig struct {
	ReducedMotion bool `toml:"reduced_motion"`
}

// Duration wraps [time.Duration] so TOML values like "3s" decode.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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

// Validate rejects values the tracker cannot run with.
func (c *Config) Validate() error {
	if c.Tracker.SegmentCount <= 0 {
		return fmt.Errorf("%w: tracker.segment_count must be positive, got %d", ErrInvalidConfig, c.Tracker.SegmentCount)
	}
	if c.Tracker.ThrottleWindow.Duration < 0 {
		return fmt.Errorf("%w: tracker.throttle_window must not be negative", ErrInvalidConfig)
	}
	if c.Sync.RateLimit < 0 {
		return fmt.Errorf("%w: sync.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadOrDefault loads the config at path when it exists and falls back to [DefaultConfig] otherwise.
func LoadOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, ErrMissingConfig) {
		return DefaultConfig(), nil
	}
	return config, err
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
