package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	envClientID     = "CLIENT_ID"
	envClientSecret = "CLIENT_SECRET"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Scraper     ScraperConfig     `toml:"scraper"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ScraperConfig points the relation scraper at its HTML source.
type ScraperConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// PipelineConfig tunes the discovery pipeline.
type PipelineConfig struct {
	Market          string  `toml:"market"`
	TracksPerArtist int     `toml:"tracks_per_artist"`
	BatchSize       int     `toml:"batch_size"`
	Concurrency     int     `toml:"concurrency"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	InsertRate      float64 `toml:"insert_rate"`
}

func (p PipelineConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig selects the logger level.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their values from [DefaultConfig].
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

// LoadConfigOrDefault loads path when it exists, otherwise returns [DefaultConfig].
// Environment overrides are applied in both cases.
func LoadConfigOrDefault(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = LoadConfig(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv loads a .env file from the working directory when present and lets CLIENT_ID and CLIENT_SECRET override the TOML credentials.
func (c *Config) ApplyEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if v := os.Getenv(envClientID); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv(envClientSecret); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	return nil
}

// Validate checks the values the server and pipeline cannot run without.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret are required", ErrMissingCredentials)
	}
	if sp.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri is required", ErrInvalidConfig)
	}
	if c.Pipeline.BatchSize <= 0 || c.Pipeline.TracksPerArtist <= 0 {
		return fmt.Errorf("%w: pipeline sizes must be positive", ErrInvalidConfig)
	}
	if c.Pipeline.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: pipeline timeout_seconds must be positive", ErrInvalidConfig)
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("%w: scraper base_url is required", ErrInvalidConfig)
	}
	return nil
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
