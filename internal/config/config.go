// Package config loads the service configuration from built-in defaults, an
// optional YAML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileEnv names the environment variable holding the YAML file path.
	ConfigFileEnv = "THUMBNAIL_CONFIG_FILE"

	MaxPortNumber = 65535
	// DefaultMaxBodyBytes is the request body limit, 20 MiB.
	DefaultMaxBodyBytes = 20 * 1024 * 1024
)

type Config struct {
	Server    ServerConfig    `yaml:"server"    envconfig:"SERVER"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail" envconfig:"THUMBNAIL"`
	History   HistoryConfig   `yaml:"history"   envconfig:"HISTORY"`
	Logging   LoggingConfig   `yaml:"logging"   envconfig:"LOGGING"`
}

// ServerConfig holds the listener and session settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             envconfig:"HOST"`
	Port            int           `yaml:"port"             envconfig:"PORT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   envconfig:"MAX_BODY_BYTES"`
	MaxSessions     int           `yaml:"max_sessions"     envconfig:"MAX_SESSIONS"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// Zero disables the per-connection deadlines.
	ReadTimeout  time.Duration `yaml:"read_timeout"  envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

type ThumbnailConfig struct {
	Concurrency  int `yaml:"concurrency"   envconfig:"CONCURRENCY"`
	JPEGQuality  int `yaml:"jpeg_quality"  envconfig:"JPEG_QUALITY"`
	CacheEntries int `yaml:"cache_entries" envconfig:"CACHE_ENTRIES"`
}

type HistoryConfig struct {
	Enabled  bool          `yaml:"enabled"  envconfig:"ENABLED"`
	DBPath   string        `yaml:"db_path"  envconfig:"DB_PATH"`
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"        envconfig:"LEVEL"`
	Dir        string `yaml:"dir"          envconfig:"DIR"`
	File       string `yaml:"file"         envconfig:"FILE"`
	Stderr     bool   `yaml:"stderr"       envconfig:"STDERR"`
	MaxSizeMB  int    `yaml:"max_size_mb"  envconfig:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups"  envconfig:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			ShutdownTimeout: 25 * time.Second,
		},
		Thumbnail: ThumbnailConfig{
			Concurrency: runtime.NumCPU(),
			JPEGQuality: 90,
		},
		History: HistoryConfig{
			Enabled:  true,
			DBPath:   "../db/history.db",
			Interval: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Dir:        "../log",
			File:       "thumbnailService.log",
			Stderr:     true,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// loadYAML overlays the keys present in the file onto cfg.
func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > MaxPortNumber {
		return errors.New("server port must be between 0 and 65535")
	}

	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server max body bytes must be positive")
	}

	if c.Server.MaxSessions < 0 {
		return errors.New("server max sessions must not be negative")
	}

	if c.Server.ShutdownTimeout < 0 || c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}

	if c.Thumbnail.Concurrency < 1 {
		return errors.New("thumbnail concurrency must be at least 1")
	}

	if c.Thumbnail.JPEGQuality < 1 || c.Thumbnail.JPEGQuality > 100 {
		return errors.New("thumbnail jpeg quality must be between 1 and 100")
	}

	if c.Thumbnail.CacheEntries < 0 {
		return errors.New("thumbnail cache entries must not be negative")
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return errors.New("history db path is required when history is enabled")
		}
		if c.History.Interval <= 0 {
			return errors.New("history interval must be positive")
		}
	}

	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.File == "" {
		return errors.New("logging file name is required")
	}

	return nil
}

// Address returns host:port for display.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
