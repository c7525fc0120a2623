// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - New() returns a Config filled with defaults.
// - Load(ctx) layers a YAML file and environment variables over the defaults.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"

	"github.com/okian/rankboard/internal/domain/ranking"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Game labels the leaderboard in logs and structure dumps.
	Game string `koanf:"game"`

	// MaxLevel caps skip list promotion.
	MaxLevel int `koanf:"max_level"`

	// Seed makes level draws reproducible; zero picks a random seed.
	Seed uint64 `koanf:"seed"`

	// QueueSize bounds the load queue between the CSV reader and the worker.
	QueueSize int `koanf:"queue_size"`

	// CSVPath is the players file loaded at startup; empty skips loading.
	CSVPath string `koanf:"csv_path"`

	// Strict aborts a load on the first malformed record instead of skipping it.
	Strict bool `koanf:"strict"`

	// TopN is the number of leaders printed after loading.
	TopN int `koanf:"top_n"`

	// MetricsFile, when set, receives a Prometheus textfile on exit.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		Game:      "MyGame",
		MaxLevel:  ranking.DefaultMaxLevel,
		QueueSize: 10_000,
		TopN:      5,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.MaxLevel < 1 || c.MaxLevel > ranking.MaxLevelLimit:
		return fmt.Errorf("%w: max_level must be within 1..%d, got %d", ErrInvalidConfig, ranking.MaxLevelLimit, c.MaxLevel)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.TopN < 0:
		return fmt.Errorf("%w: top_n must not be negative, got %d", ErrInvalidConfig, c.TopN)
	}
	return nil
}
