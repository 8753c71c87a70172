package app

import (
	"errors"
	"time"
)

// Config holds everything an App instance needs for a single invocation.
type Config struct {
	// Files are the bake files (or directories) to load. Empty means probe
	// the default file names in the working directory.
	Files []string
	// Names are the requested target or group names. Empty falls back to
	// the `default` group.
	Names []string
	// Overrides are `--set name=value` variable overrides.
	Overrides map[string]string

	Push      bool
	NoCache   bool
	DryRun    bool
	FailFast  bool
	Workers   int
	Timeout   time.Duration
	Platforms []string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Workers < 0 {
		return nil, errors.New("workers must not be negative")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("timeout must not be negative")
	}
	return &cfg, nil
}
