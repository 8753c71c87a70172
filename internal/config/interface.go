package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths, resolves variables
	// (applying the provided overrides on top of the environment and block
	// defaults) and inheritance, and returns the immutable registry.
	Load(ctx context.Context, overrides map[string]string, paths ...string) (*Config, error)
}
