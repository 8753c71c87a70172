package config

import (
	"time"

	"github.com/vk/bakeplan/internal/cache"
)

// Target is the fully resolved representation of a `target` block: a named
// buildable unit with a context, build instructions, and metadata.
type Target struct {
	Name       string
	Context    string
	Dockerfile string
	// Stage selects a named build stage inside the dockerfile. Empty means
	// the final stage.
	Stage     string
	Tags      []string
	Args      map[string]string
	Labels    map[string]string
	DependsOn []string
	Platforms []string
	CacheFrom []cache.Descriptor
	CacheTo   []cache.Descriptor
	// Timeout bounds a single build of this target. Zero disables.
	Timeout time.Duration
}

// Group is a named collection of target (or group) names for batch invocation.
type Group struct {
	Name    string
	Targets []string
}

// Config is the parsed target registry for a single run.
type Config struct {
	Targets map[string]*Target
	Groups  map[string]*Group
}

// NewConfig returns an empty, initialized Config.
func NewConfig() *Config {
	return &Config{
		Targets: make(map[string]*Target),
		Groups:  make(map[string]*Group),
	}
}

// Merge flattens one step of an `inherits` chain: it returns a new Target
// with the parent's fields as defaults and the child's fields winning.
// Scalars and lists are replaced wholesale, maps are merged key-wise.
// The result has no runtime linkage to either input.
func Merge(parent, child *Target) *Target {
	out := *parent
	out.Name = child.Name

	if child.Context != "" {
		out.Context = child.Context
	}
	if child.Dockerfile != "" {
		out.Dockerfile = child.Dockerfile
	}
	if child.Stage != "" {
		out.Stage = child.Stage
	}
	if len(child.Tags) > 0 {
		out.Tags = child.Tags
	}
	if len(child.Platforms) > 0 {
		out.Platforms = child.Platforms
	}
	if len(child.DependsOn) > 0 {
		out.DependsOn = child.DependsOn
	}
	if len(child.CacheFrom) > 0 {
		out.CacheFrom = child.CacheFrom
	}
	if len(child.CacheTo) > 0 {
		out.CacheTo = child.CacheTo
	}
	if child.Timeout != 0 {
		out.Timeout = child.Timeout
	}

	out.Args = mergeMaps(parent.Args, child.Args)
	out.Labels = mergeMaps(parent.Labels, child.Labels)
	return &out
}

func mergeMaps(parent, child map[string]string) map[string]string {
	if parent == nil && child == nil {
		return nil
	}
	out := make(map[string]string, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}
