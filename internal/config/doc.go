// Package config defines the format-agnostic configuration model for the
// planner: fully resolved build targets, groups, and the Loader interface
// implemented by format-specific packages such as internal/hcl.
//
// A config.Config is parsed once at invocation start and is immutable for
// the duration of a run. By the time a Target reaches the graph builder,
// every variable reference has been interpolated and every inheritance
// chain flattened.
package config
