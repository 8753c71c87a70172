// Package builder defines the contract with the external image builder and
// provides the docker CLI implementation of it. The planning layer never
// imports anything below the Runner interface.
package builder

import "context"

// Invocation is the build descriptor emitted for one eligible target and
// consumed by the external image builder.
type Invocation struct {
	Target     string            `json:"target"`
	Context    string            `json:"context"`
	Dockerfile string            `json:"dockerfile"`
	Stage      string            `json:"stage,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Args       map[string]string `json:"args,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
	Platforms  []string          `json:"platforms,omitempty"`
	CacheFrom  []string          `json:"cache-from,omitempty"`
	CacheTo    []string          `json:"cache-to,omitempty"`
	NoCache    bool              `json:"no-cache,omitempty"`
	Push       bool              `json:"push,omitempty"`
}

// Result is what the external builder reports back for a successful build.
type Result struct {
	// ImageID is the identifier of the built image, when the builder
	// provides one.
	ImageID string
}

// Runner executes a single build invocation. Implementations must be safe
// for concurrent use; the scheduler dispatches independent targets in
// parallel.
type Runner interface {
	Build(ctx context.Context, inv Invocation) (Result, error)
}
