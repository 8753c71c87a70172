package executor

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a single target within a run.
type Status int32

const (
	// StatusPending means the target has not been dispatched yet.
	StatusPending Status = iota
	// StatusRunning means a worker is currently building the target.
	StatusRunning
	// StatusSucceeded means the external builder reported success.
	StatusSucceeded
	// StatusFailed means the build itself failed (or timed out).
	StatusFailed
	// StatusSkipped means the target was never attempted because an
	// upstream dependency failed or the run was canceled.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// BuildFailure carries a failing target's name together with the underlying
// diagnostic from the external builder.
type BuildFailure struct {
	Target string
	Err    error
}

func (e *BuildFailure) Error() string {
	return fmt.Sprintf("build of target %q failed: %v", e.Target, e.Err)
}

func (e *BuildFailure) Unwrap() error {
	return e.Err
}

// Options configure a run.
type Options struct {
	// Workers bounds the number of targets building concurrently.
	Workers int
	// FailFast stops dispatching new targets as soon as any target fails.
	// Targets already running are allowed to finish either way.
	FailFast bool
	// Timeout, when non-zero, overrides every target's own timeout.
	Timeout time.Duration
}

// TargetResult is the final record for one target.
type TargetResult struct {
	Status   Status
	Err      error
	ImageID  string
	Duration time.Duration
}

// Summary is the outcome of a whole run. Err is non-nil when at least one
// target failed, or when a canceled run left targets unbuilt.
type Summary struct {
	Results   map[string]*TargetResult
	Succeeded []string
	Failed    []string
	Skipped   []string
	Err       error
}
