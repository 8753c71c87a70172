package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/bakeplan/internal/builder"
)

// FakeRunner is a builder.Runner for tests: it records dispatch order,
// tracks concurrency, and can be programmed to fail or stall per target.
type FakeRunner struct {
	// FailTargets maps target names to the error their build should
	// return.
	FailTargets map[string]error
	// Delay is applied to every build, simulating work so that
	// concurrency is observable.
	Delay time.Duration
	// StallTargets names targets whose build blocks until the context is
	// canceled (used for timeout tests).
	StallTargets map[string]bool

	mu             sync.Mutex
	started        []string
	running        int
	maxConcurrency int
}

// Build implements builder.Runner.
func (r *FakeRunner) Build(ctx context.Context, inv builder.Invocation) (builder.Result, error) {
	r.mu.Lock()
	r.started = append(r.started, inv.Target)
	r.running++
	if r.running > r.maxConcurrency {
		r.maxConcurrency = r.running
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running--
		r.mu.Unlock()
	}()

	if r.StallTargets[inv.Target] {
		<-ctx.Done()
		return builder.Result{}, ctx.Err()
	}

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return builder.Result{}, ctx.Err()
		}
	}

	if err, ok := r.FailTargets[inv.Target]; ok {
		return builder.Result{}, err
	}
	return builder.Result{ImageID: "sha256:fake-" + inv.Target}, nil
}

// Started returns the targets in dispatch order.
func (r *FakeRunner) Started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.started...)
}

// StartedIndex returns the dispatch position of a target, or -1 if it never
// started.
func (r *FakeRunner) StartedIndex(target string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, name := range r.started {
		if name == target {
			return i
		}
	}
	return -1
}

// MaxConcurrency reports the highest number of simultaneous builds observed.
func (r *FakeRunner) MaxConcurrency() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxConcurrency
}
