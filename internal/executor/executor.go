// Package executor schedules a build plan: independent targets are
// dispatched concurrently through a bounded worker pool as soon as all of
// their dependencies have succeeded, and dependents of a failed target are
// skipped rather than attempted. Every target's completion is reported
// exactly once.
package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/bakeplan/internal/builder"
	"github.com/vk/bakeplan/internal/ctxlog"
	"github.com/vk/bakeplan/internal/plan"
)

// nodeState tracks one target's mutable execution state. The completion
// fields (status, err, result, duration) are published under the once guard;
// only depCount is touched by multiple goroutines afterwards.
type nodeState struct {
	node     *plan.Node
	status   atomic.Int32
	depCount atomic.Int32
	once     sync.Once
	err      error
	result   builder.Result
	duration time.Duration
}

// Executor runs a plan against a builder.Runner.
type Executor struct {
	plan    *plan.Plan
	runner  builder.Runner
	opts    Options
	nodes   map[string]*nodeState
	wg      sync.WaitGroup
	readyCh chan *nodeState

	// stopDispatch gates new dispatches under fail-fast. It never touches
	// builds already in flight; only context cancellation does that.
	stopDispatch atomic.Bool
}

// New prepares an executor for a single run. Workers defaults to 4 when not
// set.
func New(p *plan.Plan, runner builder.Runner, opts Options) *Executor {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	e := &Executor{
		plan:   p,
		runner: runner,
		opts:   opts,
		nodes:  make(map[string]*nodeState, len(p.Nodes)),
	}
	for name, node := range p.Nodes {
		ns := &nodeState{node: node}
		ns.depCount.Store(int32(len(node.Deps)))
		e.nodes[name] = ns
	}
	return e
}

// Run executes the plan and returns the per-target summary. Run never
// returns before every target has been reported exactly once.
func (e *Executor) Run(ctx context.Context) *Summary {
	logger := ctxlog.FromContext(ctx)

	e.readyCh = make(chan *nodeState, len(e.nodes))
	rootCount := 0
	for _, ns := range e.nodes {
		if ns.depCount.Load() == 0 {
			e.readyCh <- ns
			rootCount++
		}
	}
	logger.Debug("Executor initialized.", "targets", len(e.nodes), "roots", rootCount, "workers", e.opts.Workers)

	e.wg.Add(len(e.nodes))
	for i := 0; i < e.opts.Workers; i++ {
		go e.worker(ctx, i)
	}

	e.wg.Wait()
	close(e.readyCh)
	logger.Debug("All targets completed.")

	return e.summarize(ctx.Err())
}

// worker is the processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for ns := range e.readyCh {
		name := ns.node.Target.Name
		workerLogger := logger.With("workerID", workerID, "target", name)

		if ctx.Err() != nil {
			e.complete(ctx, ns, StatusSkipped, fmt.Errorf("skipped: run canceled before dispatch"))
			continue
		}
		if e.stopDispatch.Load() {
			e.complete(ctx, ns, StatusSkipped, fmt.Errorf("skipped: an earlier failure stopped dispatch"))
			continue
		}

		workerLogger.Info("Building target.")
		ns.status.Store(int32(StatusRunning))
		start := time.Now()
		result, err := e.buildNode(ctx, ns)
		ns.duration = time.Since(start)

		if err != nil {
			workerLogger.Error("Target failed.", "error", err, "duration", ns.duration)
			e.complete(ctx, ns, StatusFailed, &BuildFailure{Target: name, Err: err})
			if e.opts.FailFast {
				workerLogger.Warn("Fail-fast requested, stopping new dispatches.")
				e.stopDispatch.Store(true)
			}
			continue
		}

		workerLogger.Info("Target succeeded.", "duration", ns.duration, "imageID", result.ImageID)
		ns.result = result
		e.complete(ctx, ns, StatusSucceeded, nil)

		for _, depID := range ns.node.Dependents {
			dependent := e.nodes[depID]
			if dependent.depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent target.", "dependent", depID)
				e.readyCh <- dependent
			}
		}
	}
}

// buildNode invokes the external builder, applying the effective timeout.
func (e *Executor) buildNode(ctx context.Context, ns *nodeState) (builder.Result, error) {
	timeout := ns.node.Target.Timeout
	if e.opts.Timeout > 0 {
		timeout = e.opts.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := e.runner.Build(ctx, ns.node.Invocation)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return builder.Result{}, fmt.Errorf("timed out after %s: %w", timeout, err)
	}
	return result, err
}

// complete reports a target's terminal state exactly once. Failed and
// skipped targets propagate a skip to their dependents.
func (e *Executor) complete(ctx context.Context, ns *nodeState, status Status, err error) {
	ns.once.Do(func() {
		ns.status.Store(int32(status))
		ns.err = err
		e.wg.Done()
		if status == StatusFailed || status == StatusSkipped {
			e.skipDependents(ctx, ns)
		}
	})
}

// skipDependents recursively marks all downstream targets as skipped.
func (e *Executor) skipDependents(ctx context.Context, ns *nodeState) {
	logger := ctxlog.FromContext(ctx)
	for _, depID := range ns.node.Dependents {
		dependent := e.nodes[depID]
		dependent.once.Do(func() {
			logger.Warn("Skipping target: upstream did not succeed.",
				"target", depID, "upstream", ns.node.Target.Name)
			dependent.status.Store(int32(StatusSkipped))
			dependent.err = fmt.Errorf("skipped: upstream target %q did not succeed", ns.node.Target.Name)
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// summarize assembles the final run summary from the node states. A non-nil
// ctxErr marks a run that was canceled from outside; it surfaces as the run
// error when the cancellation left targets unbuilt.
func (e *Executor) summarize(ctxErr error) *Summary {
	s := &Summary{Results: make(map[string]*TargetResult, len(e.nodes))}

	var failures []string
	for name, ns := range e.nodes {
		status := Status(ns.status.Load())
		s.Results[name] = &TargetResult{
			Status:   status,
			Err:      ns.err,
			ImageID:  ns.result.ImageID,
			Duration: ns.duration,
		}
		switch status {
		case StatusSucceeded:
			s.Succeeded = append(s.Succeeded, name)
		case StatusFailed:
			s.Failed = append(s.Failed, name)
			failures = append(failures, name)
		case StatusSkipped:
			s.Skipped = append(s.Skipped, name)
		}
	}
	sort.Strings(s.Succeeded)
	sort.Strings(s.Failed)
	sort.Strings(s.Skipped)
	sort.Strings(failures)

	if len(failures) > 0 {
		s.Err = fmt.Errorf("execution failed for %s: %w", strings.Join(failures, ", "), s.Results[failures[0]].Err)
	} else if ctxErr != nil && len(s.Skipped) > 0 {
		s.Err = fmt.Errorf("run canceled before completion: %w", ctxErr)
	}
	return s
}
