package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/bakeplan/internal/ctxlog"
	"github.com/vk/bakeplan/internal/executor"
	"github.com/vk/bakeplan/internal/plan"
)

// roundTo keeps summary durations readable.
const roundTo = 10 * time.Millisecond

// Run executes the main application logic: plan construction, then either a
// dry-run print or the concurrent build run. The returned error is non-nil
// if the plan could not be built or any target failed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.")

	p, err := plan.Build(ctx, a.registry, a.cfg.Names, plan.Options{
		Push:      a.cfg.Push,
		NoCache:   a.cfg.NoCache,
		Platforms: a.cfg.Platforms,
	})
	if err != nil {
		return fmt.Errorf("failed to build execution plan: %w", err)
	}
	a.logger.Debug("Execution plan built.", "targets", len(p.Nodes), "layers", len(p.Layers))

	if a.cfg.DryRun {
		return a.printPlan(p)
	}

	if a.runner == nil {
		return errors.New("no builder available: dry-run not requested but no runner configured")
	}

	a.logger.Info("Starting concurrent execution.", "targets", len(p.Nodes), "workers", a.cfg.Workers)
	exec := executor.New(p, a.runner, executor.Options{
		Workers:  a.cfg.Workers,
		FailFast: a.cfg.FailFast,
		Timeout:  a.cfg.Timeout,
	})
	summary := exec.Run(ctx)
	a.renderSummary(summary)

	return summary.Err
}

// renderSummary writes the final succeeded/failed/skipped report.
func (a *App) renderSummary(s *executor.Summary) {
	for _, layer := range [][]string{s.Succeeded, s.Failed, s.Skipped} {
		for _, name := range layer {
			r := s.Results[name]
			switch r.Status {
			case executor.StatusSucceeded:
				fmt.Fprintf(a.outW, "%-12s %s (%s)\n", r.Status, name, r.Duration.Round(roundTo))
			case executor.StatusFailed:
				fmt.Fprintf(a.outW, "%-12s %s: %v\n", r.Status, name, r.Err)
			default:
				fmt.Fprintf(a.outW, "%-12s %s\n", r.Status, name)
			}
		}
	}
	fmt.Fprintf(a.outW, "%d succeeded, %d failed, %d skipped\n",
		len(s.Succeeded), len(s.Failed), len(s.Skipped))
}
