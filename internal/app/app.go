// Package app wires the planner together: it loads and resolves the
// configuration, builds the execution plan, and either prints the plan or
// hands it to the executor, rendering a run summary at the end.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/bakeplan/internal/builder"
	"github.com/vk/bakeplan/internal/config"
	"github.com/vk/bakeplan/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	registry *config.Config
	runner   builder.Runner
}

// NewApp constructs the application: it configures an isolated logger and
// loads the full target registry through the given loader. The runner may be
// nil for dry runs.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, runner builder.Runner) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	registry, err := loader.Load(ctx, cfg.Overrides, cfg.Files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "targets", len(registry.Targets), "groups", len(registry.Groups))

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		registry: registry,
		runner:   runner,
	}, nil
}

// Registry returns the loaded target registry. This is primarily for testing.
func (a *App) Registry() *config.Config {
	return a.registry
}
