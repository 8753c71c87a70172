package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

func main() {
	// A .env next to the invocation can seed variable values; it is
	// optional by design.
	_ = godotenv.Load()

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	ctx = listenOSKillSignalsContext(ctx)

	app := &cli.App{
		Name:  "bakeplan",
		Usage: "plan and run bake-file build targets with dependency-aware concurrency",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "bake file or directory (repeatable; default: probe docker-bake.hcl and friends)",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "override a variable, e.g. --set TAG=v2",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "extra env file to load before resolving variables",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "debug, info, warn, or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: defaultLogFormat(),
				Usage: "text or json",
			},
		},
		Commands: cli.Commands{
			buildCommand(),
			printCommand(),
			targetsCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		cli.HandleExitCoder(err)
		os.Exit(1)
	}
}

// defaultLogFormat picks human-readable logs on a terminal and structured
// logs everywhere else.
func defaultLogFormat() string {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return "text"
	}
	return "json"
}

func listenOSKillSignalsContext(ctx context.Context) context.Context {
	var cancelFunc context.CancelFunc
	ctx, cancelFunc = context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ch:
			cancelFunc()
		case <-ctx.Done():
			return
		}
	}()
	return ctx
}
