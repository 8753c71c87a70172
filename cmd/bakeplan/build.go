package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/vk/bakeplan/internal/app"
	"github.com/vk/bakeplan/internal/builder"
	"github.com/vk/bakeplan/internal/hcl"
)

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "build the requested targets or groups",
		ArgsUsage: "[TARGET|GROUP ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "push",
				Usage: "push images after a successful build",
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "print the resolved plan as JSON instead of building",
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "stop dispatching new targets after the first failure",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "ignore cache sources for every target",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: 4,
				Usage: "maximum number of targets building concurrently",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-target timeout overriding the targets' own (0 disables)",
			},
			&cli.StringSliceFlag{
				Name:  "platform",
				Usage: "override every target's platform list",
			},
		},
		Action: func(c *cli.Context) error {
			return runBuild(c, c.Bool("print"))
		},
	}
}

func printCommand() *cli.Command {
	return &cli.Command{
		Name:      "print",
		Usage:     "print the resolved plan for the requested targets or groups",
		ArgsUsage: "[TARGET|GROUP ...]",
		Action: func(c *cli.Context) error {
			return runBuild(c, true)
		},
	}
}

func runBuild(c *cli.Context, dryRun bool) error {
	overrides, err := parseOverrides(c.StringSlice("set"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if envFile := c.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return cli.Exit(fmt.Sprintf("failed to load env file %s: %v", envFile, err), 2)
		}
	}

	appConfig, err := app.NewConfig(app.Config{
		Files:     c.StringSlice("file"),
		Names:     c.Args().Slice(),
		Overrides: overrides,
		Push:      c.Bool("push"),
		NoCache:   c.Bool("no-cache"),
		DryRun:    dryRun,
		FailFast:  c.Bool("fail-fast"),
		Workers:   c.Int("workers"),
		Timeout:   c.Duration("timeout"),
		Platforms: c.StringSlice("platform"),
		LogFormat: c.String("log-format"),
		LogLevel:  c.String("log-level"),
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	var runner builder.Runner
	if !dryRun {
		runner, err = builder.NewExecRunner(os.Stdout, os.Stderr)
		if err != nil {
			return err
		}
	}

	bakeApp, err := app.NewApp(os.Stdout, os.Stderr, appConfig, hcl.NewLoader(), runner)
	if err != nil {
		return err
	}
	return bakeApp.Run(c.Context)
}

// parseOverrides turns repeated `--set name=value` flags into a map.
func parseOverrides(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", pair)
		}
		overrides[name] = value
	}
	return overrides, nil
}
