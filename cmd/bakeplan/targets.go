package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vk/bakeplan/internal/app"
	"github.com/vk/bakeplan/internal/hcl"
)

func targetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "targets",
		Usage: "list the declared targets and groups",
		Action: func(c *cli.Context) error {
			overrides, err := parseOverrides(c.StringSlice("set"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			appConfig, err := app.NewConfig(app.Config{
				Files:     c.StringSlice("file"),
				Overrides: overrides,
				LogFormat: c.String("log-format"),
				LogLevel:  c.String("log-level"),
			})
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			bakeApp, err := app.NewApp(os.Stdout, os.Stderr, appConfig, hcl.NewLoader(), nil)
			if err != nil {
				return err
			}
			bakeApp.ListTargets()
			return nil
		},
	}
}
