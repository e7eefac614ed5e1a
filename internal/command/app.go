// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/config"
	"github.com/staranto/dpcviz/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the dpcviz
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	config.Config.Namespace = ns
	cfg, err := config.Load()
	if err != nil {
		log.Debugf("config not loaded: %v", err)
		cfg = config.Config
	}

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
		Shell:       os.Getenv("SHELL"),
	}

	app := &cli.Command{
		Name:  "dpcviz",
		Usage: "Italian COVID-19 charts from the Protezione Civile data",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "dpcviz version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		DatasetCommandBuilder(app, meta),
		TableCommandBuilder(app, meta),
		ChartCommandBuilder(app, meta),
		OverviewCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
