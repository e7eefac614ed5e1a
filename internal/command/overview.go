// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/chart"
	"github.com/staranto/dpcviz/internal/config"
	"github.com/staranto/dpcviz/internal/dataset"
	"github.com/staranto/dpcviz/internal/meta"
	"github.com/staranto/dpcviz/internal/overview"
	"github.com/staranto/dpcviz/internal/table"
)

// OverviewCommandAction renders the 3x3 dashboard for every AREA argument.
// Without arguments the areas come from overview.areas in the config file.
func OverviewCommandAction(ctx context.Context, cmd *cli.Command) error {
	if m := GetMeta(cmd); len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, "overview") {
		return nil
	}

	areas := cmd.Args().Slice()
	if len(areas) == 0 {
		areas, _ = config.GetStringSlice("overview.areas", []string{NationalArea})
	}

	// One descriptor per file so areas sharing the regional file fetch it once.
	sets := map[string]*dataset.Dataset{}
	w := writer(cmd)
	var artifacts []chart.Artifact

	for _, area := range areas {
		path := RegionalPath
		if area == NationalArea {
			path = NationalPath
		}
		ds, ok := sets[path]
		if !ok {
			var err error
			if ds, err = newDataset(cmd, path); err != nil {
				return err
			}
			sets[path] = ds
		}

		lastModified, err := ds.LastModified(ctx)
		if err != nil {
			return err
		}
		tbl, err := ds.Table(ctx)
		if err != nil {
			return err
		}
		if path == RegionalPath {
			if tbl, err = areaRows(tbl, area); err != nil {
				return err
			}
		}

		d, err := overview.New(area, tbl, lastModified,
			overview.WithFigDir(cmd.String("fig-dir")),
			overview.WithSize(sizeFlags(cmd, overview.DefaultSize)),
		)
		if err != nil {
			return err
		}
		res, err := d.Render(cmd.Bool("save-fig"))
		if err != nil {
			return err
		}

		if res.Image.IsZero() {
			fmt.Fprintf(w, "%s: rendered %d panels; use --save-fig to keep them\n", area, res.Figure.PanelCount())
			continue
		}
		reportArtifacts(w, res.Image)
		artifacts = append(artifacts, res.Image)
	}

	return publishArtifacts(ctx, cmd, artifacts...)
}

func areaRows(tbl *table.Table, area string) (*table.Table, error) {
	rows, err := tbl.Where(regionColumn, area)
	if err != nil {
		return nil, err
	}
	if rows.Len() == 0 {
		return nil, fmt.Errorf("no rows for area %q", area)
	}
	return rows, nil
}

// OverviewCommandBuilder constructs the cli.Command definition for the
// "overview" command.
func OverviewCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := []cli.Flag{tldrFlag}
	for _, f := range NewDatasetFlags("overview", NationalPath) {
		// The file is chosen from the area.
		if n := f.Names()[0]; n == "path" || n == "where" {
			continue
		}
		flags = append(flags, f)
	}
	flags = append(flags, NewRenderFlags("overview")...)
	flags = append(flags, NewPublishFlags("overview")...)

	return &cli.Command{
		Name:      "overview",
		Usage:     "render the 3x3 dashboard of an area",
		UsageText: `dpcviz overview [AREA...] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: OverviewCommandAction,
	}
}
