// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/chart"
	"github.com/staranto/dpcviz/internal/meta"
)

var chartViews = []string{"level", "delta", "growth"}

// ChartCommandAction renders the level, delta and growth factor views of one
// column.
func ChartCommandAction(ctx context.Context, cmd *cli.Command) error {
	if m := GetMeta(cmd); len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, "chart") {
		return nil
	}

	views, err := parseViews(cmd.String("views"))
	if err != nil {
		return err
	}
	ylim, err := parseYLim(cmd.String("ylim"))
	if err != nil {
		return err
	}

	ds, err := newDataset(cmd, cmd.String("path"))
	if err != nil {
		return err
	}
	lastModified, err := ds.LastModified(ctx)
	if err != nil {
		return err
	}
	tbl, area, err := loadTable(ctx, cmd, ds)
	if err != nil {
		return err
	}

	column := cmd.String("column")
	s, err := tbl.Column(column)
	if err != nil {
		return err
	}

	name := cmd.String("name")
	if name == "" {
		name = strings.TrimSpace(column + " " + area)
	}
	s = s.Rename(name)

	title := cmd.String("title")
	if title == "" {
		title = name
	}

	c := chart.New(s, lastModified,
		chart.WithFigDir(cmd.String("fig-dir")),
		chart.WithCSVDir(cmd.String("csv-dir")),
		chart.WithSize(sizeFlags(cmd, chart.DefaultSize)),
	)

	render := chart.RenderOptions{
		SaveImage: cmd.Bool("save-fig"),
		SaveCSV:   cmd.Bool("save-csv"),
		Format:    cmd.String("format"),
	}

	var plots []*chart.Plot
	for _, view := range views {
		var p *chart.Plot
		switch view {
		case "level":
			p, err = c.Level(title, render)
		case "delta":
			p, err = c.Delta("Variazione giornaliera: "+title, chart.DeltaOptions{
				RenderOptions: render,
				ZeroMin:       cmd.Bool("zero-min"),
				Window:        cmd.Int("window"),
			})
		case "growth":
			opts := chart.GrowthOptions{
				RenderOptions: render,
				Lookback:      cmd.Int("lookback"),
				Window:        cmd.Int("gf-window"),
				Raw:           cmd.Bool("raw"),
				SMA:           cmd.Bool("sma"),
				EMA:           cmd.Bool("ema"),
				SMD:           cmd.Bool("smd"),
				YLim:          ylim,
			}
			p, err = c.GrowthFactor("Tasso di crescita: "+title, opts)
		}
		if err != nil {
			return err
		}
		plots = append(plots, p)
	}

	w := writer(cmd)
	var artifacts []chart.Artifact
	for _, p := range plots {
		artifacts = append(artifacts, p.Image, p.CSV)
	}
	reportArtifacts(w, artifacts...)
	if !render.SaveImage && !render.SaveCSV {
		fmt.Fprintf(w, "rendered %d views of %s; use --save-fig or --save-csv to keep them\n", len(plots), name)
	}

	return publishArtifacts(ctx, cmd, artifacts...)
}

func parseViews(spec string) ([]string, error) {
	if spec == "" {
		return chartViews, nil
	}
	var views []string
	for _, v := range strings.Split(spec, ",") {
		v = strings.TrimSpace(v)
		if err := oneOf(v, chartViews); err != nil {
			return nil, fmt.Errorf("view %q: %w", v, err)
		}
		views = append(views, v)
	}
	return views, nil
}

// parseYLim reads "min,max". Empty means automatic.
func parseYLim(spec string) (*[2]float64, error) {
	if spec == "" {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(spec, ",")
	if !ok {
		return nil, errors.New("ylim must be min,max")
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("ylim: %w", err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("ylim: %w", err)
	}
	if b <= a {
		return nil, errors.New("ylim max must exceed min")
	}
	return &[2]float64{a, b}, nil
}

// ChartCommandBuilder constructs the cli.Command definition for the "chart"
// command.
func ChartCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "column",
			Usage:   "numeric column to chart",
			Sources: configSources("chart", "column"),
			Value:   "totale_casi",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "series name used in titles and file names (default column and where value)",
		},
		&cli.StringFlag{
			Name:    "title",
			Usage:   "chart title (default the series name)",
			Sources: configSources("chart", "title"),
		},
		&cli.StringFlag{
			Name:  "views",
			Usage: "comma-separated views to render: level, delta, growth",
		},
		&cli.BoolFlag{
			Name:    "save-csv",
			Usage:   "save the plotted data under dated and latest names",
			Sources: configSources("chart", "save_csv"),
		},
		&cli.StringFlag{
			Name:    "format",
			Usage:   "image format, png or svg",
			Sources: configSources("chart", "format"),
			Value:   "png",
			Validator: func(value string) error {
				return FlagValidators(value, ImageFormatValidator)
			},
		},
		&cli.BoolFlag{
			Name:  "zero-min",
			Usage: "start the delta y axis at zero",
		},
		&cli.IntFlag{
			Name:    "window",
			Usage:   "delta rolling mean window in days",
			Sources: configSources("chart", "window"),
			Value:   chart.DefaultDeltaWindow,
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.IntFlag{
			Name:    "lookback",
			Usage:   "growth factor active window in days",
			Sources: configSources("chart", "lookback"),
			Value:   chart.DefaultGrowthLookback,
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.IntFlag{
			Name:    "gf-window",
			Usage:   "growth factor smoothing window in days",
			Sources: configSources("chart", "gf_window"),
			Value:   chart.DefaultGrowthWindow,
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.BoolWithInverseFlag{Name: "raw", Usage: "draw the raw growth factor", Value: true},
		&cli.BoolWithInverseFlag{Name: "sma", Usage: "draw the centered moving average", Value: true},
		&cli.BoolWithInverseFlag{Name: "ema", Usage: "draw the exponential moving average", Value: true},
		&cli.BoolWithInverseFlag{Name: "smd", Usage: "draw the trailing moving median", Value: false},
		&cli.StringFlag{
			Name:  "ylim",
			Usage: "growth factor y range as min,max",
		},
		tldrFlag,
	}
	flags = append(flags, NewDatasetFlags("chart", NationalPath)...)
	flags = append(flags, NewRenderFlags("chart")...)
	flags = append(flags, NewPublishFlags("chart")...)

	return &cli.Command{
		Name:      "chart",
		Usage:     "render level, delta and growth factor charts",
		UsageText: `dpcviz chart [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: ChartCommandAction,
	}
}
