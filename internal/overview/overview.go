// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package overview

import (
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/staranto/dpcviz/internal/chart"
	"github.com/staranto/dpcviz/internal/table"
)

// DefaultSize is the composed figure size.
var DefaultSize = chart.Size{Width: 2000, Height: 1600}

// Row describes one dashboard row: the source column, the series label
// prefix and the word inserted in the panel titles.
type Row struct {
	Column    string
	Label     string
	Qualifier string

	// ZeroMin clamps the delta panel at zero.
	ZeroMin bool
}

// Rows are drawn top to bottom.
var Rows = []Row{
	{Column: "totale_casi", Label: "totali", ZeroMin: true},
	{Column: "deceduti", Label: "deceduti", Qualifier: "deceduti", ZeroMin: true},
	{Column: "terapia_intensiva", Label: "terapia intensiva", Qualifier: "in terapia intensiva"},
}

// Dashboard is the 3x3 overview of one area.
type Dashboard struct {
	Area         string
	LastModified time.Time

	figDir string
	size   chart.Size
	charts []*chart.SeriesChart
}

type Option func(*Dashboard)

func WithFigDir(dir string) Option {
	return func(d *Dashboard) { d.figDir = dir }
}

func WithSize(size chart.Size) Option {
	return func(d *Dashboard) { d.size = size }
}

// New extracts the three dashboard series from t, resampled to one value per
// day. The per-row charts carry no timestamp; only the figure title does.
func New(area string, t *table.Table, lastModified time.Time, opts ...Option) (*Dashboard, error) {
	d := &Dashboard{Area: area, LastModified: lastModified, size: DefaultSize}
	for _, opt := range opts {
		opt(d)
	}

	for _, row := range Rows {
		s, err := t.Column(row.Column)
		if err != nil {
			return nil, fmt.Errorf("overview of %s: %w", area, err)
		}
		s = s.ResampleDaily().Rename(fmt.Sprintf("%s %s", row.Label, area))
		d.charts = append(d.charts, chart.New(s, time.Time{}))
	}
	return d, nil
}

// Charts returns the per-row charts in row order.
func (d *Dashboard) Charts() []*chart.SeriesChart {
	return d.charts
}

// Title is the figure title.
func (d *Dashboard) Title() string {
	return chart.Title("Situazione COVID-19 in "+d.Area, d.LastModified)
}

// Result is a rendered dashboard.
type Result struct {
	Figure *chart.Figure
	Plots  []*chart.Plot
	Image  chart.Artifact
}

func phrase(prefix string, row Row, area string) string {
	if row.Qualifier == "" {
		return fmt.Sprintf("%s in %s", prefix, area)
	}
	return fmt.Sprintf("%s %s in %s", prefix, row.Qualifier, area)
}

// Render draws level, delta and growth factor for each row. With persist the
// figure is saved as {area}-overview-{YYYYMMDD}.png and {area}-overview.png.
func (d *Dashboard) Render(persist bool) (*Result, error) {
	fig := chart.NewFigure(len(Rows), 3, d.size) //nolint:mnd
	fig.Title = d.Title()
	res := &Result{Figure: fig}

	for i, row := range Rows {
		c := d.charts[i]

		level, err := fig.Panel(i, 0)
		if err != nil {
			return nil, err
		}
		p, err := c.Level(phrase("Casi", row, d.Area), chart.RenderOptions{Panel: level})
		if err != nil {
			return nil, err
		}
		res.Plots = append(res.Plots, p)

		delta, err := fig.Panel(i, 1)
		if err != nil {
			return nil, err
		}
		p, err = c.Delta(phrase("Nuovi casi giornalieri", row, d.Area), chart.DeltaOptions{
			RenderOptions: chart.RenderOptions{Panel: delta},
			ZeroMin:       row.ZeroMin,
		})
		if err != nil {
			return nil, err
		}
		res.Plots = append(res.Plots, p)

		growth, err := fig.Panel(i, 2) //nolint:mnd
		if err != nil {
			return nil, err
		}
		opts := chart.DefaultGrowthOptions()
		opts.SMA = false
		opts.YLim = &[2]float64{0, 2}
		opts.Panel = growth
		p, err = c.GrowthFactor(phrase("Tasso di crescita dei casi", row, d.Area), opts)
		if err != nil {
			return nil, err
		}
		res.Plots = append(res.Plots, p)
	}
	log.Debugf("overview of %s composed with %d panels", d.Area, fig.PanelCount())

	if persist {
		a, err := fig.Save(d.figDir, d.Area, chart.KindOverview, d.LastModified, "png")
		if err != nil {
			return nil, err
		}
		res.Image = a
	}
	return res, nil
}
