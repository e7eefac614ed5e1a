// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/apex/log"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/staranto/dpcviz/internal/series"
)

// UpdatedLayout formats the last-modified stamp appended to titles.
const UpdatedLayout = "02/01/2006 15:04:05"

const (
	DefaultDeltaWindow    = 7
	DefaultGrowthLookback = 35
	DefaultGrowthWindow   = 3
)

// DefaultSize is the standalone canvas size.
var DefaultSize = Size{Width: 1600, Height: 1000}

// ErrEmptySeries is returned when a series has no index to plot against.
var ErrEmptySeries = errors.New("series has no data points")

// SeriesChart renders the level, delta and growth factor views of a single
// series.
type SeriesChart struct {
	series       series.Series
	lastModified time.Time
	figDir       string
	csvDir       string
	size         Size
}

type Option func(*SeriesChart)

// WithFigDir sets the directory images are saved to.
func WithFigDir(dir string) Option {
	return func(c *SeriesChart) { c.figDir = dir }
}

// WithCSVDir sets the directory CSV files are saved to.
func WithCSVDir(dir string) Option {
	return func(c *SeriesChart) { c.csvDir = dir }
}

func WithSize(size Size) Option {
	return func(c *SeriesChart) { c.size = size }
}

// New wraps s. A zero lastModified means the timestamp is unknown; titles
// then carry no update line and saving fails with ErrNoTimestamp.
func New(s series.Series, lastModified time.Time, opts ...Option) *SeriesChart {
	c := &SeriesChart{series: s, lastModified: lastModified, size: DefaultSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SeriesChart) Series() series.Series {
	return c.series
}

// Title appends the update stamp when the timestamp is known.
func (c *SeriesChart) Title(title string) string {
	return Title(title, c.lastModified)
}

// Title appends "\n(dati aggiornati: DD/MM/YYYY HH:MM:SS)" to title unless t
// is zero.
func Title(title string, t time.Time) string {
	if t.IsZero() {
		return title
	}
	return fmt.Sprintf("%s\n(dati aggiornati: %s)", title, t.Format(UpdatedLayout))
}

// Diff is the first difference of the series.
func (c *SeriesChart) Diff() series.Series {
	return c.series.Diff()
}

// RenderOptions are shared by every view.
type RenderOptions struct {
	SaveImage bool
	SaveCSV   bool

	// Size overrides the chart size. Ignored when drawing into a Panel.
	Size Size

	// Format is the standalone image format, png or svg. Default png.
	Format string

	// Panel, when set, receives the rendered chart instead of a standalone
	// canvas. SaveImage is then left to the owner of the Figure.
	Panel *Panel
}

type DeltaOptions struct {
	RenderOptions
	ZeroMin bool
	Window  int
}

type GrowthOptions struct {
	RenderOptions
	Lookback int
	Window   int
	Raw      bool
	SMA      bool
	EMA      bool
	SMD      bool
	YLim     *[2]float64
}

// DefaultGrowthOptions draws the raw factor with the centered and
// exponential means.
func DefaultGrowthOptions() GrowthOptions {
	return GrowthOptions{
		Lookback: DefaultGrowthLookback,
		Window:   DefaultGrowthWindow,
		Raw:      true,
		SMA:      true,
		EMA:      true,
	}
}

// Plot is the outcome of one view.
type Plot struct {
	Kind  Kind
	Title string
	Data  series.Frame
	Image Artifact
	CSV   Artifact
}

// Level draws the series as a line with weekly ticks over its full date span.
func (c *SeriesChart) Level(title string, opts RenderOptions) (*Plot, error) {
	lo, hi, ok := c.series.Bounds()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmptySeries, c.series.Name)
	}

	line := lineSeries(c.series, gochart.Style{StrokeColor: colorBlue, StrokeWidth: 2})
	ymin, ymax := yLimits(false, nil, line.YValues)

	p := &Plot{Kind: KindSeries, Title: c.Title(title), Data: c.series.Frame()}
	ch := baseChart(p.Title, c.sizeFor(opts))
	ch.XAxis = timeAxis(lo, hi, stepWeek, true)
	ch.YAxis = valueAxis(ymin, ymax, countFormatter)
	ch.Series = withAnchor(lo, hi, ymin, line)

	return p, c.finish(&ch, p, opts)
}

// Delta draws the daily differences as bars with a centered rolling mean on
// top. The x range is shifted half a day so the bars sit inside it.
func (c *SeriesChart) Delta(title string, opts DeltaOptions) (*Plot, error) {
	window := opts.Window
	if window < 0 {
		return nil, fmt.Errorf("invalid rolling window %d", window)
	}
	if window == 0 {
		window = DefaultDeltaWindow
	}

	lo, hi, ok := c.series.Bounds()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmptySeries, c.series.Name)
	}
	half := 12 * time.Hour //nolint:mnd
	lo, hi = lo.Add(half), hi.Add(half)

	diff := c.Diff()
	mean := diff.RollingMean(window, true).Rename(fmt.Sprintf("%s (media %d giorni)", c.series.Name, window))

	bars := lineSeries(diff, gochart.Style{
		FillColor:   colorBlue.WithAlpha(190), //nolint:mnd
		StrokeColor: colorBlue,
		StrokeWidth: 1,
	})
	trend := lineSeries(mean, gochart.Style{StrokeColor: colorRed, StrokeWidth: 2})
	ymin, ymax := yLimits(opts.ZeroMin, nil, bars.YValues, trend.YValues)

	p := &Plot{Kind: KindNew, Title: c.Title(title), Data: diff.Frame()}
	ch := baseChart(p.Title, c.sizeFor(opts.RenderOptions))
	ch.XAxis = timeAxis(lo, hi, stepMonth, false)
	ch.YAxis = valueAxis(ymin, ymax, countFormatter)

	var drawn []gochart.Series
	if !isEmpty(bars) {
		drawn = append(drawn, gochart.HistogramSeries{Name: diff.Name, Style: bars.Style, InnerSeries: bars})
	}
	if !isEmpty(trend) {
		drawn = append(drawn, trend)
	}
	ch.Series = append([]gochart.Series{anchor(lo, hi, ymin)}, drawn...)

	return p, c.finish(&ch, p, opts.RenderOptions)
}

// ActiveWindow is s minus s shifted by lookback: the amount accumulated over
// the trailing lookback positions.
func ActiveWindow(s series.Series, lookback int) series.Series {
	return s.Sub(s.Shift(lookback))
}

// GrowthFactor is the ratio between consecutive values of the active window.
// Positions where either operand is undefined are NaN.
func GrowthFactor(s series.Series, lookback int) series.Series {
	active := ActiveWindow(s, lookback)
	return active.Div(active.Shift(1))
}

// GrowthFactor draws the growth factor with its optional smoothings and a
// reference line at 1.0.
func (c *SeriesChart) GrowthFactor(title string, opts GrowthOptions) (*Plot, error) {
	if opts.Lookback < 0 || opts.Window < 0 {
		return nil, fmt.Errorf("invalid lookback %d or window %d", opts.Lookback, opts.Window)
	}
	if opts.Lookback == 0 {
		opts.Lookback = DefaultGrowthLookback
	}
	if opts.Window == 0 {
		opts.Window = DefaultGrowthWindow
	}

	lo, hi, ok := c.series.Bounds()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmptySeries, c.series.Name)
	}

	name := c.series.Name
	w := opts.Window
	gf := GrowthFactor(c.series, opts.Lookback).Rename(name)
	sma := gf.RollingMean(w, true).Rename(fmt.Sprintf("%s (SMA %d giorni)", name, w))
	ema := gf.EWMMean(float64(w)).Rename(fmt.Sprintf("%s (EMA %d giorni)", name, w))
	smd := gf.RollingMedian(w, false).Rename(fmt.Sprintf("%s (SMD %d giorni)", name, w))

	var lines []gochart.TimeSeries
	if opts.Raw {
		lines = append(lines, lineSeries(gf, gochart.Style{StrokeColor: colorBlue, StrokeWidth: 1.5})) //nolint:mnd
	}
	if opts.SMA {
		lines = append(lines, lineSeries(sma, gochart.Style{StrokeColor: colorRed, StrokeWidth: 2}))
	}
	if opts.EMA {
		lines = append(lines, lineSeries(ema, gochart.Style{StrokeColor: colorOrange, StrokeWidth: 1.5})) //nolint:mnd
	}
	if opts.SMD {
		lines = append(lines, lineSeries(smd, gochart.Style{StrokeColor: colorGreen, StrokeWidth: 1.5})) //nolint:mnd
	}

	ys := [][]float64{{1.0}}
	for _, l := range lines {
		ys = append(ys, l.YValues)
	}
	ymin, ymax := yLimits(false, opts.YLim, ys...)

	p := &Plot{Kind: KindGrowth, Title: c.Title(title), Data: series.NewFrame(gf, sma, ema)}
	ch := baseChart(p.Title, c.sizeFor(opts.RenderOptions))
	ch.XAxis = timeAxis(lo, hi, stepMonth, true)
	ch.YAxis = valueAxis(ymin, ymax, ratioFormatter)
	ch.Series = withAnchor(lo, hi, ymin, lines...)
	ch.Elements = append(ch.Elements, referenceLine(1.0, ymin, ymax), gochart.Legend(&ch))

	return p, c.finish(&ch, p, opts.RenderOptions)
}

func withAnchor(lo, hi time.Time, y float64, lines ...gochart.TimeSeries) []gochart.Series {
	out := []gochart.Series{anchor(lo, hi, y)}
	for _, l := range lines {
		if !isEmpty(l) {
			out = append(out, l)
		}
	}
	return out
}

// referenceLine draws a dashed horizontal line at y across the plot area.
func referenceLine(y, ymin, ymax float64) gochart.Renderable {
	return func(r gochart.Renderer, cb gochart.Box, _ gochart.Style) {
		if y < ymin || y > ymax || ymax <= ymin {
			return
		}
		py := cb.Bottom - int((y-ymin)/(ymax-ymin)*float64(cb.Height()))
		r.SetStrokeColor(colorRed)
		r.SetStrokeWidth(1)
		r.SetStrokeDashArray([]float64{5, 5})
		r.MoveTo(cb.Left, py)
		r.LineTo(cb.Right, py)
		r.Stroke()
		r.SetStrokeDashArray(nil)
	}
}

func (c *SeriesChart) sizeFor(opts RenderOptions) Size {
	switch {
	case opts.Panel != nil:
		return opts.Panel.Size()
	case !opts.Size.IsZero():
		return opts.Size
	default:
		return c.size
	}
}

// finish renders ch once and routes the bytes to the panel or to disk.
func (c *SeriesChart) finish(ch *gochart.Chart, p *Plot, opts RenderOptions) error {
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" || opts.Panel != nil {
		format = "png"
	}

	provider := gochart.PNG
	switch format {
	case "png":
	case "svg":
		provider = gochart.SVG
	default:
		return fmt.Errorf("unsupported chart format %q", opts.Format)
	}

	var buf bytes.Buffer
	if err := ch.Render(provider, &buf); err != nil {
		return fmt.Errorf("failed to render %s chart for %s: %w", p.Kind, c.series.Name, err)
	}
	log.Debugf("rendered %s chart for %s (%d bytes)", p.Kind, c.series.Name, buf.Len())

	if opts.Panel != nil {
		img, err := png.Decode(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return fmt.Errorf("failed to decode %s panel: %w", p.Kind, err)
		}
		opts.Panel.place(img)
	} else if opts.SaveImage {
		a, err := persist(c.figDir, c.series.Name, p.Kind, c.lastModified, format, func(w io.Writer) error {
			_, err := w.Write(buf.Bytes())
			return err
		})
		if err != nil {
			return err
		}
		logSaved("Figure", a)
		p.Image = a
	}

	if opts.SaveCSV {
		a, err := persist(c.csvDir, c.series.Name, p.Kind, c.lastModified, "csv", p.Data.WriteCSV)
		if err != nil {
			return err
		}
		logSaved("Data", a)
		p.CSV = a
	}
	return nil
}
