// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/staranto/dpcviz/internal/series"
)

// Palette follows the usual tab10 ordering.
var (
	colorBlue   = drawing.ColorFromHex("1f77b4")
	colorOrange = drawing.ColorFromHex("ff7f0e")
	colorGreen  = drawing.ColorFromHex("2ca02c")
	colorRed    = drawing.ColorFromHex("d62728")
	colorGrid   = drawing.ColorFromHex("dddddd")
	colorMinor  = drawing.ColorFromHex("f0f0f0")
)

// tickStep selects the spacing of major ticks on a time axis.
type tickStep int

const (
	stepWeek tickStep = iota
	stepMonth
)

const day = 24 * time.Hour

// majorTicks returns labelled ticks between lo and hi. Weekly ticks start at
// lo; monthly ticks sit on the first of each month.
func majorTicks(lo, hi time.Time, step tickStep) []gochart.Tick {
	var ticks []gochart.Tick
	switch step {
	case stepMonth:
		t := time.Date(lo.Year(), lo.Month(), 1, 0, 0, 0, 0, lo.Location())
		if t.Before(lo) {
			t = t.AddDate(0, 1, 0)
		}
		for ; !t.After(hi); t = t.AddDate(0, 1, 0) {
			ticks = append(ticks, gochart.Tick{Value: gochart.TimeToFloat64(t), Label: t.Format("01/2006")})
		}
	default:
		for t := lo; !t.After(hi); t = t.AddDate(0, 0, 7) {
			ticks = append(ticks, gochart.Tick{Value: gochart.TimeToFloat64(t), Label: t.Format("02/01")})
		}
	}
	// go-chart needs at least two ticks to lay out the axis.
	if len(ticks) < 2 {
		ticks = []gochart.Tick{
			{Value: gochart.TimeToFloat64(lo), Label: lo.Format("02/01")},
			{Value: gochart.TimeToFloat64(hi), Label: hi.Format("02/01")},
		}
	}
	return ticks
}

// dailyGridLines marks every day as a minor line and every major tick as a
// major line.
func dailyGridLines(lo, hi time.Time, ticks []gochart.Tick) []gochart.GridLine {
	var lines []gochart.GridLine
	for t := lo; !t.After(hi); t = t.Add(day) {
		lines = append(lines, gochart.GridLine{IsMinor: true, Value: gochart.TimeToFloat64(t)})
	}
	for _, tk := range ticks {
		lines = append(lines, gochart.GridLine{Value: tk.Value})
	}
	return lines
}

// timeAxis builds an x axis clamped to [lo, hi].
func timeAxis(lo, hi time.Time, step tickStep, grid bool) gochart.XAxis {
	if !hi.After(lo) {
		hi = lo.Add(day)
	}
	ticks := majorTicks(lo, hi, step)
	xa := gochart.XAxis{
		Range: &gochart.ContinuousRange{Min: gochart.TimeToFloat64(lo), Max: gochart.TimeToFloat64(hi)},
		Ticks: ticks,
		GridMajorStyle: gochart.Style{
			StrokeColor: colorGrid,
			StrokeWidth: 1.0,
			Hidden:      !grid,
		},
		GridMinorStyle: gochart.Style{
			StrokeColor: colorMinor,
			StrokeWidth: 0.5, //nolint:mnd
			Hidden:      !grid,
		},
	}
	if grid {
		xa.GridLines = dailyGridLines(lo, hi, ticks)
	}
	return xa
}

// yLimits derives a padded value range over every finite value in cols.
// zeroMin clamps the lower bound to 0; a non-nil lim wins over both.
func yLimits(zeroMin bool, lim *[2]float64, cols ...[]float64) (float64, float64) {
	if lim != nil {
		return lim[0], lim[1]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, col := range cols {
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		lo, hi = 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05 //nolint:mnd
	lo, hi = lo-pad, hi+pad
	if zeroMin {
		lo = 0
	}
	return lo, hi
}

// valueTicks generates roughly n ticks between lo and hi on 1, 2, 2.5, 5
// multiples of a power of ten.
func valueTicks(lo, hi float64, n int, format gochart.ValueFormatter) []gochart.Tick {
	span := hi - lo
	if span <= 0 || n < 2 {
		return nil
	}
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	step := mag
	best := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		count := math.Ceil(span / (c * mag))
		if score := math.Abs(count - float64(n)); score < best {
			best, step = score, c*mag
		}
	}

	var ticks []gochart.Tick
	for v := math.Ceil(lo/step) * step; v <= hi+step/1e6; v += step {
		ticks = append(ticks, gochart.Tick{Value: v, Label: format(v)})
	}
	if len(ticks) < 2 {
		ticks = []gochart.Tick{{Value: lo, Label: format(lo)}, {Value: hi, Label: format(hi)}}
	}
	return ticks
}

func valueAxis(lo, hi float64, format gochart.ValueFormatter) gochart.YAxis {
	return gochart.YAxis{
		Range:          &gochart.ContinuousRange{Min: lo, Max: hi},
		Ticks:          valueTicks(lo, hi, 6, format), //nolint:mnd
		ValueFormatter: format,
		GridMajorStyle: gochart.Style{StrokeColor: colorGrid, StrokeWidth: 1.0},
		GridMinorStyle: gochart.Style{Hidden: true},
	}
}

func countFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprint(v)
	}
	if f == math.Trunc(f) {
		return humanize.Comma(int64(f))
	}
	return humanize.CommafWithDigits(f, 1)
}

func ratioFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}

// lineSeries drops non-finite points; go-chart cannot draw them.
func lineSeries(s series.Series, style gochart.Style) gochart.TimeSeries {
	xs, ys := s.Finite()
	return gochart.TimeSeries{Name: s.Name, XValues: xs, YValues: ys, Style: style}
}

// anchor is an invisible two point series spanning the x range. go-chart
// refuses to render a chart with no drawable series.
func anchor(lo, hi time.Time, y float64) gochart.TimeSeries {
	return gochart.TimeSeries{
		Name:    "anchor",
		XValues: []time.Time{lo, hi},
		YValues: []float64{y, y},
		Style:   gochart.Style{Hidden: true},
	}
}

func isEmpty(s gochart.TimeSeries) bool {
	return len(s.XValues) == 0
}

// titleLines is the top padding needed for a title of n lines at size pt.
func titleLines(title string, size float64) int {
	if title == "" {
		return 20 //nolint:mnd
	}
	n := len(strings.Split(title, "\n"))
	return 20 + int(float64(n)*size*1.6) //nolint:mnd
}

// titleElement draws a multi-line centered title; go-chart's own title is a
// single line.
func titleElement(title string, size float64) gochart.Renderable {
	return func(r gochart.Renderer, cb gochart.Box, defaults gochart.Style) {
		if title == "" {
			return
		}
		r.SetFont(defaults.GetFont())
		r.SetFontSize(size)
		r.SetFontColor(drawing.ColorBlack)

		y := int(size * 1.6) //nolint:mnd
		for _, line := range strings.Split(title, "\n") {
			box := r.MeasureText(line)
			x := (cb.Left+cb.Right)/2 - box.Width()/2 //nolint:mnd
			r.Text(line, x, y)
			y += int(size * 1.6) //nolint:mnd
		}
	}
}

// baseChart holds the layout shared by every view.
func baseChart(title string, size Size) gochart.Chart {
	const fontSize = 12.0
	return gochart.Chart{
		Width:  size.Width,
		Height: size.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: titleLines(title, fontSize), Left: 16, Right: 24, Bottom: 12},
		},
		Elements: []gochart.Renderable{titleElement(title, fontSize)},
	}
}
