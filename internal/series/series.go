// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package series

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultIndexName is the index label used by the pcm-dpc files.
const DefaultIndexName = "data"

// Series is a named, date indexed run of float values. NaN marks an
// undefined value. Operations never mutate the receiver.
type Series struct {
	Name      string
	IndexName string
	Index     []time.Time
	Values    []float64
}

// New builds a Series. index and values must have the same length.
func New(name string, index []time.Time, values []float64) Series {
	return Series{
		Name:      name,
		IndexName: DefaultIndexName,
		Index:     index,
		Values:    values,
	}
}

func (s Series) Len() int {
	return len(s.Values)
}

// Rename returns a copy of s carrying name.
func (s Series) Rename(name string) Series {
	s.Name = name
	return s
}

func (s Series) withValues(values []float64) Series {
	return Series{Name: s.Name, IndexName: s.IndexName, Index: s.Index, Values: values}
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Shift moves values n positions later in time; the first n positions become
// NaN. A negative n shifts towards earlier positions.
func (s Series) Shift(n int) Series {
	out := nans(len(s.Values))
	for i := range s.Values {
		j := i - n
		if j >= 0 && j < len(s.Values) {
			out[i] = s.Values[j]
		}
	}
	return s.withValues(out)
}

// Sub subtracts o element by element. Both operands share the index of s;
// positions missing from o are NaN.
func (s Series) Sub(o Series) Series {
	return s.zip(o, func(a, b float64) float64 { return a - b })
}

// Div divides by o element by element, following IEEE semantics for zero
// divisors.
func (s Series) Div(o Series) Series {
	return s.zip(o, func(a, b float64) float64 { return a / b })
}

func (s Series) zip(o Series, fn func(a, b float64) float64) Series {
	out := nans(len(s.Values))
	for i, a := range s.Values {
		if i < len(o.Values) {
			out[i] = fn(a, o.Values[i])
		}
	}
	return s.withValues(out)
}

// Diff is the first difference: value minus previous value.
func (s Series) Diff() Series {
	return s.Sub(s.Shift(1))
}

// bounds returns the inclusive window [lo, hi] for label i. A centered window
// puts the label in the middle, leaning left for even widths.
func bounds(i, window int, center bool) (int, int) {
	hi := i
	if center {
		hi = i + (window-1)/2
	}
	return hi - window + 1, hi
}

func (s Series) rolling(window int, center bool, agg func([]float64) float64) Series {
	n := len(s.Values)
	out := nans(n)
	if window <= 0 {
		return s.withValues(out)
	}
	for i := 0; i < n; i++ {
		lo, hi := bounds(i, window, center)
		if lo < 0 || hi >= n {
			continue
		}
		w := s.Values[lo : hi+1]
		if floats.HasNaN(w) {
			continue
		}
		out[i] = agg(w)
	}
	return s.withValues(out)
}

// RollingMean is the mean over a full window; incomplete windows and windows
// holding a NaN yield NaN.
func (s Series) RollingMean(window int, center bool) Series {
	return s.rolling(window, center, func(w []float64) float64 {
		return stat.Mean(w, nil)
	})
}

// RollingMedian is the median over a full window. Even widths average the two
// middle values.
func (s Series) RollingMedian(window int, center bool) Series {
	return s.rolling(window, center, func(w []float64) float64 {
		sorted := make([]float64, len(w))
		copy(sorted, w)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid]
		}
		return (sorted[mid-1] + sorted[mid]) / 2
	})
}

// EWMMean is the bias adjusted exponentially weighted mean with decay given
// in terms of center of mass: alpha = 1 / (1 + com). Output is NaN until the
// first observation; a NaN input keeps the previous mean while its weight
// keeps decaying.
func (s Series) EWMMean(com float64) Series {
	n := len(s.Values)
	out := nans(n)
	if n == 0 || com < 0 {
		return s.withValues(out)
	}

	decay := 1 - 1/(1+com)
	weighted := s.Values[0]
	oldWeight := 1.0
	out[0] = weighted

	for i := 1; i < n; i++ {
		cur := s.Values[i]
		observed := !math.IsNaN(cur)
		switch {
		case !math.IsNaN(weighted):
			oldWeight *= decay
			if observed {
				if weighted != cur {
					weighted = (oldWeight*weighted + cur) / (oldWeight + 1)
				}
				oldWeight++
			}
		case observed:
			weighted = cur
		}
		out[i] = weighted
	}
	return s.withValues(out)
}

// Bounds returns the first and last index values.
func (s Series) Bounds() (time.Time, time.Time, bool) {
	if len(s.Index) == 0 {
		return time.Time{}, time.Time{}, false
	}
	lo, hi := s.Index[0], s.Index[0]
	for _, t := range s.Index[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	return lo, hi, true
}

// Finite returns the points whose value is neither NaN nor infinite.
func (s Series) Finite() ([]time.Time, []float64) {
	xs := make([]time.Time, 0, len(s.Values))
	ys := make([]float64, 0, len(s.Values))
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || i >= len(s.Index) {
			continue
		}
		xs = append(xs, s.Index[i])
		ys = append(ys, v)
	}
	return xs, ys
}

// ResampleDaily returns one value per calendar day from the first to the
// last day of the index. Each day takes its chronologically last non-NaN
// value; days without one are NaN.
func (s Series) ResampleDaily() Series {
	days, groups := DailyGroups(s.Index)
	out := nans(len(days))
	for d, rows := range groups {
		for _, r := range rows {
			if !math.IsNaN(s.Values[r]) {
				out[d] = s.Values[r]
			}
		}
	}
	return Series{Name: s.Name, IndexName: s.IndexName, Index: days, Values: out}
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DailyGroups buckets the positions of index by calendar day. The returned
// days run contiguously from the first to the last day; each group lists row
// positions in chronological order (ties keep their original order).
func DailyGroups(index []time.Time) ([]time.Time, [][]int) {
	if len(index) == 0 {
		return nil, nil
	}

	order := make([]int, len(index))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return index[order[a]].Before(index[order[b]])
	})

	first := Day(index[order[0]])
	last := Day(index[order[len(order)-1]])

	var days []time.Time
	pos := map[time.Time]int{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		pos[d] = len(days)
		days = append(days, d)
	}

	groups := make([][]int, len(days))
	for _, r := range order {
		d := pos[Day(index[r])]
		groups[d] = append(groups[d], r)
	}
	return days, groups
}
