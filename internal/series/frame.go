// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// Frame is a set of series sharing one index. It is the unit written to CSV.
type Frame struct {
	IndexName string
	Index     []time.Time
	Columns   []Series
}

// NewFrame builds a Frame from columns that share the index of the first one.
func NewFrame(columns ...Series) Frame {
	f := Frame{IndexName: DefaultIndexName, Columns: columns}
	if len(columns) > 0 {
		f.Index = columns[0].Index
		if columns[0].IndexName != "" {
			f.IndexName = columns[0].IndexName
		}
	}
	return f
}

// Frame wraps s in a single column Frame.
func (s Series) Frame() Frame {
	return NewFrame(s)
}

// Column looks a column up by name.
func (f Frame) Column(name string) (Series, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Series{}, false
}

// Tail returns a Frame holding the last n rows. n <= 0 keeps every row.
func (f Frame) Tail(n int) Frame {
	if n <= 0 || n >= len(f.Index) {
		return f
	}
	start := len(f.Index) - n
	out := Frame{IndexName: f.IndexName, Index: f.Index[start:]}
	for _, c := range f.Columns {
		c.Index = c.Index[start:]
		c.Values = c.Values[start:]
		out.Columns = append(out.Columns, c)
	}
	return out
}

// WriteCSV writes a header row (index name, then column names) followed by one
// row per index entry. Undefined values are written as empty cells.
func (f Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{f.IndexName}
	for _, c := range f.Columns {
		header = append(header, c.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	layout := IndexLayout(f.Index)
	for i, t := range f.Index {
		row := []string{t.Format(layout)}
		for _, c := range f.Columns {
			v := math.NaN()
			if i < len(c.Values) {
				v = c.Values[i]
			}
			row = append(row, FormatValue(v))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// IndexLayout picks a date-only layout when every entry is at midnight.
func IndexLayout(index []time.Time) string {
	for _, t := range index {
		if !t.Equal(Day(t)) {
			return "2006-01-02 15:04:05"
		}
	}
	return "2006-01-02"
}

// FormatValue renders v for CSV output.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
