// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/dpcviz/internal/series"
)

var (
	// ErrNoColumn is returned when a named column is not in the table.
	ErrNoColumn = errors.New("no such column")
	// ErrNotNumeric is returned when a numeric column was expected.
	ErrNotNumeric = errors.New("column is not numeric")
)

// dateLayouts are tried in order when parsing date columns. Timestamps without
// an offset are read as UTC wall clock.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseOptions mirrors the knobs of the dataset descriptor.
type ParseOptions struct {
	DateColumns  []string
	IndexColumns []string
}

// Table is a date indexed table. Columns whose every non-empty cell is a
// number are numeric (empty cells are NaN); all other columns keep their text.
type Table struct {
	IndexName string
	Index     []time.Time

	order   []string
	numeric map[string][]float64
	text    map[string][]string
}

// ParseDate parses s with the first matching layout.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Parse reads delimited text with a header row. Exactly one index column is
// supported and it must also be listed as a date column.
func Parse(r io.Reader, opts ParseOptions) (*Table, error) {
	if len(opts.IndexColumns) != 1 {
		return nil, fmt.Errorf("exactly one index column is supported, got %v", opts.IndexColumns)
	}
	indexName := opts.IndexColumns[0]
	if !contains(opts.DateColumns, indexName) {
		return nil, fmt.Errorf("index column %q must be a date column", indexName)
	}

	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("failed to read CSV: missing header row")
	}

	header := records[0]
	rows := records[1:]

	for _, dc := range opts.DateColumns {
		if !contains(header, dc) {
			return nil, fmt.Errorf("date column %q: %w", dc, ErrNoColumn)
		}
	}

	t := &Table{
		IndexName: indexName,
		Index:     make([]time.Time, len(rows)),
		numeric:   map[string][]float64{},
		text:      map[string][]string{},
	}

	for c, name := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = row[c]
		}

		if name == indexName {
			for i, cell := range cells {
				ts, err := ParseDate(cell)
				if err != nil {
					return nil, fmt.Errorf("row %d, column %q: %w", i+2, name, err)
				}
				t.Index[i] = ts
			}
			continue
		}

		t.order = append(t.order, name)
		if contains(opts.DateColumns, name) {
			t.text[name] = cells
			continue
		}
		if values, ok := parseNumeric(cells); ok {
			t.numeric[name] = values
		} else {
			t.text[name] = cells
		}
	}

	log.Debugf("parsed table: %d rows, %d columns", len(rows), len(t.order))
	return t, nil
}

func parseNumeric(cells []string) ([]float64, bool) {
	values := make([]float64, len(cells))
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// Len is the row count.
func (t *Table) Len() int {
	return len(t.Index)
}

// Columns lists the non-index columns in file order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Column extracts a numeric column as a Series named after the column.
func (t *Table) Column(name string) (series.Series, error) {
	values, ok := t.numeric[name]
	if !ok {
		if _, isText := t.text[name]; isText {
			return series.Series{}, fmt.Errorf("%q: %w", name, ErrNotNumeric)
		}
		return series.Series{}, fmt.Errorf("%q: %w", name, ErrNoColumn)
	}
	return series.Series{
		Name:      name,
		IndexName: t.IndexName,
		Index:     t.Index,
		Values:    values,
	}, nil
}

// Strings returns the raw cells of a text column.
func (t *Table) Strings(name string) ([]string, error) {
	cells, ok := t.text[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNoColumn)
	}
	return cells, nil
}

// Frame returns every numeric column as one Frame.
func (t *Table) Frame() series.Frame {
	f := series.Frame{IndexName: t.IndexName, Index: t.Index}
	for _, name := range t.order {
		if s, err := t.Column(name); err == nil {
			f.Columns = append(f.Columns, s)
		}
	}
	return f
}

// Where keeps the rows whose text column equals value.
func (t *Table) Where(column, value string) (*Table, error) {
	cells, err := t.Strings(column)
	if err != nil {
		return nil, err
	}
	var keep []int
	for i, cell := range cells {
		if cell == value {
			keep = append(keep, i)
		}
	}
	return t.pick(keep, nil), nil
}

// pick builds a table from row positions. When groups is non-nil each output
// row takes the last defined value among the positions of its group and
// index holds the group labels.
func (t *Table) pick(rows []int, groups *grouping) *Table {
	out := &Table{
		IndexName: t.IndexName,
		order:     t.order,
		numeric:   map[string][]float64{},
		text:      map[string][]string{},
	}

	if groups == nil {
		out.Index = make([]time.Time, len(rows))
		for i, r := range rows {
			out.Index[i] = t.Index[r]
		}
		for name, values := range t.numeric {
			col := make([]float64, len(rows))
			for i, r := range rows {
				col[i] = values[r]
			}
			out.numeric[name] = col
		}
		for name, cells := range t.text {
			col := make([]string, len(rows))
			for i, r := range rows {
				col[i] = cells[r]
			}
			out.text[name] = col
		}
		return out
	}

	out.Index = groups.days
	for name, values := range t.numeric {
		col := make([]float64, len(groups.days))
		for d, members := range groups.rows {
			col[d] = math.NaN()
			for _, r := range members {
				if !math.IsNaN(values[r]) {
					col[d] = values[r]
				}
			}
		}
		out.numeric[name] = col
	}
	for name, cells := range t.text {
		col := make([]string, len(groups.days))
		for d, members := range groups.rows {
			for _, r := range members {
				if cells[r] != "" {
					col[d] = cells[r]
				}
			}
		}
		out.text[name] = col
	}
	return out
}

type grouping struct {
	days []time.Time
	rows [][]int
}

// ResampleDaily returns a table with exactly one row per calendar day between
// the first and last index day. Each column takes the chronologically last
// defined value of the day; days with no rows are undefined.
func (t *Table) ResampleDaily() *Table {
	days, rows := series.DailyGroups(t.Index)
	return t.pick(nil, &grouping{days: days, rows: rows})
}

// Records returns one map per row keyed by column name, the index included.
// The index is formatted with series.IndexLayout; undefined numeric cells are
// nil.
func (t *Table) Records() []map[string]interface{} {
	layout := series.IndexLayout(t.Index)
	out := make([]map[string]interface{}, len(t.Index))
	for i, ts := range t.Index {
		rec := map[string]interface{}{t.IndexName: ts.Format(layout)}
		for _, name := range t.order {
			if values, ok := t.numeric[name]; ok {
				if math.IsNaN(values[i]) {
					rec[name] = nil
				} else {
					rec[name] = values[i]
				}
				continue
			}
			rec[name] = t.text[name][i]
		}
		out[i] = rec
	}
	return out
}
