// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"

	"github.com/staranto/dpcviz/internal/config"
)

// Formats accepted by SliceDiceSpit.
var Formats = []string{"text", "json", "yaml", "csv"}

// Options control how a result set is filtered, sorted and emitted.
type Options struct {
	Format  string
	Columns []string
	Filter  string
	Sort    string
	Tail    int
	Titles  bool
	Color   bool
}

// SliceDiceSpit filters, sorts, trims and renders rows. Only Columns are
// emitted, in the given order.
func SliceDiceSpit(rows []map[string]interface{}, opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	rows = FilterDataset(rows, opts.Filter)
	SortDataset(rows, opts.Sort)
	if opts.Tail > 0 && opts.Tail < len(rows) {
		rows = rows[len(rows)-opts.Tail:]
	}
	log.Debugf("emitting %d rows as %s", len(rows), opts.Format)

	switch opts.Format {
	case "json":
		// Key order is not kept; encoding/json sorts map keys.
		out := make([]map[string]interface{}, 0, len(rows))
		for _, row := range rows {
			rec := make(map[string]interface{}, len(opts.Columns))
			for _, c := range opts.Columns {
				rec[c] = row[c]
			}
			out = append(out, rec)
		}
		b, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		out := make([]yaml.MapSlice, 0, len(rows))
		for _, row := range rows {
			rec := make(yaml.MapSlice, 0, len(opts.Columns))
			for _, c := range opts.Columns {
				rec = append(rec, yaml.MapItem{Key: c, Value: row[c]})
			}
			out = append(out, rec)
		}
		b, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	case "csv":
		return CSVWriter(rows, opts.Columns, w)
	default:
		TableWriter(rows, opts, w)
		return nil
	}
}

// CSVWriter emits rows with a header line. Undefined values are empty cells.
func CSVWriter(rows []map[string]interface{}, columns []string, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		rec := make([]string, len(columns))
		for i, c := range columns {
			if f, ok := row[c].(float64); ok {
				rec[i] = strconv.FormatFloat(f, 'f', -1, 64)
				continue
			}
			rec[i] = InterfaceToString(row[c])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(resultSet []map[string]interface{}, opts Options, w io.Writer) {
	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	// A column is right aligned when every defined cell is a number.
	numeric := make([]bool, len(opts.Columns))
	for i, c := range opts.Columns {
		numeric[i] = true
		for _, row := range resultSet {
			if v := row[c]; v != nil {
				if _, ok := v.(float64); !ok {
					numeric[i] = false
					break
				}
			}
		}
	}

	rows := make([][]string, 0, len(resultSet))
	for _, result := range resultSet {
		row := make([]string, 0, len(opts.Columns))
		for _, c := range opts.Columns {
			row = append(row, InterfaceToString(result[c], "-"))
		}
		rows = append(rows, row)
	}

	pad, _ := config.GetInt("padding", 0)
	log.Debugf("padding: %v", pad)

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if row != table.HeaderRow && numeric[col] {
				style = style.Align(lipgloss.Right)
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(opts.Columns...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// SortDataset sorts rows in place by a comma separated list of keys. A
// leading "-" sorts descending and a leading "!" compares strings case
// sensitively. An empty spec keeps the original order.
func SortDataset(rows []map[string]interface{}, spec string) {
	if spec == "" {
		return
	}

	type key struct {
		name      string
		desc      bool
		sensitive bool
	}
	var keys []key
	for _, part := range strings.Split(spec, ",") {
		k := key{}
		for len(part) > 0 && (part[0] == '-' || part[0] == '!') {
			if part[0] == '-' {
				k.desc = true
			} else {
				k.sensitive = true
			}
			part = part[1:]
		}
		k.name = part
		if k.name != "" {
			keys = append(keys, k)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compare(rows[i][k.name], rows[j][k.name], k.sensitive)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compare orders nil first, then numbers, then strings.
func compare(a, b interface{}, sensitive bool) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}

	sa, sb := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	if !sensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

// InterfaceToString converts supported primitive values to a string. A
// custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	switch value := value.(type) {
	case nil:
		return emptyValue[0]
	case string:
		if value == "" {
			return emptyValue[0]
		}
		return value
	case int:
		return humanize.Comma(int64(value))
	case float64:
		if math.IsNaN(value) {
			return emptyValue[0]
		}
		if value == math.Trunc(value) && math.Abs(value) < 1e15 {
			return humanize.Comma(int64(value))
		}
		return humanize.CommafWithDigits(value, 4) //nolint:mnd
	case bool:
		return strconv.FormatBool(value)
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(b)
	}
}
