// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package table

import (
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dpcOpts = ParseOptions{DateColumns: []string{"data"}, IndexColumns: []string{"data"}}

func loadFixture(t *testing.T) *Table {
	t.Helper()
	f, err := os.Open("testdata/regioni.csv")
	require.NoError(t, err)
	defer f.Close()

	tbl, err := Parse(f, dpcOpts)
	require.NoError(t, err)
	return tbl
}

func TestParse(t *testing.T) {
	tbl := loadFixture(t)

	assert.Equal(t, 6, tbl.Len())
	assert.Equal(t, "data", tbl.IndexName)
	assert.Equal(t, time.Date(2020, 3, 1, 17, 0, 0, 0, time.UTC), tbl.Index[0])
	assert.Equal(t,
		[]string{"stato", "codice_regione", "denominazione_regione", "terapia_intensiva", "deceduti", "totale_casi", "note"},
		tbl.Columns())

	tc, err := tbl.Column("totale_casi")
	require.NoError(t, err)
	assert.Equal(t, "totale_casi", tc.Name)
	assert.Equal(t, []float64{6, 984, 6, 1254, 11, 1520}, tc.Values)

	names, err := tbl.Strings("denominazione_regione")
	require.NoError(t, err)
	assert.Equal(t, "Lombardia", names[1])

	_, err = tbl.Column("stato")
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = tbl.Column("missing")
	assert.ErrorIs(t, err, ErrNoColumn)
	_, err = tbl.Strings("missing")
	assert.ErrorIs(t, err, ErrNoColumn)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		opts ParseOptions
		want string
	}{
		{"empty input", "", dpcOpts, "missing header"},
		{"bad date", "data,x\nnot-a-date,1\n", dpcOpts, "unparseable date"},
		{"missing date column", "giorno,x\n2020-03-01,1\n", dpcOpts, "no such column"},
		{"ragged rows", "data,x\n2020-03-01,1,2\n", dpcOpts, "failed to read CSV"},
		{"two index columns", "data,x\n", ParseOptions{DateColumns: []string{"data"}, IndexColumns: []string{"data", "x"}}, "exactly one index column"},
		{"index not a date", "data,x\n", ParseOptions{DateColumns: []string{"data"}, IndexColumns: []string{"x"}}, "must be a date column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.csv), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_EmptyCellsAreNaN(t *testing.T) {
	tbl, err := Parse(strings.NewReader("data,x\n2020-03-01,\n2020-03-02,2.5\n"), dpcOpts)
	require.NoError(t, err)
	x, err := tbl.Column("x")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(x.Values[0]))
	assert.Equal(t, 2.5, x.Values[1])
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2020-03-01T17:00:00", "2020-03-01T17:00:00Z", "2020-03-01 17:00:00"} {
		ts, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, 17, ts.Hour())
	}
	ts, err := ParseDate("2020-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, ts.Day())
}

func TestWhere(t *testing.T) {
	lazio, err := loadFixture(t).Where("denominazione_regione", "Lazio")
	require.NoError(t, err)
	assert.Equal(t, 3, lazio.Len())

	ti, err := lazio.Column("terapia_intensiva")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, ti.Values)

	_, err = loadFixture(t).Where("missing", "x")
	assert.ErrorIs(t, err, ErrNoColumn)
}

func TestResampleDaily(t *testing.T) {
	csv := "data,totale_casi,note\n" +
		"2020-03-01T09:00:00,1,a\n" +
		"2020-03-01T18:00:00,2,\n" +
		"2020-03-02T18:00:00,,b\n" +
		"2020-03-04T18:00:00,7,c\n"
	tbl, err := Parse(strings.NewReader(csv), dpcOpts)
	require.NoError(t, err)

	daily := tbl.ResampleDaily()
	require.Equal(t, 4, daily.Len())
	assert.Equal(t, time.Date(2020, 3, 3, 0, 0, 0, 0, time.UTC), daily.Index[2])

	tc, err := daily.Column("totale_casi")
	require.NoError(t, err)
	assert.Equal(t, 2.0, tc.Values[0])
	assert.True(t, math.IsNaN(tc.Values[1]))
	assert.True(t, math.IsNaN(tc.Values[2]))
	assert.Equal(t, 7.0, tc.Values[3])

	notes, err := daily.Strings("note")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "", "c"}, notes)
}

func TestFrame(t *testing.T) {
	f := loadFixture(t).Frame()
	var names []string
	for _, c := range f.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"codice_regione", "terapia_intensiva", "deceduti", "totale_casi"}, names)
	assert.Len(t, f.Index, 6)
}

func TestRecords(t *testing.T) {
	csv := "data,totale_casi,note\n" +
		"2020-03-01T18:00:00,2,a\n" +
		"2020-03-02T18:00:00,,b\n"
	tbl, err := Parse(strings.NewReader(csv), dpcOpts)
	require.NoError(t, err)

	recs := tbl.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, map[string]interface{}{"data": "2020-03-01 18:00:00", "totale_casi": 2.0, "note": "a"}, recs[0])
	assert.Nil(t, recs[1]["totale_casi"])

	daily := tbl.ResampleDaily().Records()
	assert.Equal(t, "2020-03-02", daily[1]["data"])
}
