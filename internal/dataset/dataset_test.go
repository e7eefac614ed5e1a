// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package dataset

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nationalPath = "dati-andamento-nazionale/dpc-covid19-ita-andamento-nazionale.csv"

// fakeGetter serves canned bodies keyed by URL and counts requests.
type fakeGetter struct {
	bodies map[string][]byte
	errs   map[string]error
	calls  map[string]int
}

func (f *fakeGetter) Get(_ context.Context, url string) ([]byte, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if b, ok := f.bodies[url]; ok {
		return b, nil
	}
	return nil, errors.New("unexpected url " + url)
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return b
}

func newFake(t *testing.T, d *Dataset) *fakeGetter {
	return &fakeGetter{bodies: map[string][]byte{
		d.CommitURL(): fixture(t, "commits.json"),
		d.DataURL():   fixture(t, "nazionale.csv"),
	}}
}

func TestURLs(t *testing.T) {
	d := New(nationalPath)
	assert.Equal(t, DefaultRepo, d.Repo())
	assert.Equal(t, nationalPath, d.Path())
	assert.Equal(t,
		"https://api.github.com/repos/pcm-dpc/COVID-19/commits?path="+nationalPath+"&page=1&per_page=1",
		d.CommitURL())
	assert.Equal(t,
		"https://raw.githubusercontent.com/pcm-dpc/COVID-19/master/"+nationalPath,
		d.DataURL())

	other := New("a/b.csv", WithRepo("someone/data"))
	assert.Equal(t, "https://raw.githubusercontent.com/someone/data/master/a/b.csv", other.DataURL())
}

func TestLastModified(t *testing.T) {
	d := New(nationalPath)
	fake := newFake(t, d)
	d.getter = fake

	ts, err := d.LastModified(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", ts.Location().String())
	assert.True(t, ts.Equal(time.Date(2020, 4, 10, 17, 2, 45, 0, time.UTC)))
	assert.Equal(t, 19, ts.Hour(), "CEST is UTC+2")
}

func TestMemoization(t *testing.T) {
	probe := New(nationalPath)
	fake := newFake(t, probe)

	for i := 0; i < 2; i++ {
		d := New(nationalPath, WithGetter(fake))
		for j := 0; j < 3; j++ {
			_, err := d.LastModified(context.Background())
			require.NoError(t, err)
			_, err = d.Table(context.Background())
			require.NoError(t, err)
		}
	}

	// one fetch per value per instance
	assert.Equal(t, 2, fake.calls[probe.CommitURL()])
	assert.Equal(t, 2, fake.calls[probe.DataURL()])
}

func TestFailureNotCached(t *testing.T) {
	d := New(nationalPath)
	fake := newFake(t, d)
	fake.errs = map[string]error{d.DataURL(): errors.New("connection refused")}
	d.getter = fake

	_, err := d.Table(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	delete(fake.errs, d.DataURL())
	tbl, err := d.Table(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, 2, fake.calls[d.DataURL()])
}

func TestTable_Resample(t *testing.T) {
	d := New(nationalPath, WithResample(true))
	d.getter = newFake(t, d)

	tbl, err := d.Table(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	tc, err := tbl.Column("totale_casi")
	require.NoError(t, err)
	assert.Equal(t, []float64{229, 330, 400}, tc.Values, "the 20:00 row wins on 25/02")
}

func TestTable_ParseError(t *testing.T) {
	d := New(nationalPath, WithDateColumns("giorno"), WithIndexColumns("giorno"))
	d.getter = newFake(t, d)

	_, err := d.Table(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestParseCommitDate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `[{"commit":{"committer":{"date":"2020-04-10T17:02:45Z"}}}]`, nil},
		{"empty list", `[]`, ErrNoCommits},
		{"not a list", `{"message":"Not Found"}`, ErrMetadata},
		{"missing date", `[{"commit":{}}]`, ErrMetadata},
		{"bad date", `[{"commit":{"committer":{"date":"yesterday"}}}]`, ErrMetadata},
		{"invalid json", `[{`, ErrMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := ParseCommitDate([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2020, ts.Year())
		})
	}
}

func TestString(t *testing.T) {
	d := New(nationalPath, WithLocation(time.UTC))
	fake := newFake(t, d)
	d.getter = fake

	s := d.String()
	assert.True(t, strings.HasPrefix(s, "Dataset\n"))
	assert.Contains(t, s, "  repo: pcm-dpc/COVID-19\n")
	assert.Contains(t, s, "  path: "+nationalPath+"\n")
	assert.Contains(t, s, "  commit_url: "+d.CommitURL()+"\n")
	assert.Contains(t, s, "  last_modified: 2020-04-10 17:02:45+00:00\n")
	assert.Contains(t, s, "  data_url: "+d.DataURL()+"\n")
	assert.Contains(t, s, "  table: 4 items")

	_ = d.String()
	assert.Equal(t, 1, fake.calls[d.CommitURL()])
	assert.Equal(t, 1, fake.calls[d.DataURL()])
}

func TestString_Error(t *testing.T) {
	d := New(nationalPath)
	d.getter = &fakeGetter{}
	assert.Contains(t, d.String(), "last_modified: error: failed to fetch commits")
}
