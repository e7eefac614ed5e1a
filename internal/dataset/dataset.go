// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // the reference location must resolve without system zoneinfo

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/staranto/dpcviz/internal/fetch"
	"github.com/staranto/dpcviz/internal/table"
)

const (
	DefaultRepo     = "pcm-dpc/COVID-19"
	DefaultLocation = "Europe/Rome"

	commitURLFormat = "https://api.github.com/repos/%s/commits?path=%s&page=1&per_page=1"
	dataURLFormat   = "https://raw.githubusercontent.com/%s/master/%s"
	committerDate   = "0.commit.committer.date"
)

var (
	// ErrNoCommits is returned when the commit listing is empty.
	ErrNoCommits = errors.New("no commits found")
	// ErrMetadata is returned when the commit listing has an unexpected shape.
	ErrMetadata = errors.New("unexpected commit metadata")
)

// Dataset describes one CSV file in a GitHub repository and lazily fetches
// its last-modified timestamp and its parsed contents. Each value is fetched
// at most once per Dataset; failures are not cached.
type Dataset struct {
	repo      string
	path      string
	dateCols  []string
	indexCols []string
	resample  bool
	loc       *time.Location
	getter    fetch.Getter

	commitURL string
	dataURL   string

	lastModified memo[time.Time]
	table        memo[*table.Table]
}

// Option customizes a Dataset at construction.
type Option func(*Dataset)

// WithRepo sets the owner/name repository. Defaults to pcm-dpc/COVID-19.
func WithRepo(repo string) Option {
	return func(d *Dataset) { d.repo = repo }
}

// WithDateColumns sets the columns parsed as dates. Defaults to "data".
func WithDateColumns(cols ...string) Option {
	return func(d *Dataset) { d.dateCols = cols }
}

// WithIndexColumns sets the index column. Defaults to "data".
func WithIndexColumns(cols ...string) Option {
	return func(d *Dataset) { d.indexCols = cols }
}

// WithResample keeps exactly one row per calendar day, the last of the day.
func WithResample(resample bool) Option {
	return func(d *Dataset) { d.resample = resample }
}

// WithLocation sets the zone LastModified is reported in. Defaults to
// Europe/Rome.
func WithLocation(loc *time.Location) Option {
	return func(d *Dataset) { d.loc = loc }
}

// WithGetter replaces the HTTP collaborator.
func WithGetter(g fetch.Getter) Option {
	return func(d *Dataset) { d.getter = g }
}

// New returns a Dataset for path. Nothing is fetched until LastModified or
// Table is called.
func New(path string, opts ...Option) *Dataset {
	d := &Dataset{
		repo:      DefaultRepo,
		path:      path,
		dateCols:  []string{"data"},
		indexCols: []string{"data"},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.loc == nil {
		loc, err := time.LoadLocation(DefaultLocation)
		if err != nil {
			loc = time.UTC
		}
		d.loc = loc
	}
	if d.getter == nil {
		d.getter = fetch.NewClient(nil)
	}

	d.commitURL = fmt.Sprintf(commitURLFormat, d.repo, d.path)
	d.dataURL = fmt.Sprintf(dataURLFormat, d.repo, d.path)
	return d
}

func (d *Dataset) Repo() string      { return d.repo }
func (d *Dataset) Path() string      { return d.path }
func (d *Dataset) CommitURL() string { return d.commitURL }
func (d *Dataset) DataURL() string   { return d.dataURL }
func (d *Dataset) Resample() bool    { return d.resample }

// LastModified returns the committer date of the most recent commit touching
// the file, in the reference location.
func (d *Dataset) LastModified(ctx context.Context) (time.Time, error) {
	return d.lastModified.get(func() (time.Time, error) {
		body, err := d.getter.Get(ctx, d.commitURL)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to fetch commits for %s: %w", d.path, err)
		}
		ts, err := ParseCommitDate(body)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", d.commitURL, err)
		}
		ts = ts.In(d.loc)
		log.Debugf("%s last modified %s", d.path, ts)
		return ts, nil
	})
}

// Table returns the parsed file, resampled to one row per day when configured.
func (d *Dataset) Table(ctx context.Context) (*table.Table, error) {
	return d.table.get(func() (*table.Table, error) {
		body, err := d.getter.Get(ctx, d.dataURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", d.path, err)
		}
		t, err := table.Parse(bytes.NewReader(body), table.ParseOptions{
			DateColumns:  d.dateCols,
			IndexColumns: d.indexCols,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", d.path, err)
		}
		if d.resample {
			t = t.ResampleDaily()
		}
		log.Debugf("%s: %d rows", d.path, t.Len())
		return t, nil
	})
}

// ParseCommitDate reads [0].commit.committer.date from a GitHub commit
// listing.
func ParseCommitDate(body []byte) (time.Time, error) {
	if !gjson.ValidBytes(body) {
		return time.Time{}, fmt.Errorf("%w: invalid JSON", ErrMetadata)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return time.Time{}, fmt.Errorf("%w: expected a list of commits", ErrMetadata)
	}
	if len(doc.Array()) == 0 {
		return time.Time{}, ErrNoCommits
	}
	date := doc.Get(committerDate)
	if !date.Exists() || date.Type != gjson.String {
		return time.Time{}, fmt.Errorf("%w: %s missing", ErrMetadata, committerDate)
	}
	ts, err := time.Parse(time.RFC3339, date.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMetadata, err)
	}
	return ts, nil
}

// String reports the descriptor, forcing both lazy values. Fetch errors are
// shown in place of the value.
func (d *Dataset) String() string {
	return d.Summary(context.Background())
}

// Summary is String with a caller supplied context for the lookups.
func (d *Dataset) Summary(ctx context.Context) string {
	var lm string
	if ts, err := d.LastModified(ctx); err != nil {
		lm = "error: " + err.Error()
	} else {
		lm = ts.Format("2006-01-02 15:04:05-07:00")
	}

	var rows string
	if t, err := d.Table(ctx); err != nil {
		rows = "error: " + err.Error()
	} else {
		rows = humanize.Comma(int64(t.Len())) + " items"
	}

	var b strings.Builder
	b.WriteString("Dataset\n")
	fmt.Fprintf(&b, "  repo: %s\n", d.repo)
	fmt.Fprintf(&b, "  path: %s\n", d.path)
	fmt.Fprintf(&b, "  commit_url: %s\n", d.commitURL)
	fmt.Fprintf(&b, "  last_modified: %s\n", lm)
	fmt.Fprintf(&b, "  data_url: %s\n", d.dataURL)
	fmt.Fprintf(&b, "  table: %s", rows)
	return b.String()
}

// memo caches the first successful result of a computation.
type memo[T any] struct {
	mu    sync.Mutex
	done  bool
	value T
}

func (m *memo[T]) get(compute func() (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return m.value, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	m.value, m.done = v, true
	return v, nil
}
