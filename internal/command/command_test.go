// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/fetch"
	"github.com/staranto/dpcviz/internal/publish"
)

const commits = `[{"sha":"3c1e5b0","commit":{"committer":{"name":"GitHub","date":"2020-04-10T17:02:45Z"}}}]`

// fakeGetter answers commit listings with commits and everything else with
// the CSV registered for the file path.
type fakeGetter struct {
	mu    sync.Mutex
	files map[string]string
	calls int
}

func (f *fakeGetter) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if strings.Contains(url, "/commits?") {
		return []byte(commits), nil
	}
	for path, body := range f.files {
		if strings.HasSuffix(url, path) {
			return []byte(body), nil
		}
	}
	return nil, fmt.Errorf("unexpected url %s", url)
}

type fakeS3 struct {
	keys []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if _, err := io.Copy(io.Discard, in.Body); err != nil {
		return nil, err
	}
	f.keys = append(f.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

var start = time.Date(2020, 2, 24, 18, 0, 0, 0, time.UTC)

// nazionale builds n days of quadratic growth.
func nazionale(n int) string {
	var b strings.Builder
	b.WriteString("data,stato,terapia_intensiva,deceduti,totale_casi\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s,ITA,%d,%d,%d\n",
			start.AddDate(0, 0, i).Format("2006-01-02T15:04:05"), 10+i, 3*i, 100*(i+1)*(i+1))
	}
	return b.String()
}

// regioni interleaves Lazio and Lombardia rows.
func regioni(n int) string {
	var b strings.Builder
	b.WriteString("data,stato,codice_regione,denominazione_regione,terapia_intensiva,deceduti,totale_casi\n")
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02T15:04:05")
		fmt.Fprintf(&b, "%s,ITA,12,Lazio,%d,%d,%d\n", day, 2+i, i, 6*(i+1)*(i+1))
		fmt.Fprintf(&b, "%s,ITA,3,Lombardia,%d,%d,%d\n", day, 100+i, 20*i, 984*(i+1))
	}
	return b.String()
}

// setup isolates config and swaps the collaborators for fakes.
func setup(t *testing.T) (*fakeGetter, *fakeS3) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	for _, e := range []string{
		"APPDATA", "DPCVIZ_CFG", "DPCVIZ_REPO", "DPCVIZ_TZ", "DPCVIZ_FIG_DIR", "DPCVIZ_CSV_DIR",
		"DPCVIZ_S3_BUCKET", "DPCVIZ_S3_PREFIX", "DPCVIZ_S3_ENDPOINT",
	} {
		unsetenv(t, e)
	}

	getter := &fakeGetter{files: map[string]string{
		NationalPath: nazionale(45),
		RegionalPath: regioni(45),
	}}
	s3 := &fakeS3{}

	oldGetter, oldUploader := newGetter, newUploader
	newGetter = func() fetch.Getter { return getter }
	newUploader = func(context.Context, *cli.Command) (publish.PutObjectAPI, error) { return s3, nil }
	t.Cleanup(func() {
		newGetter, newUploader = oldGetter, oldUploader
	})
	return getter, s3
}

// unsetenv removes key for the test and restores it afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	if v, ok := os.LookupEnv(key); ok {
		t.Setenv(key, v)
		require.NoError(t, os.Unsetenv(key))
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx := context.Background()
	args = append([]string{"dpcviz"}, args...)
	app, err := InitApp(ctx, args)
	require.NoError(t, err)

	var buf bytes.Buffer
	app.Writer = &buf
	app.ErrWriter = io.Discard
	err = app.Run(ctx, args)
	return buf.String(), err
}

func TestInitApp_Commands(t *testing.T) {
	setup(t)
	app, err := InitApp(context.Background(), []string{"dpcviz", "chart"})
	require.NoError(t, err)

	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
		for i := 1; i < len(c.Flags); i++ {
			assert.LessOrEqual(t, c.Flags[i-1].Names()[0], c.Flags[i].Names()[0], c.Name)
		}
	}
	assert.Equal(t, []string{"dataset", "table", "chart", "overview", "completion"}, names)
}

func TestDatasetCommand(t *testing.T) {
	getter, _ := setup(t)

	out, err := run(t, "dataset")
	require.NoError(t, err)
	assert.Contains(t, out, "repo: pcm-dpc/COVID-19")
	assert.Contains(t, out, "last_modified: 2020-04-10 19:02:45+02:00")
	assert.Contains(t, out, "table: 45 items")
	assert.Equal(t, 2, getter.calls)
}

func TestDatasetCommand_Timezone(t *testing.T) {
	setup(t)

	out, err := run(t, "dataset", "--timezone", "UTC")
	require.NoError(t, err)
	assert.Contains(t, out, "last_modified: 2020-04-10 17:02:45+00:00")
}

func TestTableCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "table", "--output", "csv", "--column", "totale_casi", "--tail", "2")
	require.NoError(t, err)
	assert.Equal(t,
		"data,totale_casi\n"+
			"2020-04-07 18:00:00,193600\n"+
			"2020-04-08 18:00:00,202500\n",
		out)
}

func TestTableCommand_Where(t *testing.T) {
	setup(t)

	out, err := run(t, "table", "--path", RegionalPath, "--where", "denominazione_regione=Lazio",
		"--output", "csv", "--column", "denominazione_regione,totale_casi", "--tail", "1")
	require.NoError(t, err)
	assert.Equal(t, "data,denominazione_regione,totale_casi\n2020-04-08 18:00:00,Lazio,12150\n", out)
}

func TestTableCommand_UnknownColumn(t *testing.T) {
	setup(t)

	_, err := run(t, "table", "--column", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestChartCommand_Save(t *testing.T) {
	setup(t)
	figDir := filepath.Join(t.TempDir(), "fig")
	csvDir := filepath.Join(t.TempDir(), "csv")

	out, err := run(t, "chart", "--save-fig", "--save-csv", "--fig-dir", figDir, "--csv-dir", csvDir)
	require.NoError(t, err)

	for _, kind := range []string{"series", "new", "gf"} {
		for _, f := range []string{
			filepath.Join(figDir, "totale_casi-"+kind+"-20200410.png"),
			filepath.Join(figDir, "totale_casi-"+kind+".png"),
			filepath.Join(csvDir, "totale_casi-"+kind+"-20200410.csv"),
			filepath.Join(csvDir, "totale_casi-"+kind+".csv"),
		} {
			assert.FileExists(t, f)
			assert.Contains(t, out, f)
		}
	}
}

func TestChartCommand_NothingSaved(t *testing.T) {
	setup(t)
	dir := t.TempDir()

	out, err := run(t, "chart", "--views", "level", "--fig-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "rendered 1 views of totale_casi")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChartCommand_WhereNamesSeries(t *testing.T) {
	setup(t)
	dir := t.TempDir()

	_, err := run(t, "chart", "--path", RegionalPath, "--where", "denominazione_regione=Lazio",
		"--column", "deceduti", "--views", "delta", "--save-fig", "--fig-dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "deceduti_lazio-new-20200410.png"))
}

func TestChartCommand_Publish(t *testing.T) {
	_, s3 := setup(t)
	dir := t.TempDir()

	out, err := run(t, "chart", "--views", "growth", "--save-fig", "--fig-dir", dir,
		"--s3-bucket", "dpc", "--s3-prefix", "charts")
	require.NoError(t, err)
	assert.Equal(t, []string{"charts/totale_casi-gf-20200410.png", "charts/totale_casi-gf.png"}, s3.keys)
	assert.Contains(t, out, "s3://dpc/charts/totale_casi-gf.png")
}

func TestChartCommand_BadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"view", []string{"--views", "level,pie"}},
		{"ylim", []string{"--ylim", "2,1"}},
		{"column", []string{"--column", "nope"}},
		{"format", []string{"--format", "gif"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			_, err := run(t, append([]string{"chart"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestOverviewCommand(t *testing.T) {
	getter, _ := setup(t)
	dir := t.TempDir()

	out, err := run(t, "overview", "--save-fig", "--fig-dir", dir, "Lazio", "Lombardia")
	require.NoError(t, err)
	for _, area := range []string{"lazio", "lombardia"} {
		dated := filepath.Join(dir, area+"-overview-20200410.png")
		assert.FileExists(t, dated)
		assert.Contains(t, out, dated)
	}
	// Both areas share one regional descriptor.
	assert.Equal(t, 2, getter.calls)
}

func TestOverviewCommand_DefaultArea(t *testing.T) {
	setup(t)

	out, err := run(t, "overview")
	require.NoError(t, err)
	assert.Contains(t, out, "Italia: rendered 9 panels")
}

func TestOverviewCommand_UnknownArea(t *testing.T) {
	setup(t)

	_, err := run(t, "overview", "Atlantide")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Atlantide")
}

func TestCompletionCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "complete -F _dpcviz dpcviz")

	out, err = run(t, "completion", "zsh")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#compdef dpcviz"))

	_, err = run(t, "completion", "fish")
	assert.Error(t, err)
}

func TestParseViews(t *testing.T) {
	tests := []struct {
		spec    string
		want    []string
		wantErr bool
	}{
		{"", []string{"level", "delta", "growth"}, false},
		{"growth", []string{"growth"}, false},
		{"delta, level", []string{"delta", "level"}, false},
		{"level,bars", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseViews(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseYLim(t *testing.T) {
	got, err := parseYLim("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseYLim("0, 2.5")
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0, 2.5}, *got)

	for _, bad := range []string{"1", "a,2", "1,b", "3,3"} {
		_, err := parseYLim(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseWhere(t *testing.T) {
	col, val, err := parseWhere("denominazione_regione=Valle d'Aosta")
	require.NoError(t, err)
	assert.Equal(t, "denominazione_regione", col)
	assert.Equal(t, "Valle d'Aosta", val)

	col, val, err = parseWhere("note=")
	require.NoError(t, err)
	assert.Equal(t, "note", col)
	assert.Equal(t, "", val)

	_, _, err = parseWhere("=Lazio")
	assert.Error(t, err)
	_, _, err = parseWhere("Lazio")
	assert.Error(t, err)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, OutputValidator("yaml"))
	assert.Error(t, OutputValidator("xml"))
	assert.NoError(t, ImageFormatValidator("svg"))
	assert.Error(t, ImageFormatValidator("jpg"))
	assert.NoError(t, NonNegativeValidator(0))
	assert.Error(t, NonNegativeValidator(-1))
	assert.NoError(t, LocationValidator("Europe/Rome"))
	assert.Error(t, LocationValidator("Europe/Atlantis"))
	assert.Error(t, JammedFlagValidator("--path"))
	assert.NoError(t, WhereValidator(""))
	assert.Error(t, WhereValidator("x"))
}
