// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig points DPCVIZ_CFG at a testdata file and resets the global
// Config so the next getter reloads it.
func setupTestConfig(t *testing.T, testdataFile string) {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", testdataFile))
	require.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("DPCVIZ_CFG", absPath)
	Config = Type{}
	t.Cleanup(func() { Config = Type{} })
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "pcm-dpc/COVID-19", cfg.Data["repo"])
				assert.Equal(t, "Europe/Rome", cfg.Data["timezone"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				chart, ok := cfg.Data["chart"].(map[string]interface{})
				assert.True(t, ok, "chart should be a map")
				assert.Equal(t, "chart-figures", chart["fig_dir"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, "dpcviz", cfg.Data["name"])
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["enabled"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source, "should have a source path")
				assert.Empty(t, cfg.Data)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)

			cfg, err := Load()
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("DPCVIZ_CFG", "/nonexistent/path/dpcviz.yaml")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_IsDirectory(t *testing.T) {
	t.Setenv("DPCVIZ_CFG", "testdata")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_KeepsNamespace(t *testing.T) {
	setupTestConfig(t, "nested.yaml")
	Config.Namespace = "chart"

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "chart", cfg.Namespace)
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		namespace    string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{name: "simple string value", testFile: "simple.yaml", key: "repo", want: "pcm-dpc/COVID-19"},
		{name: "bare key", testFile: "nested.yaml", key: "fig_dir", want: "figures"},
		{name: "namespaced key wins", testFile: "nested.yaml", namespace: "chart", key: "fig_dir", want: "chart-figures"},
		{name: "namespace falls back to bare key", testFile: "nested.yaml", namespace: "overview", key: "fig_dir", want: "figures"},
		{name: "missing key with default", testFile: "simple.yaml", key: "missing", defaultValue: []string{"default-value"}, want: "default-value"},
		{name: "missing key without default", testFile: "simple.yaml", key: "missing", wantErr: true},
		{name: "non-string value", testFile: "mixed-types.yaml", key: "version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)
			_, _ = Load()
			Config.Namespace = tt.namespace

			got, err := GetString(tt.key, tt.defaultValue...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{name: "int value", testFile: "mixed-types.yaml", key: "version", want: 1},
		{name: "float value converted to int", testFile: "mixed-types.yaml", key: "timeout", want: 30},
		{name: "nested int value", testFile: "nested.yaml", key: "cache.clean", want: 12},
		{name: "missing key with default", testFile: "simple.yaml", key: "missing", defaultValue: []int{60}, want: 60},
		{name: "missing key without default", testFile: "simple.yaml", key: "missing", wantErr: true},
		{name: "non-int value", testFile: "simple.yaml", key: "repo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)

			got, err := GetInt(tt.key, tt.defaultValue...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetBool(t *testing.T) {
	setupTestConfig(t, "nested.yaml")

	got, err := GetBool("overview.save_fig")
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = GetBool("missing", true)
	assert.NoError(t, err)
	assert.True(t, got)

	_, err = GetBool("fig_dir")
	assert.Error(t, err)
}

func TestGetStringSlice(t *testing.T) {
	setupTestConfig(t, "nested.yaml")

	got, err := GetStringSlice("overview.areas")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Italia", "Lazio"}, got)

	setupTestConfig(t, "mixed-types.yaml")
	got, err = GetStringSlice("areas")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Lombardia"}, got)

	_, err = GetStringSlice("version")
	assert.Error(t, err)
}

func TestConfig_LazyLoad(t *testing.T) {
	setupTestConfig(t, "simple.yaml")

	val, err := GetString("timezone")
	assert.NoError(t, err)
	assert.Equal(t, "Europe/Rome", val)
	assert.NotEmpty(t, Config.Source, "Config should be loaded")
}
