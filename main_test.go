// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/dpcviz/internal/config"
)

func withConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dpcviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("DPCVIZ_CFG", path)
	config.Config = config.Type{}
	_, err := config.Load()
	require.NoError(t, err)
	t.Cleanup(func() { config.Config = config.Type{} })
}

func TestMangleArguments(t *testing.T) {
	withConfig(t, `
chart:
  defaults:
    - --save-fig
  lazio:
    - --path dati-regioni/dpc-covid19-ita-regioni.csv
    - --where denominazione_regione=Lazio
`)

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			"defaults",
			[]string{"dpcviz", "chart", "--views", "level"},
			[]string{"dpcviz", "chart", "--save-fig", "--views", "level"},
		},
		{
			"named set",
			[]string{"dpcviz", "chart", "@lazio", "--column", "deceduti"},
			[]string{"dpcviz", "chart",
				"--path", "dati-regioni/dpc-covid19-ita-regioni.csv",
				"--where", "denominazione_regione=Lazio",
				"--column", "deceduti"},
		},
		{
			"unknown set",
			[]string{"dpcviz", "chart", "@nope"},
			[]string{"dpcviz", "chart"},
		},
		{
			"no sets for command",
			[]string{"dpcviz", "table", "--tail", "3"},
			[]string{"dpcviz", "table", "--tail", "3"},
		},
		{
			"help",
			[]string{"dpcviz", "chart", "@lazio", "-h"},
			[]string{"dpcviz", "chart", "--help"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.in))
		})
	}
}
