// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/meta"
	"github.com/staranto/dpcviz/internal/output"
	"github.com/staranto/dpcviz/internal/table"
)

// TableCommandAction prints columns of a dataset, one row per index entry.
func TableCommandAction(ctx context.Context, cmd *cli.Command) error {
	if m := GetMeta(cmd); len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, "table") {
		return nil
	}

	ds, err := newDataset(cmd, cmd.String("path"))
	if err != nil {
		return err
	}
	tbl, _, err := loadTable(ctx, cmd, ds)
	if err != nil {
		return err
	}

	columns, err := selectColumns(tbl, cmd.String("column"))
	if err != nil {
		return err
	}

	return output.SliceDiceSpit(tbl.Records(), output.Options{
		Format:  cmd.String("output"),
		Columns: columns,
		Filter:  cmd.String("filter"),
		Sort:    cmd.String("sort"),
		Tail:    cmd.Int("tail"),
		Titles:  cmd.Bool("titles"),
		Color:   cmd.Bool("color"),
	}, writer(cmd))
}

// selectColumns resolves a comma separated column list. The index always
// comes first; an empty spec selects every column.
func selectColumns(tbl *table.Table, spec string) ([]string, error) {
	columns := []string{tbl.IndexName}
	if spec == "" {
		return append(columns, tbl.Columns()...), nil
	}

	known := map[string]bool{}
	for _, c := range tbl.Columns() {
		known[c] = true
	}
	for _, c := range strings.Split(spec, ",") {
		c = strings.TrimSpace(c)
		if c == "" || c == tbl.IndexName {
			continue
		}
		if !known[c] {
			return nil, fmt.Errorf("%q: %w", c, table.ErrNoColumn)
		}
		columns = append(columns, c)
	}
	return columns, nil
}

// TableCommandBuilder constructs the cli.Command definition for the "table"
// command.
func TableCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "table",
		Usage:     "print dataset columns",
		UsageText: `dpcviz table [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append([]cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("table", meta.Config.Source, &cli.StringFlag{
				Name:  "column",
				Usage: "comma-separated list of columns to print",
			}),
			tldrFlag,
		}, NewDatasetFlags("table", NationalPath)...), NewGlobalFlags("table")...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: TableCommandAction,
	}
}
