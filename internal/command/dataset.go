// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/meta"
)

// DatasetCommandAction prints the summary of one dataset descriptor. The
// summary forces both remote lookups; failures are shown inline.
func DatasetCommandAction(ctx context.Context, cmd *cli.Command) error {
	if m := GetMeta(cmd); len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, "dataset") {
		return nil
	}

	ds, err := newDataset(cmd, cmd.String("path"))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(writer(cmd), ds.Summary(ctx))
	return err
}

// DatasetCommandBuilder constructs the cli.Command definition for the
// "dataset" command.
func DatasetCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "dataset",
		Usage:     "describe a remote CSV file",
		UsageText: `dpcviz dataset [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			tldrFlag,
		}, NewDatasetFlags("dataset", NationalPath)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: DatasetCommandAction,
	}
}
