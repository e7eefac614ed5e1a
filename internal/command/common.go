// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/aws"
	"github.com/staranto/dpcviz/internal/cacheutil"
	"github.com/staranto/dpcviz/internal/chart"
	"github.com/staranto/dpcviz/internal/config"
	"github.com/staranto/dpcviz/internal/dataset"
	"github.com/staranto/dpcviz/internal/fetch"
	"github.com/staranto/dpcviz/internal/meta"
	"github.com/staranto/dpcviz/internal/publish"
	"github.com/staranto/dpcviz/internal/table"
)

const (
	NationalPath = "dati-andamento-nazionale/dpc-covid19-ita-andamento-nazionale.csv"
	RegionalPath = "dati-regioni/dpc-covid19-ita-regioni.csv"

	// NationalArea selects the national file in the overview command.
	NationalArea = "Italia"
	regionColumn = "denominazione_regione"
)

// newGetter builds the HTTP collaborator for datasets. Tests swap it for a
// fake.
var newGetter = func() fetch.Getter {
	hours, _ := config.GetInt("cache.clean", 0)
	cache, ok := cacheutil.FromEnv(time.Duration(hours) * time.Hour)
	if !ok {
		return fetch.NewClient(nil)
	}
	if err := cache.EnsureDir(); err != nil {
		log.WithError(err).Warn("cache disabled")
		return fetch.NewClient(nil)
	}
	return fetch.NewClient(cache)
}

// newUploader builds the S3 client for --s3-bucket. Tests swap it for a fake.
var newUploader = func(ctx context.Context, cmd *cli.Command) (publish.PutObjectAPI, error) {
	var opts []aws.Option
	if p := cmd.String("aws-profile"); p != "" {
		opts = append(opts, aws.WithProfile(p))
	}
	if r := cmd.String("aws-region"); r != "" {
		opts = append(opts, aws.WithRegion(r))
	}
	return aws.NewS3FromEnv(ctx, cmd.String("s3-endpoint"), opts...)
}

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr dpcviz-<subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "dpcviz-"+subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// writer is where command output goes.
func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// newDataset builds a descriptor for path from the dataset flags.
func newDataset(cmd *cli.Command, path string) (*dataset.Dataset, error) {
	opts := []dataset.Option{
		dataset.WithRepo(cmd.String("repo")),
		dataset.WithResample(cmd.Bool("resample")),
		dataset.WithGetter(newGetter()),
	}
	if tz := cmd.String("timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("failed to load time zone %s: %w", tz, err)
		}
		opts = append(opts, dataset.WithLocation(loc))
	}
	return dataset.New(path, opts...), nil
}

// loadTable fetches the table and applies --where.
func loadTable(ctx context.Context, cmd *cli.Command, ds *dataset.Dataset) (*table.Table, string, error) {
	tbl, err := ds.Table(ctx)
	if err != nil {
		return nil, "", err
	}

	where := cmd.String("where")
	if where == "" {
		return tbl, "", nil
	}
	col, val, err := parseWhere(where)
	if err != nil {
		return nil, "", err
	}
	tbl, err = tbl.Where(col, val)
	if err != nil {
		return nil, "", err
	}
	if tbl.Len() == 0 {
		return nil, "", fmt.Errorf("no rows where %s", where)
	}
	log.Debugf("%d rows where %s", tbl.Len(), where)
	return tbl, val, nil
}

// sizeFlags returns the --width/--height override, zero when unset.
func sizeFlags(cmd *cli.Command, def chart.Size) chart.Size {
	size := def
	if w := cmd.Int("width"); w > 0 {
		size.Width = w
	}
	if h := cmd.Int("height"); h > 0 {
		size.Height = h
	}
	return size
}

// publishArtifacts uploads every non-zero artifact when --s3-bucket is set.
func publishArtifacts(ctx context.Context, cmd *cli.Command, artifacts ...chart.Artifact) error {
	bucket := cmd.String("s3-bucket")
	if bucket == "" {
		return nil
	}

	client, err := newUploader(ctx, cmd)
	if err != nil {
		return err
	}
	p, err := publish.New(client, bucket, cmd.String("s3-prefix"))
	if err != nil {
		return err
	}

	w := writer(cmd)
	for _, a := range artifacts {
		keys, err := p.Artifact(ctx, a)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintf(w, "s3://%s/%s\n", bucket, k)
		}
	}
	return nil
}

// reportArtifacts prints the files written for each artifact.
func reportArtifacts(w io.Writer, artifacts ...chart.Artifact) {
	for _, a := range artifacts {
		if a.IsZero() {
			continue
		}
		fmt.Fprintln(w, a.Dated)
		fmt.Fprintln(w, a.Latest)
	}
}
