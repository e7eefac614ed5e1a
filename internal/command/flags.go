// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/config"
	"github.com/staranto/dpcviz/internal/dataset"
)

func init() {
	cfg, _ = config.Load()
}

var (
	cfg config.Type

	tldrFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
)

// configSources chains the namespaced key and then the bare key from the
// config file.
func configSources(ns, key string, env ...string) cli.ValueSourceChain {
	var chain []cli.ValueSource
	for _, e := range env {
		chain = append(chain, cli.EnvVar(e))
	}
	chain = append(chain,
		yaml.YAML(ns+"."+key, altsrc.StringSourcer(cfg.Source)),
		yaml.YAML(key, altsrc.StringSourcer(cfg.Source)),
	)
	return cli.NewValueSourceChain(chain...)
}

// NewGlobalFlags are the output flags shared by commands printing rows.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: configSources(params[0], "color"),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: configSources(params[0], "output"),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of columns to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.IntFlag{
			Name:  "tail",
			Usage: "only show the last N rows",
			Value: 0,
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: configSources(params[0], "titles"),
			Value:   true,
		},
	}

	return
}

// NewDatasetFlags select and describe the remote CSV file.
func NewDatasetFlags(ns string, defaultPath string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Usage:   "GitHub repository holding the data",
			Sources: configSources(ns, "repo", "DPCVIZ_REPO"),
			Value:   dataset.DefaultRepo,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:    "path",
			Aliases: []string{"p"},
			Usage:   "path of the CSV file inside the repository",
			Sources: configSources(ns, "path"),
			Value:   defaultPath,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "resample",
			Usage:   "resample to one row per day",
			Sources: configSources(ns, "resample"),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "timezone",
			Usage:   "reference time zone for the last update",
			Sources: configSources(ns, "timezone", "DPCVIZ_TZ"),
			Value:   dataset.DefaultLocation,
			Validator: func(value string) error {
				return FlagValidators(value, LocationValidator)
			},
		},
		&cli.StringFlag{
			Name:  "where",
			Usage: "keep rows where column=value",
			Validator: func(value string) error {
				return FlagValidators(value, WhereValidator)
			},
		},
	}
}

// NewRenderFlags control where and how charts are written.
func NewRenderFlags(ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "fig-dir",
			Usage:   "directory for images",
			Sources: configSources(ns, "fig_dir", "DPCVIZ_FIG_DIR"),
		},
		&cli.StringFlag{
			Name:    "csv-dir",
			Usage:   "directory for CSV files",
			Sources: configSources(ns, "csv_dir", "DPCVIZ_CSV_DIR"),
		},
		&cli.BoolFlag{
			Name:    "save-fig",
			Usage:   "save images under dated and latest names",
			Sources: configSources(ns, "save_fig"),
		},
		&cli.IntFlag{
			Name:    "width",
			Usage:   "image width in pixels (0 keeps the default)",
			Sources: configSources(ns, "width"),
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.IntFlag{
			Name:    "height",
			Usage:   "image height in pixels (0 keeps the default)",
			Sources: configSources(ns, "height"),
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
	}
}

// NewPublishFlags enable uploading artifacts to S3.
func NewPublishFlags(ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "s3-bucket",
			Usage:   "upload saved files to this bucket",
			Sources: configSources(ns, "s3.bucket", "DPCVIZ_S3_BUCKET"),
		},
		&cli.StringFlag{
			Name:    "s3-prefix",
			Usage:   "key prefix for uploaded files",
			Sources: configSources(ns, "s3.prefix", "DPCVIZ_S3_PREFIX"),
		},
		&cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "S3 compatible endpoint URL",
			Sources: configSources(ns, "s3.endpoint", "DPCVIZ_S3_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:    "aws-profile",
			Usage:   "shared config profile",
			Sources: configSources(ns, "s3.profile", "AWS_PROFILE"),
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "AWS region",
			Sources: configSources(ns, "s3.region", "AWS_REGION"),
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas reports whether target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
