// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/dpcviz/internal/cacheutil"
	"github.com/staranto/dpcviz/internal/command"
	"github.com/staranto/dpcviz/internal/config"
	mylog "github.com/staranto/dpcviz/internal/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version)
			return 0
		}
	}

	if cacheutil.Enabled() {
		if dir, ok := cacheutil.Dir(); ok {
			c := cacheutil.Cache{Dir: dir}
			// Non-fatal: the getter falls back to the network.
			if err := c.EnsureDir(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an @set argument into the flags stored under
// <command>.<set> in the config file. Without an explicit @set the
// <command>.defaults list is used, if any.
func mangleArguments(args []string) []string {
	// We know the first two args are going to be the executable and command.
	preamble := make([]string, 2)
	copy(preamble, args[:2])

	// Short-circuit for --help/-h. If help is requested, just keep the preamble
	// and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(preamble, "--help")
		}
	}

	if strings.HasPrefix(args[1], "-") {
		return args
	}

	rest := make([]string, 0, len(args)-2)
	set := "defaults"
	for _, a := range args[2:] {
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			continue
		}
		rest = append(rest, a)
	}

	var expanded []string
	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	for _, arg := range setArgs {
		expanded = append(expanded, strings.Fields(arg)...)
	}

	// Set flags come first so explicit arguments win.
	out := append(preamble, expanded...) //nolint
	out = append(out, rest...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
