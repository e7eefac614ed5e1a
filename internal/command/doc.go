// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command defines the CLI command set for dpcviz. It wires flags,
// validators, actions, and shell completion for subcommands.
package command
