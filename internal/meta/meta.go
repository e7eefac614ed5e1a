// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/dpcviz/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args        []string
	Config      config.Type
	Context     context.Context
	StartingDir string

	// Shell is $SHELL at startup, used to pick a completion script.
	Shell string
}
