// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output provides filtering, sorting, and emission utilities used by
// commands to present table rows as text, json, yaml or csv.
package output
