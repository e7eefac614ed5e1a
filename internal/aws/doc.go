// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws builds AWS SDK v2 configuration and S3 clients for commands
// that publish artifacts.
package aws
