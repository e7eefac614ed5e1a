// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/apex/log"
)

// Kind tags the chart variant in artifact names.
type Kind string

const (
	KindSeries   Kind = "series"
	KindNew      Kind = "new"
	KindGrowth   Kind = "gf"
	KindOverview Kind = "overview"
)

// ErrNoTimestamp is returned when persisting without a last-modified time;
// dated names cannot be formed.
var ErrNoTimestamp = errors.New("last-modified timestamp required to persist")

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// Sanitize makes a series name safe for file names: every non-word rune
// becomes an underscore and the result is lowercased.
func Sanitize(name string) string {
	return strings.ToLower(nonWord.ReplaceAllString(name, "_"))
}

// Artifact is the pair of files written for one render.
type Artifact struct {
	Dated  string
	Latest string
}

func (a Artifact) IsZero() bool {
	return a.Dated == "" && a.Latest == ""
}

// Names builds {sanitized}-{kind}-{YYYYMMDD}.{ext} and {sanitized}-{kind}.{ext}
// inside dir. An empty dir means the working directory.
func Names(dir, name string, kind Kind, date time.Time, ext string) Artifact {
	base := Sanitize(name) + "-" + string(kind)
	ext = strings.TrimPrefix(ext, ".")
	return Artifact{
		Dated:  filepath.Join(dir, fmt.Sprintf("%s-%s.%s", base, date.Format("20060102"), ext)),
		Latest: filepath.Join(dir, fmt.Sprintf("%s.%s", base, ext)),
	}
}

// persist writes the dated file through write and then copies it byte for
// byte to the latest name.
func persist(dir, name string, kind Kind, date time.Time, ext string, write func(io.Writer) error) (Artifact, error) {
	if date.IsZero() {
		return Artifact{}, ErrNoTimestamp
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
			return Artifact{}, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	a := Names(dir, name, kind, date, ext)

	f, err := os.Create(a.Dated)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to create %s: %w", a.Dated, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return Artifact{}, fmt.Errorf("failed to write %s: %w", a.Dated, err)
	}
	if err := f.Close(); err != nil {
		return Artifact{}, fmt.Errorf("failed to close %s: %w", a.Dated, err)
	}

	if err := copyFile(a.Dated, a.Latest); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

func logSaved(what string, a Artifact) {
	log.Infof("%s saved to %s and %s", what, a.Dated, a.Latest)
}
