// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

// Doc generator:
// - Reads docs/commands/*.md as canonical command docs
// - Generates:
//   - docs/man/share/man1/dpcviz-<cmd>.1 via md2man (convert full markdown)
//   - docs/tldr/dpcviz-<cmd>.md using the Quick examples block and short description

const (
	binary  = "dpcviz"
	homeURL = "https://github.com/staranto/dpcviz"
)

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	processed, err := generate(repoRoot, writeOnlyIfChanged)
	if err != nil {
		fatalf("%v", err)
	}
	if processed == 0 {
		fatalf("no command markdown found under %s", filepath.Join(repoRoot, "docs", "commands"))
	}
}

// generate renders every command page and returns how many were processed.
func generate(repoRoot string, onlyIfChanged bool) (int, error) {
	commandsDir := filepath.Join(repoRoot, "docs", "commands")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, d := range []string{manOutDir, tldrOutDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return 0, fmt.Errorf("creating output dir %s: %w", d, err)
		}
	}

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		return 0, fmt.Errorf("reading commands dir %s: %w", commandsDir, err)
	}

	var processed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		cmd := strings.TrimSuffix(e.Name(), ".md")
		inPath := filepath.Join(commandsDir, e.Name())
		raw, err := os.ReadFile(inPath)
		if err != nil {
			return processed, fmt.Errorf("reading %s: %w", inPath, err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("%s-%s.1", binary, cmd))
		if err := writeFileIfChanged(manPath, md2man.Render(raw), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing man page for %s: %w", cmd, err)
		}

		title, shortDesc := extractTitleAndShortDesc(string(raw))
		tldr := buildTLDR(cmd, title, shortDesc, extractQuickExamples(string(raw)))
		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("%s-%s.md", binary, cmd))
		if err := writeFileIfChanged(tldrPath, []byte(tldr), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing TLDR for %s: %w", cmd, err)
		}

		processed++
	}
	return processed, nil
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

var h1Re = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// section returns the text after the line holding header (matched case
// insensitively), or "" when the header is missing.
func section(md, header string) string {
	idx := strings.Index(strings.ToLower(md), header)
	if idx < 0 {
		return ""
	}
	rest := md[idx:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		return rest[nl+1:]
	}
	return ""
}

// extractTitleAndShortDesc returns the first H1 and the first paragraph of
// the "Short description" section.
func extractTitleAndShortDesc(md string) (title, short string) {
	if m := h1Re.FindStringSubmatch(md); m != nil {
		title = strings.TrimSpace(m[1])
	}

	var words []string
	for _, ln := range strings.Split(section(md, "short description"), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			if len(words) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(ln, "#") || strings.HasSuffix(ln, ":") {
			break
		}
		words = append(words, ln)
	}
	short = strings.Join(words, " ")

	if short == "" && title != "" {
		short = title + "."
	}
	return
}

type example struct {
	Desc string
	Cmd  string
}

// extractQuickExamples reads the first fenced block of the "Quick examples"
// section. A "# ..." line describes the command line that follows it.
func extractQuickExamples(md string) []example {
	const fence = "```"
	rest := section(md, "quick examples")
	open := strings.Index(rest, fence)
	if open < 0 {
		return nil
	}
	rest = rest[open+len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return nil
	}

	var (
		exs  []example
		desc string
	)
	for _, ln := range strings.Split(rest[:end], "\n") {
		ln = strings.TrimSpace(strings.TrimRight(ln, "\r"))
		switch {
		case ln == "":
		case strings.HasPrefix(ln, "#"):
			desc = strings.TrimSpace(strings.TrimPrefix(ln, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, example{Desc: desc, Cmd: ln})
			desc = ""
		}
	}
	return exs
}

// buildTLDR renders a tldr page. Without examples it points at --help.
func buildTLDR(cmd, title, short string, exs []example) string {
	summary := short
	if summary == "" {
		summary = title
	}
	if summary == "" {
		summary = binary + " " + cmd
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s-%s\n\n", binary, cmd)
	fmt.Fprintf(&b, "> %s\n> More information: %s.\n\n", summary, homeURL)

	if len(exs) == 0 {
		exs = []example{{Desc: "Show help for the command", Cmd: binary + " " + cmd + " --help"}}
	}
	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s:\n\n`%s`\n", strings.TrimSpace(ex.Desc), squeeze(ex.Cmd))
	}
	return b.String()
}

// squeeze collapses runs of whitespace.
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
