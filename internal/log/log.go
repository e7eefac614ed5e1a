// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger installs the dpcviz handler on the Apex default logger and sets
// the level from the DPCVIZ_LOG env variable. Chart and dataset messages are
// written to stderr so stdout stays clean for table output.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("DPCVIZ_LOG"))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(NewHandler(os.Stderr))
	log.SetLevelFromString(level)
}

// Handler writes one line per entry: timestamp, one-letter level, message and
// any fields in key=value form.
type Handler struct {
	mu sync.Mutex
	w  io.Writer
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w}
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp.Format("2006-01-02 15:04:05"), level, e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteString("\n")

	_, err := io.WriteString(h.w, b.String())
	return err
}
