// Package cli implements the erdtower command-line interface.
//
// Commands read schema files (YAML, TOML or JSON), lay them out with the
// Graphviz solver, render diagrams and edit them interactively. The CLI is
// built using cobra and logs via the charmbracelet/log library.
//
// # Commands
//
//   - layout: Compute a base layout and write it as JSON
//   - render: Generate SVG, PNG, PDF or JSON output
//   - drag: Apply or clear table displacements on a layout file
//   - tui: Edit a diagram interactively in the terminal
//   - inspect: Summarize tables and references
//   - introspect: Read a schema from a live database
//   - serve: Run the HTTP API
//   - cache: Manage the layout and render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Read 12 tables (84ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// levelFromString maps a config log level to a charm log level.
func levelFromString(s string) log.Level {
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
