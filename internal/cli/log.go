// Package cli implements the molforge command-line interface.
//
// The commands build molecules from building blocks and topology graphs,
// browse the built-in topologies, inspect and convert molecule files, and
// serve the HTTP API. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - build: Construct a molecule from a recipe or from flags
//   - topology: List, show and render the built-in topologies
//   - inspect: Browse the atoms and bonds of a molecule file
//   - convert: Convert a molecule between file formats
//   - cache: Manage the construction cache
//   - serve: Run the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
//
// # Configuration
//
// Settings are read from --config, ~/.config/molforge/config.toml and
// MOLFORGE_* environment variables, see package config.
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

// parseLevel maps a config log level to a logger level, falling back to
// info for unknown names.
func parseLevel(s string) log.Level {
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created,
// e.g. "Built four_plus_six (1.234s)".
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
