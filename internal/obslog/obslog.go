// Package obslog builds slog.Logger instances for Untangle's subsystems,
// keeping machine-readable results on stdout separate from diagnostics.
package obslog

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the handler used for a logger's output.
type Format string

const (
	// FormatText renders human-readable log lines.
	FormatText Format = "text"
	// FormatJSON renders one JSON object per log line.
	FormatJSON Format = "json"
)

// Factory constructs loggers for a given output format and level, always
// writing to the supplied writer (stderr in the CLI) so stdout stays free
// for the JSON/text/DOT/SARIF result envelope.
type Factory struct {
	w      io.Writer
	format Format
	level  slog.Level
}

// New creates a Factory. If w is nil, os.Stderr is used.
func New(w io.Writer, format Format, level slog.Level) *Factory {
	if w == nil {
		w = os.Stderr
	}
	return &Factory{w: w, format: format, level: level}
}

func (f *Factory) handler() slog.Handler {
	opts := &slog.HandlerOptions{Level: f.level}
	if f.format == FormatJSON {
		return slog.NewJSONHandler(f.w, opts)
	}
	return slog.NewTextHandler(f.w, opts)
}

// AnalysisLogger returns the logger used by discovery/parse/graph/metrics.
func (f *Factory) AnalysisLogger() *slog.Logger {
	return slog.New(f.handler()).With("component", "analysis")
}

// GitLogger returns the logger used by the revision reader's git backend.
func (f *Factory) GitLogger() *slog.Logger {
	return slog.New(f.handler()).With("component", "git")
}

// ConfigLogger returns a logger tagged component=config.
func (f *Factory) ConfigLogger() *slog.Logger {
	return slog.New(f.handler()).With("component", "config")
}

// LevelFromString maps a config/flag string to a slog.Level, defaulting to Info.
func LevelFromString(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
