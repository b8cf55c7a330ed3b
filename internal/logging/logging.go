// Package logging provides zerolog-based structured logging for newsbatch.
//
// All long-running code paths receive their logger through context
// (FromContext / WithContext) so that the CLI can configure output once and
// every component inherits level, format, and destination. Components tag
// their events with a "component" field via ComponentLogger.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit ("debug", "info", "warn", "error").
	Level string

	// Format selects "console" (human-readable, default) or "json".
	Format string

	// File, when non-empty, appends logs to this path in addition to stderr.
	File string
}

// Result reports how the logger was actually set up, so the CLI can tell the
// user where logs are going and can close the file handle on shutdown.
type Result struct {
	Logger    zerolog.Logger
	UsingFile bool
	FilePath  string

	file *os.File
}

// Close releases the log file handle if one was opened.
func (r *Result) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// New builds a logger from cfg. An unparsable level falls back to info. If the
// configured file cannot be opened, logging continues on stderr only and
// UsingFile is false; the caller decides whether to warn.
func New(cfg Config) Result {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Format == "json" {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	result := Result{}
	if cfg.File != "" {
		f, openErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if openErr == nil {
			writers = append(writers, f)
			result.UsingFile = true
			result.FilePath = cfg.File
			result.file = f
		}
	}

	result.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return result
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithContext stores the logger in ctx for retrieval via FromContext.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext retrieves the logger stored in ctx. If none was stored, it
// returns a disabled-by-default logger at the zerolog global level, so library
// code never needs a nil check.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
