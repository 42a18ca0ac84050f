// Package obslog builds the structured loggers shared by itchygen,
// itchyparse and itchyserv, grounded on
// adred-codev-ws_poc/ws/internal/shared/monitoring/logger.go's
// zerolog setup.
package obslog

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors the CLI's -v/-d flags (spec.md §6): Info by default,
// Debug for -d, with -v only raising verbosity of specific messages
// logged at Info.
type Level int

const (
	LevelInfo Level = iota
	LevelDebug
)

// Format selects the writer: Pretty for an interactive terminal,
// JSON for log aggregation.
type Format int

const (
	FormatPretty Format = iota
	FormatJSON
)

// Config configures New.
type Config struct {
	Level     Level
	Format    Format
	Component string // e.g. "itchygen", "itchyparse", "itchyserv"
}

// New builds a zerolog.Logger for one of this module's command-line
// tools: a console writer when Format is FormatPretty (the zero
// value), or JSON output (Loki/Promtail-compatible) for FormatJSON.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stdout
	if cfg.Format == FormatPretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	level := zerolog.InfoLevel
	if cfg.Level == LevelDebug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(output).
		With().
		Timestamp().
		Str("component", cfg.Component).
		Logger()
}

// RecoverPanic logs a recovered panic with a stack trace without
// re-panicking, for use in a goroutine's deferred cleanup.
func RecoverPanic(logger zerolog.Logger, goroutineName string) {
	if r := recover(); r != nil {
		logger.Error().
			Str("goroutine", goroutineName).
			Interface("panic_value", r).
			Str("stack_trace", string(debug.Stack())).
			Msg("goroutine panic recovered")
	}
}
