package diag

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger reports warnings, tips and errors through zerolog.
type Logger struct {
	zlog   zerolog.Logger
	silent bool
}

// New wraps an existing zerolog logger.
func New(zlog zerolog.Logger) *Logger {
	return &Logger{zlog: zlog}
}

// NewConsole creates a human readable logger writing to w.
func NewConsole(w io.Writer) *Logger {
	writer := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return New(zerolog.New(writer).With().Timestamp().Logger())
}

// Default returns a console logger on stderr.
func Default() *Logger {
	return NewConsole(os.Stderr)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(zerolog.Nop())
}

// Zerolog exposes the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// SetSilent suppresses warnings and tips (errors are still logged).
func (l *Logger) SetSilent(silent bool) {
	l.silent = silent
}

// Silent reports whether warnings are suppressed.
func (l *Logger) Silent() bool {
	return l.silent
}

// Level returns a copy of the logger with a minimum level.
func (l *Logger) Level(level zerolog.Level) *Logger {
	return &Logger{zlog: l.zlog.Level(level), silent: l.silent}
}

// Warn logs a development warning. trace is the component trace, if any.
func (l *Logger) Warn(category Category, msg string, trace string) {
	if l.silent {
		return
	}
	evt := l.zlog.Warn().Str("category", string(category))
	if trace != "" {
		evt = evt.Str("trace", trace)
	}
	evt.Msg(msg)
}

// Tip logs an informational hint.
func (l *Logger) Tip(msg string, trace string) {
	if l.silent {
		return
	}
	evt := l.zlog.Info().Str("category", "tip")
	if trace != "" {
		evt = evt.Str("trace", trace)
	}
	evt.Msg(msg)
}

// Error logs an error that nobody handled.
func (l *Logger) Error(err error) {
	evt := l.zlog.Error().Err(err)
	if de, ok := err.(*Error); ok {
		evt = evt.Str("category", string(de.Category))
		if de.Component != "" {
			evt = evt.Str("component", de.Component)
		}
	}
	evt.Msg("unhandled error")
}

// Debug returns a debug event, e.g. for lifecycle transitions.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}
