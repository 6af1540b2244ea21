package braidsched

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger receives setup/teardown/error diagnostics. The hot path
// (Add/Join/Wait/the worker loop) never logs: a log call allocates and
// may touch a syscall, both of which violate the scheduling contract.
// The one exception is a parked worker's failed semaphore wait, which
// is logged through Error.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]any)        {}
func (noopLogger) Info(string, map[string]any)         {}
func (noopLogger) Error(string, error, map[string]any) {}

// zerologLogger adapts a zerolog.Logger to the Logger interface. This
// is the default production logger: structured, leveled, and
// allocation-light on the cold paths it's restricted to.
type zerologLogger struct {
	z zerolog.Logger
}

// NewZerologLogger builds a Logger backed by z, which is used as given
// (its writer, level and context fields are the caller's), following
// the same leveled-structured-logging shape the corpus's
// logiface/zerolog backend wraps for its own scheduler-adjacent
// packages.
func NewZerologLogger(z zerolog.Logger) Logger {
	return zerologLogger{z: z}
}

// DefaultLogger returns a zerolog-backed Logger writing to stderr at
// info level, suitable as a drop-in Config.Logger.
func DefaultLogger() Logger {
	z := zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	return NewZerologLogger(z)
}

func (l zerologLogger) Debug(msg string, fields map[string]any) {
	ev := l.z.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l zerologLogger) Info(msg string, fields map[string]any) {
	ev := l.z.Info()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l zerologLogger) Error(msg string, err error, fields map[string]any) {
	ev := l.z.Error().Err(err)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
