package courier

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Logger abstracts the logging functionality
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NewZerologLogger adapts a zerolog.Logger to the Logger interface.
// Args are interpreted as alternating key/value pairs.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{l: l}
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, args ...any) {
	z.l.Debug().Fields(fieldsFromArgs(args)).Msg(msg)
}

func (z *zerologLogger) Info(msg string, args ...any) {
	z.l.Info().Fields(fieldsFromArgs(args)).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, args ...any) {
	z.l.Warn().Fields(fieldsFromArgs(args)).Msg(msg)
}

func (z *zerologLogger) Error(msg string, args ...any) {
	z.l.Error().Fields(fieldsFromArgs(args)).Msg(msg)
}

func fieldsFromArgs(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	fields := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	if len(args)%2 != 0 {
		fields["arg"] = args[len(args)-1]
	}
	return fields
}
