package logger

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"sort"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Logger adapts a slog.Logger to runtime.Logger so the same match and
// service code logs under Nakama and in standalone tools.
type Logger struct {
	log    *slog.Logger
	fields map[string]interface{}
}

var _ runtime.Logger = (*Logger)(nil)

// New builds a Logger writing to w. A nil w means stdout.
func New(w io.Writer, level string, json bool) *Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{log: slog.New(handler), fields: map[string]interface{}{}}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l *Logger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

// WithFields returns a child logger. Keys are attached in sorted order so
// output is stable.
func (l *Logger) WithFields(fields map[string]interface{}) runtime.Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, fields[k])
	}

	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &Logger{log: l.log.With(args...), fields: merged}
}

// Fields returns a copy of the fields attached so far.
func (l *Logger) Fields() map[string]interface{} {
	return maps.Clone(l.fields)
}
