// Package logging adapts charmbracelet/log to the ports.Logger contract used by
// the event publisher and the watch loop.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cblog "github.com/charmbracelet/log"

	"github.com/alexisbeaulieu97/volsource/internal/ports"
)

// Options configures the adapter.
type Options struct {
	Writer io.Writer
	Level  string
	// Human selects the text formatter; JSON is used otherwise.
	Human     bool
	Layer     string
	Component string
}

// Logger implements ports.Logger using charmbracelet/log.
type Logger struct {
	base  *cblog.Logger
	layer string
}

// New creates a Logger writing to opts.Writer (stderr by default).
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	formatter := cblog.JSONFormatter
	if opts.Human {
		formatter = cblog.TextFormatter
	}

	base := cblog.NewWithOptions(writer, cblog.Options{
		Level:           level,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		Formatter:       formatter,
	})
	if opts.Component != "" {
		base = base.With("component", opts.Component)
	}

	layer := opts.Layer
	if layer == "" {
		layer = "infrastructure"
	}
	return &Logger{base: base, layer: layer}, nil
}

// Debug emits a debug log entry.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.DebugLevel, msg, fields)
}

// Info emits an info log entry.
func (l *Logger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.InfoLevel, msg, fields)
}

// Warn emits a warning log entry.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.WarnLevel, msg, fields)
}

// Error emits an error log entry.
func (l *Logger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.ErrorLevel, msg, fields)
}

// With derives a logger that always writes fields.
func (l *Logger) With(fields ...interface{}) ports.Logger {
	if l == nil || l.base == nil {
		return NewNoOpLogger()
	}
	return &Logger{base: l.base.With(normalize(fields)...), layer: l.layer}
}

func (l *Logger) log(ctx context.Context, level cblog.Level, msg string, fields []interface{}) {
	if l == nil || l.base == nil {
		return
	}
	payload := normalize(fields)
	payload = append(payload, "layer", l.layer)
	if id := ports.GetCorrelationID(ctx); id != "" {
		payload = append(payload, "correlation_id", id)
	}
	l.base.Log(level, msg, payload...)
}

// normalize drops pairs without a string key and renders errors as text so the
// JSON formatter does not print them as empty objects.
func normalize(fields []interface{}) []interface{} {
	out := make([]interface{}, 0, len(fields)+4)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok || key == "" {
			continue
		}
		value := fields[i+1]
		if err, isErr := value.(error); isErr && err != nil {
			value = err.Error()
		}
		out = append(out, key, value)
	}
	return out
}

var _ ports.Logger = (*Logger)(nil)
