// Package logging provides a zerolog-backed es.Logger.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/getpup/pupsourcing/es"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Options configures the logger
type Options struct {
	Level     string
	Format    string
	Component string
	Writer    io.Writer
}

// Logger adapts a zerolog.Logger to es.Logger. Key/value arguments become
// structured fields, and the active trace ID is attached when ctx carries one.
type Logger struct {
	zl zerolog.Logger
}

// Compile-time check that Logger implements es.Logger.
var _ es.Logger = (*Logger)(nil)

// New builds a Logger. Format "console" writes human readable lines,
// anything else writes JSON.
func New(opt Options) *Logger {
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp()
	if opt.Component != "" {
		ctx = ctx.Str("component", opt.Component)
	}

	return &Logger{zl: ctx.Logger()}
}

// Named returns a child logger with a component field
func (l *Logger) Named(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, l.zl.Debug(), msg, args)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, l.zl.Info(), msg, args)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, l.zl.Error(), msg, args)
}

func (l *Logger) write(ctx context.Context, e *zerolog.Event, msg string, args []interface{}) {
	if e == nil {
		return
	}
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			e = e.Str("trace_id", sc.TraceID().String())
		}
	}
	if len(args) > 0 {
		e = e.Fields(args)
	}
	e.Msg(msg)
}

// ParseLevel supports string-only levels and defaults to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
