// Package logging wraps slog.Logger with the field names used across the
// rank profile compiler.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/schatt/vespa/searchdef"
)

// Logger wraps slog.Logger with compiler-specific context
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler. A nil handler logs text at
// info level to stderr.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewWriter creates a Logger writing to w in format "text" or "json"
func NewWriter(w io.Writer, format string, level slog.Level) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
}

// Noop returns a Logger that discards everything
func Noop() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
}

// ParseLevel maps debug, info, warn and error to slog levels
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func (l *Logger) WithSchema(schema string) *Logger {
	return &Logger{Logger: l.Logger.With("schema", schema)}
}

// LogProfile logs one derived profile
func (l *Logger) LogProfile(ctx context.Context, profile string, properties int) {
	l.DebugContext(ctx, "profile derived",
		"profile", profile,
		"properties", properties,
	)
}

// LogSchema logs the outcome of compiling one schema. The schema name comes
// from WithSchema.
func (l *Logger) LogSchema(ctx context.Context, profiles int, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "schema compile failed",
			"kind", string(searchdef.KindOf(err)),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "schema compiled",
		"profiles", profiles,
		"took", took,
	)
}

// LogGeneration logs a stored config generation
func (l *Logger) LogGeneration(ctx context.Context, id string, profiles int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "generation save failed",
			"kind", string(searchdef.KindOf(err)),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "generation saved",
		"generation", id,
		"profiles", profiles,
	)
}
