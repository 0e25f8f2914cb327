// Package mtlog wraps log/slog with planner-specific structured fields,
// following the logging shape the rest of the corpus uses: a thin struct
// embedding *slog.Logger plus fluent With* helpers and Log* call sites,
// all of which log at Debug level.
package mtlog

import (
	"context"
	"log/slog"
	"os"
	"strconv"
)

// Logger wraps slog.Logger with planner-specific context.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSON creates a Logger that outputs JSON-formatted logs.
func NewJSON(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewText creates a Logger that outputs human-readable text logs.
func NewText(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// Noop creates a Logger that discards all log output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable
	}))}
}

// WithPart adds a part name field to the logger.
func (l *Logger) WithPart(name string) *Logger {
	return &Logger{Logger: l.Logger.With("part", name)}
}

// WithMarks adds a mark-count field to the logger.
func (l *Logger) WithMarks(marks int) *Logger {
	return &Logger{Logger: l.Logger.With("marks", marks)}
}

// WithQuery adds a query identifier field to the logger.
func (l *Logger) WithQuery(id string) *Logger {
	return &Logger{Logger: l.Logger.With("query", id)}
}

// LogKeyCondition emits the stable "Key condition: <s>" debug line.
func (l *Logger) LogKeyCondition(ctx context.Context, s string) {
	l.DebugContext(ctx, "Key condition: "+s)
}

// LogDateCondition emits the stable "Date condition: <s>" debug line.
func (l *Logger) LogDateCondition(ctx context.Context, s string) {
	l.DebugContext(ctx, "Date condition: "+s)
}

// LogSampleSize emits the stable "Selected relative sample size: <x>" line.
func (l *Logger) LogSampleSize(ctx context.Context, relative float64) {
	l.DebugContext(ctx, "Selected relative sample size: "+strconv.FormatFloat(relative, 'g', -1, 64))
}

// LogPlanSummary emits the stable part/mark/range summary line.
func (l *Logger) LogPlanSummary(ctx context.Context, partsByDate, partsByKey, marks, ranges int) {
	l.DebugContext(ctx,
		"Selected "+strconv.Itoa(partsByDate)+" parts by date, "+strconv.Itoa(partsByKey)+" parts by key, "+
			strconv.Itoa(marks)+" marks to read from "+strconv.Itoa(ranges)+" ranges")
}
