// Package observability carries the logging, metrics and tracing used across
// the engine, the resolver and the command line tool.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"
)

// Logger is the structured logger used by managers, resolvers and tools.
// Messages are mtlog message templates: "Built {ResourceId}".
type Logger interface {
	Verbose(messageTemplate string, args ...any)
	VerboseContext(ctx context.Context, messageTemplate string, args ...any)

	Debug(messageTemplate string, args ...any)
	DebugContext(ctx context.Context, messageTemplate string, args ...any)

	Info(messageTemplate string, args ...any)
	InfoContext(ctx context.Context, messageTemplate string, args ...any)

	Warn(messageTemplate string, args ...any)
	WarnContext(ctx context.Context, messageTemplate string, args ...any)

	Error(messageTemplate string, args ...any)
	ErrorContext(ctx context.Context, messageTemplate string, args ...any)

	// ForContext creates a child logger with an additional property
	ForContext(key string, value any) Logger
}

// LogLevel represents log verbosity level
type LogLevel int

const (
	// VerboseLevel is the most detailed logging level.
	VerboseLevel LogLevel = iota
	// DebugLevel is for debug messages.
	DebugLevel
	// InfoLevel is for informational messages.
	InfoLevel
	// WarnLevel is for warning messages.
	WarnLevel
	// ErrorLevel is for error messages.
	ErrorLevel
)

var levelNames = map[string]LogLevel{
	"verbose": VerboseLevel,
	"debug":   DebugLevel,
	"info":    InfoLevel,
	"warn":    WarnLevel,
	"warning": WarnLevel,
	"error":   ErrorLevel,
}

// ParseLogLevel converts a level name such as "debug" into a LogLevel.
func ParseLogLevel(name string) (LogLevel, error) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

type mtlogAdapter struct {
	logger core.Logger
}

// NewLogger creates a console logger writing to output at the given minimum level.
func NewLogger(output io.Writer, level LogLevel) Logger {
	opts := []mtlog.Option{
		mtlog.WithSink(sinks.NewConsoleSinkWithWriter(output)),
		mtlog.WithTimestamp(),
	}

	switch level {
	case VerboseLevel:
		opts = append(opts, mtlog.Verbose())
	case DebugLevel:
		opts = append(opts, mtlog.Debug())
	case InfoLevel:
		opts = append(opts, mtlog.Information())
	case WarnLevel:
		opts = append(opts, mtlog.Warning())
	case ErrorLevel:
		opts = append(opts, mtlog.Error())
	}

	return &mtlogAdapter{logger: mtlog.New(opts...)}
}

// NewDefaultLogger creates a logger writing to stderr at Info level, so
// command output on stdout stays machine readable.
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, InfoLevel)
}

// OrNull returns l, or a logger that discards everything when l is nil.
func OrNull(l Logger) Logger {
	if l == nil {
		return NewNullLogger()
	}
	return l
}

func (a *mtlogAdapter) Verbose(messageTemplate string, args ...any) {
	a.logger.Verbose(messageTemplate, args...)
}

func (a *mtlogAdapter) VerboseContext(ctx context.Context, messageTemplate string, args ...any) {
	a.logger.VerboseContext(ctx, messageTemplate, args...)
}

func (a *mtlogAdapter) Debug(messageTemplate string, args ...any) {
	a.logger.Debug(messageTemplate, args...)
}

func (a *mtlogAdapter) DebugContext(ctx context.Context, messageTemplate string, args ...any) {
	a.logger.DebugContext(ctx, messageTemplate, args...)
}

func (a *mtlogAdapter) Info(messageTemplate string, args ...any) {
	a.logger.Info(messageTemplate, args...)
}

func (a *mtlogAdapter) InfoContext(ctx context.Context, messageTemplate string, args ...any) {
	a.logger.InfoContext(ctx, messageTemplate, args...)
}

func (a *mtlogAdapter) Warn(messageTemplate string, args ...any) {
	a.logger.Warn(messageTemplate, args...)
}

func (a *mtlogAdapter) WarnContext(ctx context.Context, messageTemplate string, args ...any) {
	a.logger.WarnContext(ctx, messageTemplate, args...)
}

func (a *mtlogAdapter) Error(messageTemplate string, args ...any) {
	a.logger.Error(messageTemplate, args...)
}

func (a *mtlogAdapter) ErrorContext(ctx context.Context, messageTemplate string, args ...any) {
	a.logger.ErrorContext(ctx, messageTemplate, args...)
}

func (a *mtlogAdapter) ForContext(key string, value any) Logger {
	return &mtlogAdapter{logger: a.logger.ForContext(key, value)}
}

type nullLogger struct{}

// NewNullLogger creates a logger that discards all output
func NewNullLogger() Logger {
	return nullLogger{}
}

func (nullLogger) Verbose(string, ...any)                         {}
func (nullLogger) VerboseContext(context.Context, string, ...any) {}
func (nullLogger) Debug(string, ...any)                           {}
func (nullLogger) DebugContext(context.Context, string, ...any)   {}
func (nullLogger) Info(string, ...any)                            {}
func (nullLogger) InfoContext(context.Context, string, ...any)    {}
func (nullLogger) Warn(string, ...any)                            {}
func (nullLogger) WarnContext(context.Context, string, ...any)    {}
func (nullLogger) Error(string, ...any)                           {}
func (nullLogger) ErrorContext(context.Context, string, ...any)   {}
func (n nullLogger) ForContext(string, any) Logger                { return n }
