// Package log is a thin wrapper around [log/slog] with a process-wide
// logger whose level and output can be changed after startup.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

type (
	Attr    = slog.Attr
	Handler = slog.Handler
)

var DiscardHandler = slog.DiscardHandler

// Logger is the minimal printf-style logger accepted by the MQTT client.
type Logger interface {
	Println(v ...any)
	Printf(format string, v ...any)
}

type logger struct {
	*slog.Logger
	with  []any
	group string
}

var level = new(slog.LevelVar)

var defaultLogger = &logger{
	Logger: slog.New(slog.NewTextHandler(os.Stdout, handlerOptions())),
}

// handlerOptions names the levels slog has no name for.
func handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if l, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(Level(l).String())
				}
			}
			return a
		},
	}
}

// With adds args to every subsequent log record of the default logger.
func With(args ...any) {
	defaultLogger.Logger = defaultLogger.Logger.With(args...)
	defaultLogger.with = append(defaultLogger.with, args...)
}

// WithGroup qualifies every subsequent attribute with name.
func WithGroup(name string) {
	defaultLogger.Logger = defaultLogger.Logger.WithGroup(name)
	defaultLogger.group = name
}

func DefaultLogger() Logger {
	return defaultLogger
}

// Slog returns the underlying [slog.Logger].
func Slog() *slog.Logger {
	return defaultLogger.Logger
}

// SetLogLevel sets the minimum level of the default logger.
func SetLogLevel(l Level) {
	level.Set(slog.Level(l))
}

// LogLevel returns the minimum level of the default logger.
func LogLevel() Level {
	return Level(level.Level())
}

// Enabled reports whether the default logger emits records at l.
func Enabled(l Level) bool {
	return defaultLogger.Enabled(context.Background(), slog.Level(l))
}

// SetHandler sets the default logger's handler to the one given.
func SetHandler(h Handler) {
	l := slog.New(h)
	if defaultLogger.group != "" {
		l = l.WithGroup(defaultLogger.group)
	}
	defaultLogger.Logger = l.With(defaultLogger.with...)
}

// SetOutput sends text formatted records to w.
func SetOutput(w io.Writer) {
	SetTextHandler(w)
}

func SetTextHandler(w io.Writer) {
	SetHandler(slog.NewTextHandler(w, handlerOptions()))
}

func SetJSONHandler(w io.Writer) {
	SetHandler(slog.NewJSONHandler(w, handlerOptions()))
}

func Error(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"cause", err}, args...)
	}
	defaultLogger.Error(msg, args...)
}

// Fatal logs at [LevelFatal] and exits with status 1.
func Fatal(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"cause", err}, args...)
	}
	defaultLogger.Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// WarnError logs at [LevelWarn] with err as the "cause" attribute.
func WarnError(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"cause", err}, args...)
	}
	defaultLogger.Warn(msg, args...)
}

func Notice(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelNotice, msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Debug logs at [LevelDebug]
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Trace logs at [LevelTrace]
func Trace(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelTrace, msg, args...)
}

func Println(v ...any) {
	defaultLogger.Info(fmt.Sprintln(v...))
}

func Printf(format string, v ...any) {
	defaultLogger.Info(fmt.Sprintf(format, v...))
}

func (l *logger) Println(v ...any) {
	l.Info(fmt.Sprintln(v...))
}

func (l *logger) Printf(format string, v ...any) {
	l.Info(fmt.Sprintf(format, v...))
}

func (l *logger) Log(ctx context.Context, level Level, msg string, args ...any) {
	l.Logger.Log(ctx, slog.Level(level), msg, args...)
}

func (l *logger) LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr) {
	l.Logger.LogAttrs(ctx, slog.Level(level), msg, attrs...)
}

type warnLogger struct{}

func WarnLogger() Logger {
	return warnLogger{}
}
func (warnLogger) Println(v ...any)               { Warn(fmt.Sprintln(v...)) }
func (warnLogger) Printf(format string, v ...any) { Warn(fmt.Sprintf(format, v...)) }

type errorLogger struct{}

func ErrorLogger() Logger {
	return errorLogger{}
}
func (errorLogger) Println(v ...any)               { defaultLogger.Error(fmt.Sprintln(v...)) }
func (errorLogger) Printf(format string, v ...any) { defaultLogger.Error(fmt.Sprintf(format, v...)) }

type debugLogger struct{}

// DebugLogger returns a [Logger] that logs at [LevelDebug]
func DebugLogger() Logger {
	return debugLogger{}
}
func (debugLogger) Println(v ...any)               { Debug(fmt.Sprintln(v...)) }
func (debugLogger) Printf(format string, v ...any) { Debug(fmt.Sprintf(format, v...)) }
