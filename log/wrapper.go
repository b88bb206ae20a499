package log

import (
	"context"
	stdlog "log"
	"testing"

	"go.uber.org/zap/zapcore"
)

// Wrapper is a simple wrapper of a logging function.
//
// Packages that only need to report the occasional failure (e.g. mqfs.Watch)
// take a Wrapper instead of depending on a concrete logger.
type Wrapper func(ctx context.Context, msg string)

// Log is the nil-safe way of calling a Wrapper.
//
// A nil Wrapper falls back to the logger attached to ctx at error level.
func (w Wrapper) Log(ctx context.Context, msg string) {
	if w == nil {
		C(ctx).Error(msg)
		return
	}
	w(ctx, msg)
}

// NopWrapper is a Wrapper implementation that does nothing.
func NopWrapper(context.Context, string) {}

// StdWrapper wraps stdlib log package into a Wrapper.
func StdWrapper(logger *stdlog.Logger) Wrapper {
	if logger == nil {
		return NopWrapper
	}
	return func(_ context.Context, msg string) {
		logger.Print(msg)
	}
}

// TestWrapper is a wrapper can be used in test codes.
//
// It fails the test when called.
func TestWrapper(tb testing.TB) Wrapper {
	return func(_ context.Context, msg string) {
		tb.Errorf("logger called with msg: %q", msg)
	}
}

// ZapWrapper wraps the zap logger attached to the context into a Wrapper,
// logging at logLevel.
func ZapWrapper(logLevel zapcore.Level) Wrapper {
	return func(ctx context.Context, msg string) {
		l := C(ctx)
		switch logLevel {
		default:
			// for unknown values, fallback to info level.
			fallthrough
		case zapcore.InfoLevel:
			l.Info(msg)
		case zapcore.DebugLevel:
			l.Debug(msg)
		case zapcore.WarnLevel:
			l.Warn(msg)
		case zapcore.ErrorLevel:
			l.Error(msg)
		case ZapNopLevel:
			// do nothing
		}
	}
}

// ErrorWithSentryWrapper is a Wrapper implementation that both logs the message
// at error level and sends it to sentry.
func ErrorWithSentryWrapper() Wrapper {
	return func(ctx context.Context, msg string) {
		ErrorWithSentry(ctx, msg, errorMessage(msg))
	}
}

type errorMessage string

func (e errorMessage) Error() string {
	return string(e)
}
