package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

// DefaultSentryFlushTimeout is how long the Closer returned by InitSentry
// waits for pending events when SentryConfig.FlushTimeout is unset.
const DefaultSentryFlushTimeout = 2 * time.Second

// ErrSentryFlushFailed is wrapped by the error of the Closer returned by
// InitSentry when pending events could not be sent in time.
var ErrSentryFlushFailed = errors.New("log: sentry flushing failed")

// SentryConfig configures the sentry reporting of handler failures and
// notification errors.
//
// The zero value reports nothing unless SENTRY_DSN is set.
type SentryConfig struct {
	// DSN of the sentry project, falls back to $SENTRY_DSN.
	DSN string `yaml:"dsn"`

	// SampleRate in [0, 1]. Unset or out of range means 1.
	SampleRate *float64 `yaml:"sampleRate"`

	ServerName  string `yaml:"serverName"`
	Environment string `yaml:"environment"`

	// Regular expressions of error messages never reported.
	IgnoreErrors []string `yaml:"ignoreErrors"`

	// FlushTimeout defaults to DefaultSentryFlushTimeout.
	FlushTimeout time.Duration `yaml:"flushTimeout"`
}

func (cfg SentryConfig) sampleRate() float64 {
	if cfg.SampleRate == nil || *cfg.SampleRate < 0 || *cfg.SampleRate > 1 {
		return 1
	}
	return *cfg.SampleRate
}

// InitSentry sets up the global sentry hub used by ErrorWithSentry.
//
// Events carry Version as their release, and as the "version" tag.
// Close the returned io.Closer before exiting to flush pending events,
// mqctl does so through its batchcloser.
func InitSentry(cfg SentryConfig) (io.Closer, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:          cfg.DSN,
		SampleRate:   cfg.sampleRate(),
		ServerName:   cfg.ServerName,
		Environment:  cfg.Environment,
		IgnoreErrors: cfg.IgnoreErrors,
		Release:      Version,
	})
	if err != nil {
		return nil, err
	}
	if Version != "" {
		sentry.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("version", Version)
		})
	}
	return flusher(cfg.FlushTimeout), nil
}

// flusher is the io.Closer returned by InitSentry.
type flusher time.Duration

func (f flusher) Close() error {
	timeout := time.Duration(f)
	if timeout <= 0 {
		timeout = DefaultSentryFlushTimeout
	}
	if !sentry.Flush(timeout) {
		return fmt.Errorf("log: sentry not flushed after %v: %w", timeout, ErrSentryFlushFailed)
	}
	return nil
}

// ErrorWithSentry logs err at error level with the logger of ctx and reports
// it to sentry.
//
// The receive loop uses it for handler failures that are not suppressed.
// keysAndValues are logged like the ones of Errorw, and also become tags of
// the sentry event. zap.Field values are only logged.
//
// The event goes to the hub of ctx (sentry.SetHubOnContext) when there is
// one, and to the global hub otherwise.
func ErrorWithSentry(ctx context.Context, msg string, err error, keysAndValues ...interface{}) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if len(keysAndValues) > 0 {
		hub = hub.Clone()
		var dangling bool
		hub.ConfigureScope(func(scope *sentry.Scope) {
			dangling = extractKeyValuePairs(keysAndValues, scope.SetTag)
		})
		if dangling {
			Errorw("log: odd number of keysAndValues passed to ErrorWithSentry", "keysAndValues", keysAndValues)
		}
	}

	C(ctx).Errorw(msg, append(keysAndValues, "err", err)...)
	hub.CaptureException(err)
}

// extractKeyValuePairs calls f with every key-value pair of keysAndValues,
// formatted with %v and skipping zap fields.
//
// It reports whether a key was left without a value.
func extractKeyValuePairs(keysAndValues []interface{}, f func(key, value string)) (danglingKey bool) {
	var key interface{}
	var haveKey bool
	for _, kv := range keysAndValues {
		if _, ok := kv.(zapcore.Field); ok {
			continue
		}
		if !haveKey {
			key, haveKey = kv, true
			continue
		}
		f(fmt.Sprint(key), fmt.Sprint(kv))
		haveKey = false
	}
	return haveKey
}
