package retrybp

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go"

	"github.com/reddit/posixmq.go/errorsbp"
)

func init() {
	retry.DefaultAttempts = 1
	retry.DefaultDelay = 1 * time.Millisecond
	retry.DefaultMaxJitter = 5 * time.Millisecond
	retry.DefaultDelayType = backoffFunc(CappedExponentialBackoffArgs{
		InitialDelay: retry.DefaultDelay,
		MaxJitter:    retry.DefaultMaxJitter,
	})
	retry.DefaultLastErrorOnly = false
}

type contextKeyType struct{}

var contextKey contextKeyType

// WithOptions attaches options to ctx, to be picked up by Do.
func WithOptions(ctx context.Context, options ...retry.Option) context.Context {
	return context.WithValue(ctx, contextKey, options)
}

// GetOptions returns the options attached to ctx by WithOptions.
func GetOptions(ctx context.Context) (options []retry.Option, ok bool) {
	options, ok = ctx.Value(contextKey).([]retry.Option)
	return
}

// Do retries fn with retry.Do, applying defaults first and then the options
// attached to ctx by WithOptions.
//
// Differences from retry.Do:
//
// 1. Options can come from ctx, so callers of code that retries internally
// (for example mqpublish.Publisher.Put) can tune a single call.
//
// 2. When retry.Do returns a retry.Error, its errors are compiled into an
// errorsbp.Batch.
//
// retry.Context(ctx) is always applied first, so retries stop once ctx is
// done. It can be overridden by a retry.Context option in defaults or ctx.
func Do(ctx context.Context, fn func() error, defaults ...retry.Option) error {
	options, _ := GetOptions(ctx)
	mergedOptions := make([]retry.Option, 1, 1+len(defaults)+len(options))
	// Always do this as the first option, to allow overriding it in either
	// defaults or options from the ctx.
	mergedOptions[0] = retry.Context(ctx)
	mergedOptions = append(mergedOptions, defaults...)
	mergedOptions = append(mergedOptions, options...)
	err := retry.Do(fn, mergedOptions...)

	var retryErr retry.Error
	if errors.As(err, &retryErr) {
		var batchErr errorsbp.Batch
		batchErr.Add(retryErr.WrappedErrors()...)
		return batchErr.Compile()
	}

	return err
}
