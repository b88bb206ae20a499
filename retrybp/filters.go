package retrybp

import (
	"context"
	"errors"
	"syscall"

	retry "github.com/avast/retry-go"
	"github.com/sony/gobreaker"
)

const (
	// DefaultFilterDecision is the default decision returned by Filters at the end
	// of the filter chain.
	DefaultFilterDecision = false
)

func fallback(_ error) bool {
	return DefaultFilterDecision
}

var _ retry.RetryIfFunc = fallback

func chain(current Filter, next retry.RetryIfFunc) retry.RetryIfFunc {
	return func(err error) bool {
		return current(err, next)
	}
}

// Filters returns a retry.RetryIf option running err through filters in order,
// falling back to DefaultFilterDecision when none decides.
//
// It replaces any other retry.RetryIf option.
func Filters(filters ...Filter) retry.Option {
	retryIf := fallback
	for i := len(filters) - 1; i >= 0; i-- {
		retryIf = chain(filters[i], retryIf)
	}
	return retry.RetryIf(retryIf)
}

// Filter decides whether the operation failing with err should be retried.
//
// A Filter implements a single check. When the check doesn't apply to err
// it calls next.
type Filter func(err error, next retry.RetryIfFunc) bool

// ContextErrorFilter returns false if the error is context.Cancelled
// or context.DeadlineExceeded, otherwise it calls the next filter in the chain.
func ContextErrorFilter(err error, next retry.RetryIfFunc) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	return next(err)
}

// ErrnoFilter returns a Filter that returns true when err is any of errnos,
// and otherwise calls the next filter in the chain.
func ErrnoFilter(errnos ...syscall.Errno) Filter {
	return func(err error, next retry.RetryIfFunc) bool {
		for _, errno := range errnos {
			if errors.Is(err, errno) {
				return true
			}
		}
		return next(err)
	}
}

// InterruptedErrorFilter retries syscall.EINTR.
//
// A syscall interrupted by a signal handler has not taken effect,
// so it's always safe to retry it right away.
var InterruptedErrorFilter = ErrnoFilter(syscall.EINTR)

// RetryableError defines an optional error interface to return retryable info.
type RetryableError interface {
	error

	// 0 means no decision, >0 retryable, <0 not retryable.
	Retryable() int
}

// RetryableErrorFilter decides by RetryableError when err implements it with
// a non-zero Retryable, and returns false for errors wrapped by
// retry.Unrecoverable. Otherwise it calls the next filter in the chain.
//
// It should usually come first, so Unrecoverable and Retryable override the
// other filters.
func RetryableErrorFilter(err error, next retry.RetryIfFunc) bool {
	var re RetryableError
	if errors.As(err, &re) {
		if v := re.Retryable(); v != 0 {
			return v > 0
		}
	} else if !retry.IsRecoverable(err) {
		// In case users are mistakenly using retry.Unrecoverable instead of
		// retrybp.Unrecoverable.
		return false
	}
	return next(err)
}

// BreakerErrorFilter retries the errors of an open (gobreaker.ErrOpenState) or
// rate limited half-open (gobreaker.ErrTooManyRequests) breakerbp breaker.
//
// Only use it together with a backoff such as CappedExponentialBackoff.
func BreakerErrorFilter(err error, next retry.RetryIfFunc) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	return next(err)
}

type retryableWrapper struct {
	err       error
	retryable int
}

func (e retryableWrapper) Error() string {
	return e.err.Error()
}

func (e retryableWrapper) Unwrap() error {
	return e.err
}

func (e retryableWrapper) Retryable() int {
	return e.retryable
}

// Unrecoverable marks err as not retryable for RetryableErrorFilter,
// overriding the filters after it.
//
// Unlike retry.Unrecoverable, the returned error unwraps to err.
func Unrecoverable(err error) error {
	if err == nil {
		return nil
	}
	return retryableWrapper{
		err:       err,
		retryable: -1,
	}
}

// Retryable marks err as retryable for RetryableErrorFilter,
// overriding the filters after it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableWrapper{
		err:       err,
		retryable: 1,
	}
}

var (
	_ Filter = ContextErrorFilter
	_ Filter = RetryableErrorFilter
	_ Filter = BreakerErrorFilter

	_ RetryableError = retryableWrapper{}
)
