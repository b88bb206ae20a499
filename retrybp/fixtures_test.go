package retrybp_test

import (
	"fmt"
	"syscall"

	"github.com/avast/retry-go"
)

const maxAttempts = 5

// alwaysRetry, neverRetry and deferToNext are Filters that decide
// unconditionally, or leave the decision to the rest of the chain.
func alwaysRetry(error, retry.RetryIfFunc) bool { return true }

func neverRetry(error, retry.RetryIfFunc) bool { return false }

func deferToNext(err error, next retry.RetryIfFunc) bool { return next(err) }

// sendAttempts stands in for a send that keeps failing.
//
// Every attempt returns err, or a wrapped EAGAIN numbered by attempt when err
// is nil.
type sendAttempts struct {
	calls int
	err   error
}

func (s *sendAttempts) send() error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return fmt.Errorf("attempt %d: %w", s.calls, syscall.EAGAIN)
}
