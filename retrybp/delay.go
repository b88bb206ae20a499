package retrybp

import (
	"math"
	"time"

	retry "github.com/avast/retry-go"

	"github.com/reddit/posixmq.go/randbp"
)

// CappedExponentialBackoffArgs defines the args used in
// CappedExponentialBackoff retry option.
//
// All args are optional.
type CappedExponentialBackoffArgs struct {
	// The delay before the first retry.
	// If <=0, retry.DefaultDelay will be used, or 1ns when that's <=0 too.
	InitialDelay time.Duration

	// The cap of InitialDelay<<n. If <=0, it's only capped by MaxExponent.
	//
	// MaxJitter is added on top, so the actual max delay is MaxDelay+MaxJitter.
	MaxDelay time.Duration

	// Caps n in InitialDelay<<n (n being the number of retries so far).
	//
	// If <=0 or too high, it's set to the highest value that doesn't overflow
	// int64 for InitialDelay.
	// It doesn't limit the number of retries.
	MaxExponent int

	// Max random jitter added to each delay. If <=0, no jitter is added.
	MaxJitter time.Duration
}

// CappedExponentialBackoff is an exponential backoff delay that never
// overflows.
//
// It's used by mqpublish between attempts on a full queue.
func CappedExponentialBackoff(args CappedExponentialBackoffArgs) retry.Option {
	return retry.DelayType(backoffFunc(args))
}

func backoffFunc(args CappedExponentialBackoffArgs) retry.DelayTypeFunc {
	base := args.InitialDelay
	if base <= 0 {
		base = retry.DefaultDelay
	}
	if base <= 0 {
		base = 1
	}

	maxExponent := uint(maxExponentFor(base))
	if args.MaxExponent > 0 && uint(args.MaxExponent) < maxExponent {
		maxExponent = uint(args.MaxExponent)
	}

	return func(n uint, _ error, _ *retry.Config) time.Duration {
		if n > maxExponent {
			n = maxExponent
		}
		delay := uint64(base) << n
		if args.MaxDelay > 0 && delay > uint64(args.MaxDelay) {
			delay = uint64(args.MaxDelay)
		}
		if args.MaxJitter > 0 {
			delay += uint64(randbp.R.Int63n(int64(args.MaxJitter)))
		}
		// base<<maxExponent fits, the jitter might not.
		if delay > math.MaxInt64 {
			delay = math.MaxInt64
		}
		return time.Duration(delay)
	}
}

// maxExponentFor returns the largest n with base<<n fitting in int64.
func maxExponentFor(base time.Duration) int {
	if base <= 0 {
		base = 1
	}
	return 62 - int(math.Floor(math.Log2(float64(base))))
}

// FixedDelay is a delay option to use fixed delay between retries.
//
// It's the same as combining retry.Delay and retry.DelayType(retry.FixedDelay),
// in a single option.
func FixedDelay(delay time.Duration) retry.Option {
	return retry.DelayType(FixedDelayFunc(delay))
}

// FixedDelayFunc is a retry.DelayTypeFunc implementation causing fixed delays.
func FixedDelayFunc(delay time.Duration) retry.DelayTypeFunc {
	return func(_ uint, _ error, _ *retry.Config) time.Duration {
		return delay
	}
}
