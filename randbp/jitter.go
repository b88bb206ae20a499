package randbp

import (
	"time"
)

// JitterRatio returns a random ratio in (1-jitter, 1+jitter].
//
// jitter is capped at 1, and jitter <= 0 always returns 1.
func JitterRatio(jitter float64) float64 {
	switch {
	case jitter <= 0:
		return 1
	case jitter > 1:
		jitter = 1
	}
	return 1 + (1-2*R.Float64())*jitter
}

// JitterDuration returns center scaled by JitterRatio(jitter).
//
// breakerbp uses it to spread the open state timeouts of breakers that
// tripped together.
func JitterDuration(center time.Duration, jitter float64) time.Duration {
	return time.Duration(float64(center) * JitterRatio(jitter))
}
