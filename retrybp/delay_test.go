package retrybp

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
	"time"
)

type randomBase int64

func (randomBase) Generate(r *rand.Rand, _ int) reflect.Value {
	var v int64
	if r.Float64() < 0.1 {
		// For 10% chance, generate a negative number.
		v = -r.Int63n(int64(math.MaxInt64))
	} else {
		v = r.Int63n(int64(math.MaxInt64))
	}
	return reflect.ValueOf(randomBase(v))
}

var _ quick.Generator = randomBase(0)

func TestMaxExponentForQuick(t *testing.T) {
	f := func(base randomBase) bool {
		actualBase := int64(base)
		if actualBase <= 0 {
			actualBase = 1
		}
		n := maxExponentFor(time.Duration(base))
		if m := uint64(actualBase) << uint64(n); int64(m) <= 0 {
			t.Errorf("%d << %d overflows", actualBase, n)
		}
		if m := uint64(actualBase) << uint64(n+1); int64(m) > 0 {
			t.Errorf("%d << (%d+1) does not overflow", actualBase, n)
		}
		return !t.Failed()
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestMaxExponentFor(t *testing.T) {
	for _, c := range []struct {
		base time.Duration
		want int
	}{
		{base: 0, want: 62},
		{base: 1, want: 62},
		{base: -1, want: 62},
		{base: time.Millisecond, want: 43},
	} {
		t.Run(fmt.Sprintf("%v", c.base), func(t *testing.T) {
			if got := maxExponentFor(c.base); got != c.want {
				t.Errorf("maxExponentFor(%v) expected %d, got %d", c.base, c.want, got)
			}
		})
	}
}

func TestCappedExponentialBackoff(t *testing.T) {
	for _, c := range []struct {
		label       string
		n           uint
		initial     time.Duration
		maxDelay    time.Duration
		maxExponent int
		maxJitter   time.Duration
		// The range of the expected result
		min, max time.Duration
	}{
		{
			label:   "first-retry",
			n:       0,
			initial: time.Millisecond,
			min:     time.Millisecond,
			max:     time.Millisecond,
		},
		{
			label:   "second-retry",
			n:       1,
			initial: time.Millisecond,
			min:     2 * time.Millisecond,
			max:     2 * time.Millisecond,
		},
		{
			label:   "auto-max-exponent",
			n:       9999,
			initial: time.Millisecond,
			max:     time.Duration(math.MaxInt64),
		},
		{
			label:       "max-exponent-too-high",
			n:           9999,
			initial:     time.Millisecond,
			maxExponent: 9998,
			max:         time.Duration(math.MaxInt64),
		},
		{
			label:       "max-exponent",
			n:           9999,
			initial:     time.Millisecond,
			maxExponent: 1,
			min:         2 * time.Millisecond,
			max:         2 * time.Millisecond,
		},
		{
			label:    "max-delay",
			n:        9999,
			initial:  time.Millisecond,
			maxDelay: 50 * time.Millisecond,
			min:      50 * time.Millisecond,
			max:      50 * time.Millisecond,
		},
		{
			label:     "max-delay-with-jitter",
			n:         9999,
			initial:   time.Millisecond,
			maxDelay:  50 * time.Millisecond,
			maxJitter: time.Millisecond,
			min:       50 * time.Millisecond,
			max:       51 * time.Millisecond,
		},
	} {
		t.Run(c.label, func(t *testing.T) {
			delay := backoffFunc(CappedExponentialBackoffArgs{
				InitialDelay: c.initial,
				MaxDelay:     c.maxDelay,
				MaxExponent:  c.maxExponent,
				MaxJitter:    c.maxJitter,
			})(c.n, nil, nil)
			if delay < c.min || delay > c.max {
				t.Errorf("Delay %v not in range [%v, %v]", delay, c.min, c.max)
			}
		})
	}
}

func TestCappedExponentialBackoffQuick(t *testing.T) {
	const (
		max = time.Duration(math.MaxInt64)
		n   = 9999
	)
	delayFunc := backoffFunc(CappedExponentialBackoffArgs{
		MaxJitter: max,
	})
	f := func() bool {
		delay := delayFunc(n, nil, nil)
		if delay > max || delay <= 0 {
			t.Errorf("Delay result overflew: %v", delay)
		}
		return !t.Failed()
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
