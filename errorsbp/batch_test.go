package errorsbp_test

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/reddit/posixmq.go/errorsbp"
)

func TestBatchCompile(t *testing.T) {
	err1 := errors.New("foo")
	err2 := syscall.EBADF

	for _, c := range []struct {
		label string
		errs  []error
		size  int
		want  string
	}{
		{
			label: "empty",
		},
		{
			label: "nils",
			errs:  []error{nil, nil},
		},
		{
			label: "single",
			errs:  []error{nil, err1},
			size:  1,
			want:  "foo",
		},
		{
			label: "multiple",
			errs:  []error{err1, nil, err2},
			size:  2,
			want:  "2 errors: foo; bad file descriptor",
		},
	} {
		t.Run(c.label, func(t *testing.T) {
			var batch errorsbp.Batch
			batch.Add(c.errs...)
			err := batch.Compile()
			if got := errorsbp.BatchSize(err); got != c.size {
				t.Errorf("BatchSize got %d, want %d", got, c.size)
			}
			if c.size == 0 {
				if err != nil {
					t.Errorf("Expected nil, got %v", err)
				}
				return
			}
			if got := err.Error(); got != c.want {
				t.Errorf("Error() got %q, want %q", got, c.want)
			}
		})
	}
}

func TestBatchFlatten(t *testing.T) {
	var inner errorsbp.Batch
	inner.Add(errors.New("a"), errors.New("b"))

	var outer errorsbp.Batch
	outer.Add(errors.New("c"))
	outer.AddPrefix("inner", inner)
	if got := outer.Len(); got != 3 {
		t.Fatalf("Len got %d, want 3", got)
	}
	errs := outer.GetErrors()
	if got, want := errs[1].Error(), "inner: a"; got != want {
		t.Errorf("Got %q, want %q", got, want)
	}
}

func TestBatchIsAs(t *testing.T) {
	var batch errorsbp.Batch
	batch.Add(errors.New("foo"))
	batch.AddPrefix("close", fmt.Errorf("wrapped: %w", syscall.EBADF))
	err := batch.Compile()

	if !errors.Is(err, syscall.EBADF) {
		t.Errorf("Expected errors.Is EBADF to be true on %v", err)
	}
	if errors.Is(err, syscall.EAGAIN) {
		t.Errorf("Expected errors.Is EAGAIN to be false on %v", err)
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) || errno != syscall.EBADF {
		t.Errorf("Expected errors.As to find EBADF, got %v", errno)
	}
	var pe *errorsbp.PrefixedError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *PrefixedError in %v", err)
	}
	if got := pe.Prefix(); got != "close" {
		t.Errorf("Prefix() got %q, want %q", got, "close")
	}
	var be errorsbp.Batch
	if !errors.As(err, &be) || be.Len() != 2 {
		t.Errorf("Expected errors.As to return the batch, got %v", be)
	}
}

func TestPrefixError(t *testing.T) {
	if err := errorsbp.PrefixError("foo", nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
	cause := errors.New("bar")
	if err := errorsbp.PrefixError("", cause); err != cause {
		t.Errorf("Expected cause as-is, got %v", err)
	}
	err := errorsbp.PrefixError("100%s", cause)
	if got, want := err.Error(), "100%s: bar"; got != want {
		t.Errorf("Error() got %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected %v to wrap %v", err, cause)
	}
}
