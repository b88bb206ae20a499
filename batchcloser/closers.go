package batchcloser

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/reddit/posixmq.go/errorsbp"
)

// CloseError is used to wrap the errors returned by the inner closers within a
// BatchCloser.
//
// It can be used to inspect both the error that was returned and the name of
// the io.Closer that caused it.
type CloseError struct {
	Cause error
	Name  string
}

// Error implements the interface for error.
func (err CloseError) Error() string {
	return fmt.Sprintf("batchcloser: error closing %s: %v", err.Name, err.Cause)
}

// Unwrap implements helper interface for errors.Is.
func (err CloseError) Unwrap() error {
	return err.Cause
}

// As implements helper interface for errors.As.
func (err CloseError) As(v interface{}) bool {
	if target, ok := v.(*CloseError); ok {
		*target = err
		return true
	}
	if target, ok := v.(**CloseError); ok {
		*target = &err
		return true
	}
	return errors.As(err.Cause, v)
}

type simpleCloser struct {
	close func() error
}

func (c simpleCloser) Close() error {
	return c.close()
}

// Wrap can be used wrap close functions in an io.Closer.
func Wrap(close func() error) io.Closer {
	return simpleCloser{close: close}
}

// WrapCancel can be used to wrap a context.CancelFunc in an io.Closer.
func WrapCancel(cancel context.CancelFunc) io.Closer {
	return Wrap(func() error {
		cancel()
		return nil
	})
}

type namedCloser struct {
	io.Closer
	name string
}

// New returns a pointer to a new BatchCloser initialized with the given closers.
func New(closers ...io.Closer) *BatchCloser {
	bc := &BatchCloser{}
	bc.Add(closers...)
	return bc
}

// BatchCloser is a collection of io.Closer objects that are all closed when
// BatchCloser.Close is called.
//
// Closers are closed in the reverse order they were added, like deferred
// calls.
type BatchCloser struct {
	closers []namedCloser
}

// Close implements io.Closer and closes all of its internal io.Closer objects,
// batching any errors into an errorsbp.Batch.
//
// The BatchCloser is empty after Close returns.
func (bc *BatchCloser) Close() error {
	var errs errorsbp.Batch
	for i := len(bc.closers) - 1; i >= 0; i-- {
		c := bc.closers[i]
		if err := c.Close(); err != nil {
			errs.Add(CloseError{
				Cause: err,
				Name:  c.name,
			})
		}
	}
	bc.closers = nil
	return errs.Compile()
}

// Add adds the given io.Closer objects to the BatchCloser.
//
// They are named by their types in errors.
// This is not safe to be called concurrently.
func (bc *BatchCloser) Add(closers ...io.Closer) {
	for _, c := range closers {
		bc.AddNamed(fmt.Sprintf("%T", c), c)
	}
}

// AddNamed adds an io.Closer with the name to be used in errors.
func (bc *BatchCloser) AddNamed(name string, closer io.Closer) {
	bc.closers = append(bc.closers, namedCloser{Closer: closer, name: name})
}

// Len returns the number of closers not closed yet.
func (bc *BatchCloser) Len() int {
	return len(bc.closers)
}

var (
	_ error     = CloseError{}
	_ error     = (*CloseError)(nil)
	_ io.Closer = simpleCloser{}
	_ io.Closer = (*BatchCloser)(nil)
)
