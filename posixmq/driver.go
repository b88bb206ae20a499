package posixmq

import (
	"context"
	"os"
)

// driver is the namespace a Queue opens descriptors from:
// the system one (see driver_linux.go), or a MockNamespace.
type driver interface {
	// name is always canonical (with the leading "/").
	open(name string, cfg openConfig) (descriptor, error)
	unlink(name string) error
}

type openConfig struct {
	mode           AccessMode
	nonBlocking    bool
	create         bool
	perm           os.FileMode
	maxMessages    int64
	maxMessageSize int64
	notifySignal   os.Signal
}

// descriptor is a single open queue descriptor.
//
// All methods are safe for concurrent use.
// After close all pending and future calls fail with errors wrapping
// ErrClosed.
type descriptor interface {
	// send sends data.
	//
	// When wait is false or the descriptor is non-blocking, a full queue makes
	// it return an error wrapping ErrWouldBlock right away.
	// Otherwise it waits until there's room, or ctx is done.
	send(ctx context.Context, data []byte, prio uint, wait bool) error

	// receive receives the next message into buf.
	//
	// The wait semantics are the same as send's, on an empty queue.
	receive(ctx context.Context, buf []byte, wait bool) (n int, prio uint, err error)

	attributes() (Attributes, error)

	// notify arms a one-shot registration: fire is called from a goroutine
	// owned by the driver, once, when a message arrives on the empty queue.
	notify(fire func()) error

	close() error
}
