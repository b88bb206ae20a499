// Package posixmq is a pure go (no cgo) client of posix named message queues.
//
// A Queue is a handle owning a single queue descriptor. It's built from
// Options, which carry the access mode, blocking mode, the limits used when
// creating the queue, and the Handler of received messages:
//
//	q := posixmq.NewQueue(posixmq.ReadWrite().WithHandler(handler))
//	if err := q.Create("my-queue"); err != nil {
//	  // handle err
//	}
//	defer q.Close()
//
//	if err := q.Publish(ctx, []byte("hello, world!")); err != nil {
//	  // handle err
//	}
//
//	// Blocks until ctx is done or q is closed.
//	err := q.Receive(ctx)
//
// Instead of running a Receive loop, a Queue can also register for
// notifications with Notify, and have messages dispatched to the Handler as
// they arrive on the empty queue.
//
// The system namespace is only supported on linux. MockNamespace provides an
// in-memory namespace with the same semantics on all platforms, for tests.
//
// All messages are sent with the same Priority, so the order of messages
// within a queue is FIFO.
package posixmq
