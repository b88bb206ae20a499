package posixmq

import (
	"context"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/eapache/queue"
)

// MockNamespace is an in-memory namespace of message queues.
//
// It works on all platforms and needs no system resources,
// so it's meant to be used in tests of code using this package:
//
//	ns := posixmq.NewMockNamespace()
//	q := ns.NewQueue(posixmq.ReadWrite())
//	if err := q.Create("my-queue"); err != nil {
//	  // handle err
//	}
//
// Queues in a MockNamespace follow the same semantics as system ones,
// including the notification rules: a registration fires when a message
// arrives on an empty queue and no receiver is waiting for it.
// Notify signals and permissions are ignored.
type MockNamespace struct {
	lock   sync.Mutex
	queues map[string]*mockQueue
}

var _ driver = (*MockNamespace)(nil)

// NewMockNamespace creates a new, empty MockNamespace.
func NewMockNamespace() *MockNamespace {
	return &MockNamespace{
		queues: make(map[string]*mockQueue),
	}
}

// NewQueue creates an unopened Queue in this namespace.
func (ns *MockNamespace) NewQueue(opts *Options) *Queue {
	return newQueue(opts, ns)
}

// Unlink removes the named queue from this namespace.
//
// It returns *UnlinkError wrapping syscall.ENOENT if there's no such queue.
func (ns *MockNamespace) Unlink(name string) error {
	return unlink(ns, name)
}

// Names returns the canonical names of all the queues in this namespace.
func (ns *MockNamespace) Names() []string {
	ns.lock.Lock()
	defer ns.lock.Unlock()
	names := make([]string, 0, len(ns.queues))
	for name := range ns.queues {
		names = append(names, name)
	}
	return names
}

func (ns *MockNamespace) open(name string, cfg openConfig) (descriptor, error) {
	ns.lock.Lock()
	defer ns.lock.Unlock()

	mq, ok := ns.queues[name]
	if !ok {
		if !cfg.create {
			return nil, syscall.ENOENT
		}
		mq = &mockQueue{
			maxMessages:    cfg.maxMessages,
			maxMessageSize: cfg.maxMessageSize,
			msgs:           queue.New(),
			changed:        make(chan struct{}),
		}
		ns.queues[name] = mq
	}
	return &mockDescriptor{
		mq:          mq,
		mode:        cfg.mode,
		nonBlocking: cfg.nonBlocking,
		done:        make(chan struct{}),
	}, nil
}

func (ns *MockNamespace) unlink(name string) error {
	ns.lock.Lock()
	defer ns.lock.Unlock()

	if _, ok := ns.queues[name]; !ok {
		return syscall.ENOENT
	}
	delete(ns.queues, name)
	return nil
}

type mockMessage struct {
	data []byte
	prio uint
}

type mockQueue struct {
	maxMessages    int64
	maxMessageSize int64

	lock sync.Mutex
	msgs *queue.Queue

	// closed and replaced on every change to msgs.
	changed chan struct{}

	// number of receivers waiting on an empty queue.
	receivers int

	notifier *mockDescriptor
	fire     func()
}

func (mq *mockQueue) changedLocked() {
	close(mq.changed)
	mq.changed = make(chan struct{})
}

type mockDescriptor struct {
	mq          *mockQueue
	mode        AccessMode
	nonBlocking bool

	closed atomic.Bool
	done   chan struct{}
}

func (d *mockDescriptor) send(ctx context.Context, data []byte, prio uint, wait bool) error {
	if !d.mode.Writable() {
		return syscall.EBADF
	}
	mq := d.mq
	if int64(len(data)) > mq.maxMessageSize {
		return MessageTooLargeError{
			MessageSize: len(data),
			MaxSize:     int(mq.maxMessageSize),
			Cause:       syscall.EMSGSIZE,
		}
	}
	msg := mockMessage{
		data: append([]byte(nil), data...),
		prio: prio,
	}

	for {
		mq.lock.Lock()
		if d.closed.Load() {
			mq.lock.Unlock()
			return ErrClosed
		}
		if int64(mq.msgs.Length()) < mq.maxMessages {
			var fire func()
			if mq.msgs.Length() == 0 && mq.receivers == 0 {
				fire = mq.fire
				mq.fire = nil
				mq.notifier = nil
			}
			mq.msgs.Add(msg)
			mq.changedLocked()
			mq.lock.Unlock()
			if fire != nil {
				go fire()
			}
			return nil
		}
		if !wait || d.nonBlocking {
			mq.lock.Unlock()
			return wouldBlock(syscall.EAGAIN)
		}
		changed := mq.changed
		mq.lock.Unlock()

		select {
		case <-changed:
		case <-d.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *mockDescriptor) receive(ctx context.Context, buf []byte, wait bool) (n int, prio uint, err error) {
	if !d.mode.Readable() {
		return 0, 0, syscall.EBADF
	}
	if int64(len(buf)) < d.mq.maxMessageSize {
		return 0, 0, syscall.EMSGSIZE
	}
	mq := d.mq

	for {
		mq.lock.Lock()
		if d.closed.Load() {
			mq.lock.Unlock()
			return 0, 0, ErrClosed
		}
		if mq.msgs.Length() > 0 {
			msg := mq.msgs.Remove().(mockMessage)
			mq.changedLocked()
			mq.lock.Unlock()
			return copy(buf, msg.data), msg.prio, nil
		}
		if !wait || d.nonBlocking {
			mq.lock.Unlock()
			return 0, 0, wouldBlock(syscall.EAGAIN)
		}
		changed := mq.changed
		mq.receivers++
		mq.lock.Unlock()

		select {
		case <-changed:
		case <-d.done:
			err = ErrClosed
		case <-ctx.Done():
			err = ctx.Err()
		}

		mq.lock.Lock()
		mq.receivers--
		mq.lock.Unlock()
		if err != nil {
			return 0, 0, err
		}
	}
}

func (d *mockDescriptor) attributes() (Attributes, error) {
	if d.closed.Load() {
		return Attributes{}, ErrClosed
	}
	mq := d.mq
	mq.lock.Lock()
	defer mq.lock.Unlock()

	var flags Flags
	if d.nonBlocking {
		flags |= FlagNonBlocking
	}
	return Attributes{
		Flags:           flags,
		MaxMessages:     mq.maxMessages,
		MaxMessageSize:  mq.maxMessageSize,
		CurrentMessages: int64(mq.msgs.Length()),
	}, nil
}

func (d *mockDescriptor) notify(fire func()) error {
	mq := d.mq
	mq.lock.Lock()
	defer mq.lock.Unlock()

	if d.closed.Load() {
		return ErrClosed
	}
	if mq.fire != nil {
		return syscall.EBUSY
	}
	mq.fire = fire
	mq.notifier = d
	return nil
}

func (d *mockDescriptor) close() error {
	if d.closed.Swap(true) {
		return ErrClosed
	}
	close(d.done)

	mq := d.mq
	mq.lock.Lock()
	defer mq.lock.Unlock()
	if mq.notifier == d {
		mq.notifier = nil
		mq.fire = nil
	}
	return nil
}
