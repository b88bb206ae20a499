package posixmq

import (
	"context"
	"errors"
	"sync"

	"github.com/reddit/posixmq.go/log"
)

// Notify registers for a one-shot notification of the next message arriving
// on the empty queue.
//
// When the notification fires, exactly one message is read without waiting
// and dispatched to the Handler with SourceNotify, in a goroutine owned by the
// Queue. The registration is consumed by then, unless the Options had
// RearmNotifications, in which case the queue is drained and the registration
// renewed.
//
// Only one registration can be armed per Queue, calling Notify again before
// the previous one fired returns *StateError.
// When another process holds the registration of the same queue, it returns
// *NotifyError wrapping syscall.EBUSY on linux systems.
//
// It's only allowed on an open Queue with a readable access mode.
func (q *Queue) Notify() error {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.state != StateOpen {
		return &StateError{Op: "notify", State: q.state}
	}
	if err := q.checkReadable("notify"); err != nil {
		return err
	}
	if q.armed {
		return &StateError{
			Op:     "notify",
			State:  q.state,
			Reason: "a notification is already registered",
		}
	}

	if q.events == nil {
		ctx, cancel := context.WithCancel(
			log.Attach(context.Background(), log.AttachArgs{Queue: q.name}),
		)
		q.events = make(chan struct{}, 1)
		q.stopDispatch = cancel
		go q.runDispatch(ctx, q.desc, q.name, q.events)
	}

	if err := q.desc.notify(q.fire); err != nil {
		return &NotifyError{Queue: q.name, Cause: err}
	}
	q.armed = true
	return nil
}

// fire is called by the driver when the registration is consumed.
func (q *Queue) fire() {
	q.lock.Lock()
	q.armed = false
	events, name := q.events, q.name
	q.lock.Unlock()

	notificationCounter.WithLabelValues(name).Inc()
	select {
	case events <- struct{}{}:
	default:
		// There's already one pending.
	}
}

func (q *Queue) runDispatch(ctx context.Context, desc descriptor, name string, events <-chan struct{}) {
	buf := make([]byte, q.bufSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-events:
		}

		if q.opts.rearm {
			// Messages arriving between the drain and the renewed registration
			// don't fire, so drain again after renewing.
			for q.deliver(ctx, desc, name, buf) {
			}
			if err := q.Notify(); err != nil && !errors.Is(err, ErrInvalidState) {
				log.C(ctx).Errorw(
					"posixmq: failed to renew notification",
					"err", err,
				)
			}
			for q.deliver(ctx, desc, name, buf) {
			}
		} else {
			q.deliver(ctx, desc, name, buf)
		}
		interrupts.broadcast()
	}
}

// deliver reads at most one message without waiting and dispatches it.
//
// It returns false when nothing was read.
func (q *Queue) deliver(ctx context.Context, desc descriptor, name string, buf []byte) bool {
	if ctx.Err() != nil {
		return false
	}
	msg, err := q.read(ctx, desc, name, buf, false, SourceNotify)
	if err != nil {
		if !errors.Is(err, ErrWouldBlock) && !errors.Is(err, ErrClosed) {
			log.C(ctx).Warnw(
				"posixmq: failed to read notified message",
				"err", err,
			)
		}
		return false
	}
	q.dispatch(ctx, msg)
	return true
}

// interrupts wakes up Pause calls.
var interrupts broadcaster

type broadcaster struct {
	lock sync.Mutex
	ch   chan struct{}
}

// wait returns a channel closed on the next broadcast.
func (b *broadcaster) wait() <-chan struct{} {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.ch == nil {
		b.ch = make(chan struct{})
	}
	return b.ch
}

func (b *broadcaster) broadcast() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.ch != nil {
		close(b.ch)
		b.ch = nil
	}
}

// Pause blocks until a notification of any Queue in this process is
// dispatched, or ctx is done.
//
// It never returns nil: it returns ErrInterrupted after a notification,
// or ctx.Err().
func Pause(ctx context.Context) error {
	select {
	case <-interrupts.wait():
		return ErrInterrupted
	case <-ctx.Done():
		return ctx.Err()
	}
}
