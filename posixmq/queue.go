package posixmq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reddit/posixmq.go/errorsbp"
	"github.com/reddit/posixmq.go/log"
)

// State is the lifecycle state of a Queue.
//
// A Queue goes from StateUnopened to StateOpen with Create or Open,
// and from StateOpen to StateClosed with Close. It never goes back.
type State int

// State values.
const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	default:
		return fmt.Sprintf("State(%d)", int(s))
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
}

// Queue is a handle owning a single posix message queue descriptor.
//
// All methods are safe for concurrent use, with one exception:
// only one Receive loop should run on a Queue at a time.
type Queue struct {
	opts Options
	drv  driver

	lock    sync.Mutex
	state   State
	name    string
	desc    descriptor
	bufSize int

	// Notification dispatch, started by the first Notify call.
	armed        bool
	events       chan struct{}
	stopDispatch context.CancelFunc
}

// NewQueue creates an unopened Queue in the system namespace.
//
// It takes a snapshot of opts, nil opts means ReadOnly().
func NewQueue(opts *Options) *Queue {
	return newQueue(opts, systemDriver)
}

func newQueue(opts *Options, drv driver) *Queue {
	if opts == nil {
		opts = ReadOnly()
	}
	return &Queue{
		opts: *opts,
		drv:  drv,
	}
}

// Create opens the named queue, creating it if it doesn't exist yet.
//
// The name can be given with or without the leading "/".
// When the queue is created, it's created with the limits and permissions from
// the Options. When it already exists, its own limits are kept.
//
// It's only allowed on an unopened Queue.
func (q *Queue) Create(name string) error {
	return q.open("create", name, true)
}

// Open opens the named queue, which must already exist.
//
// It's only allowed on an unopened Queue.
func (q *Queue) Open(name string) error {
	return q.open("open", name, false)
}

func (q *Queue) open(op, name string, create bool) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.state != StateUnopened {
		return &StateError{Op: op, State: q.state}
	}
	if err := q.opts.Validate(); err != nil {
		return err
	}
	canonical, err := canonicalName(name)
	if err != nil {
		return &CreateError{Name: name, Cause: err}
	}

	desc, err := q.drv.open(canonical, openConfig{
		mode:           q.opts.Mode(),
		nonBlocking:    q.opts.nonBlocking,
		create:         create,
		perm:           q.opts.perm,
		maxMessages:    q.opts.maxMessages,
		maxMessageSize: q.opts.maxMessageSize,
		notifySignal:   q.opts.notifySignal,
	})
	if err != nil {
		return &CreateError{Name: canonical, Cause: err}
	}

	// An existing queue keeps its own message size, which could be larger than
	// ours, and the system refuses receives into buffers smaller than that.
	attrs, err := desc.attributes()
	if err != nil {
		var batch errorsbp.Batch
		batch.Add(err)
		batch.AddPrefix("close", desc.close())
		return &CreateError{Name: canonical, Cause: batch.Compile()}
	}
	q.bufSize = int(max(q.opts.maxMessageSize, attrs.MaxMessageSize))

	q.name = canonical
	q.desc = desc
	q.state = StateOpen
	log.Debugw(
		"posixmq: queue opened",
		"queue", canonical,
		"op", op,
		"mode", q.opts.Mode().String(),
		"attributes", attrs.String(),
	)
	return nil
}

// Name returns the canonical name (with the leading "/") of the opened queue,
// or empty string when the queue was never opened.
func (q *Queue) Name() string {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.name
}

// State returns the current lifecycle state.
func (q *Queue) State() State {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.state
}

// acquire returns the descriptor if the queue is open.
func (q *Queue) acquire(op string) (descriptor, string, error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.state != StateOpen {
		return nil, "", &StateError{Op: op, State: q.state}
	}
	return q.desc, q.name, nil
}

func (q *Queue) checkReadable(op string) error {
	if mode := q.opts.Mode(); !mode.Readable() {
		return &StateError{Op: op, State: StateOpen, Reason: "queue opened " + mode.String()}
	}
	return nil
}

// Publish sends data to the queue with the fixed Priority.
//
// Data is sent as-is with its explicit length, so any binary content up to the
// queue's max message size is preserved.
//
// In blocking mode, Publish waits on a full queue until there's room or ctx is
// done, so callers should usually set a deadline on ctx.
// In non-blocking mode it fails right away with an error wrapping
// ErrWouldBlock.
//
// It's only allowed on an open Queue with a writable access mode.
// All other failures are returned as *SendError.
func (q *Queue) Publish(ctx context.Context, data []byte) (err error) {
	desc, name, err := q.acquire("publish")
	if err != nil {
		return err
	}
	if mode := q.opts.Mode(); !mode.Writable() {
		return &StateError{Op: "publish", State: StateOpen, Reason: "queue opened " + mode.String()}
	}

	start := time.Now()
	defer func() {
		labels := prometheus.Labels{
			queueLabel:   name,
			successLabel: strconv.FormatBool(err == nil),
		}
		publishCounter.With(labels).Inc()
		publishLatency.With(labels).Observe(time.Since(start).Seconds())
	}()

	if sendErr := desc.send(ctx, data, Priority, q.opts.Blocking()); sendErr != nil {
		if errors.Is(sendErr, context.DeadlineExceeded) {
			sendErr = TimedOutError{Cause: sendErr}
		}
		return &SendError{Queue: name, Size: len(data), Cause: sendErr}
	}
	return nil
}

// Receive runs the receive loop: it keeps receiving messages and dispatching
// them to the Handler, one at a time, in the order the queue releases them.
//
// Messages are drained and discarded when there's no Handler.
// Neither Handler errors nor messages that are not valid text stop the loop.
//
// It only returns when:
//
// - The Queue is closed (from another goroutine), with *ReceiveError wrapping
// ErrClosed.
//
// - ctx is done, with ctx.Err().
//
// - In non-blocking mode the queue is empty, with *ReceiveError wrapping
// ErrWouldBlock.
//
// - The system fails the receive, with *ReceiveError.
//
// It's only allowed on an open Queue with a readable access mode.
func (q *Queue) Receive(ctx context.Context) error {
	desc, name, err := q.acquire("receive")
	if err != nil {
		return err
	}
	if err := q.checkReadable("receive"); err != nil {
		return err
	}

	ctx = log.Attach(ctx, log.AttachArgs{Queue: name})
	buf := make([]byte, q.bufSize)
	for {
		msg, err := q.read(ctx, desc, name, buf, q.opts.Blocking(), SourceReceive)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		q.dispatch(ctx, msg)
	}
}

// Next receives a single message without dispatching it to the Handler.
//
// It follows the same blocking rules as Receive.
func (q *Queue) Next(ctx context.Context) (Message, error) {
	desc, name, err := q.acquire("next")
	if err != nil {
		return Message{}, err
	}
	if err := q.checkReadable("next"); err != nil {
		return Message{}, err
	}
	buf := make([]byte, q.bufSize)
	return q.read(ctx, desc, name, buf, q.opts.Blocking(), SourceReceive)
}

func (q *Queue) read(
	ctx context.Context,
	desc descriptor,
	name string,
	buf []byte,
	wait bool,
	source Source,
) (Message, error) {
	n, prio, err := desc.receive(ctx, buf, wait)
	if err != nil {
		return Message{}, &ReceiveError{Queue: name, Cause: err}
	}
	receiveCounter.With(prometheus.Labels{
		queueLabel:  name,
		sourceLabel: source.String(),
	}).Inc()

	data := make([]byte, n)
	copy(data, buf[:n])
	text, decodeErr := decodeText(data)
	return Message{
		Queue:      name,
		Data:       data,
		Text:       text,
		DecodeErr:  decodeErr,
		Priority:   prio,
		Source:     source,
		ReceivedAt: time.Now(),
	}, nil
}

func (q *Queue) dispatch(ctx context.Context, msg Message) {
	if msg.DecodeErr != nil {
		decodeErrorCounter.WithLabelValues(msg.Queue).Inc()
		log.C(ctx).Debugw(
			"posixmq: received message is not valid text",
			"size", len(msg.Data),
			"err", msg.DecodeErr,
		)
	}

	h := q.opts.handler
	if h == nil {
		return
	}
	active := activeHandlers.WithLabelValue(msg.Queue)
	active.Inc()
	err := invokeHandler(ctx, h, msg)
	active.Dec()
	if err == nil || q.opts.suppressor.Suppress(err) {
		return
	}
	handlerErrorCounter.WithLabelValues(msg.Queue).Inc()
	log.ErrorWithSentry(
		ctx,
		"posixmq: handler failed",
		err,
		"source", msg.Source.String(),
	)
}

// Attributes returns a snapshot of the queue's attributes.
//
// On system failures it returns *AttributesError, with the (usually zero)
// snapshot also set on the error.
func (q *Queue) Attributes() (Attributes, error) {
	desc, name, err := q.acquire("attributes")
	if err != nil {
		return Attributes{}, err
	}
	attrs, err := desc.attributes()
	if err != nil {
		return attrs, &AttributesError{Queue: name, Attributes: attrs, Cause: err}
	}
	return attrs, nil
}

// Close releases the descriptor.
//
// Pending Receive, Next and Publish calls on other goroutines are woken up and
// fail with errors wrapping ErrClosed, and the notification registration (if
// any) is dropped.
//
// The Queue is closed after Close returns, even when it returns *CloseError.
// Calling Close on a Queue that's not open returns *StateError.
func (q *Queue) Close() error {
	q.lock.Lock()
	if q.state != StateOpen {
		state := q.state
		q.lock.Unlock()
		return &StateError{Op: "close", State: state}
	}
	desc, name := q.desc, q.name
	stop := q.stopDispatch
	q.state = StateClosed
	q.armed = false
	q.lock.Unlock()

	if stop != nil {
		stop()
	}
	if err := desc.close(); err != nil {
		return &CloseError{Queue: name, Cause: err}
	}
	log.Debugw("posixmq: queue closed", "queue", name)
	return nil
}

// Unlink removes the named queue from the system namespace.
//
// Descriptors already open (in this or other processes) keep working until
// they are closed, the queue is destroyed after the last one is closed.
func Unlink(name string) error {
	return unlink(systemDriver, name)
}

func unlink(drv driver, name string) error {
	canonical, err := canonicalName(name)
	if err != nil {
		return &UnlinkError{Name: name, Cause: err}
	}
	if err := drv.unlink(canonical); err != nil {
		return &UnlinkError{Name: canonical, Cause: err}
	}
	return nil
}
