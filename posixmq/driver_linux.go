//go:build linux
// +build linux

package posixmq

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	retry "github.com/avast/retry-go"
	"golang.org/x/sys/unix"

	"github.com/reddit/posixmq.go/errorsbp"
	"github.com/reddit/posixmq.go/internal/mqsys"
	"github.com/reddit/posixmq.go/log"
	"github.com/reddit/posixmq.go/retrybp"
)

var defaultNotifySignal os.Signal = unix.SIGUSR1

var systemDriver driver = sysDriver{}

// maxInterruptRetries caps the retries of a single syscall interrupted by
// signals.
const maxInterruptRetries = 10

var interruptRetries = []retry.Option{
	retry.Attempts(maxInterruptRetries),
	retrybp.FixedDelay(0),
	retry.LastErrorOnly(true),
	retrybp.Filters(retrybp.InterruptedErrorFilter),
}

type sysDriver struct{}

func (sysDriver) open(name string, cfg openConfig) (descriptor, error) {
	var flags int
	switch cfg.mode {
	case ModeWriteOnly:
		flags = mqsys.WriteOnly
	case ModeReadWrite:
		flags = mqsys.ReadWrite
	default:
		flags = mqsys.ReadOnly
	}
	if cfg.nonBlocking {
		flags |= mqsys.NonBlocking
	}
	var attr *mqsys.Attr
	if cfg.create {
		flags |= mqsys.Create
		attr = &mqsys.Attr{
			MaxMsg:  int(cfg.maxMessages),
			MsgSize: int(cfg.maxMessageSize),
		}
	}

	var mqd int
	if err := retrybp.Do(context.Background(), func() (err error) {
		mqd, err = mqsys.Open(strings.TrimPrefix(name, "/"), flags, uint32(cfg.perm.Perm()), attr)
		return err
	}, interruptRetries...); err != nil {
		return nil, err
	}

	closer, err := mqsys.NewWaker()
	if err != nil {
		mqsys.Close(mqd)
		return nil, fmt.Errorf("posixmq: failed to create waker: %w", err)
	}
	d := &sysDescriptor{
		mqd:         mqd,
		nonBlocking: cfg.nonBlocking,
		closer:      closer,
	}
	if sig, ok := cfg.notifySignal.(syscall.Signal); ok {
		d.signal = sig
	}
	return d, nil
}

func (sysDriver) unlink(name string) error {
	return retrybp.Do(context.Background(), func() error {
		return mqsys.Unlink(strings.TrimPrefix(name, "/"))
	}, interruptRetries...)
}

// sysDescriptor is a descriptor backed by a system message queue descriptor.
//
// Every call on the descriptor is done without sleeping in the kernel
// (with mqsys.Immediate as the timeout), waiting happens in poll instead so
// that close and ctx can interrupt it.
type sysDescriptor struct {
	mqd         int
	nonBlocking bool
	signal      syscall.Signal

	// woken by close.
	closer *mqsys.Waker

	// Operations hold the read lock, close holds the write lock.
	lock   sync.RWMutex
	closed atomic.Bool
}

func (d *sysDescriptor) send(ctx context.Context, data []byte, prio uint, wait bool) error {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.closed.Load() {
		return ErrClosed
	}

	err := d.do(ctx, mqsys.Writable, wait, func() error {
		return mqsys.TimedSend(d.mqd, data, prio, &mqsys.Immediate)
	})
	if errors.Is(err, unix.EMSGSIZE) {
		tooLarge := MessageTooLargeError{
			MessageSize: len(data),
			Cause:       err,
		}
		if attr, attrErr := mqsys.GetAttr(d.mqd); attrErr == nil {
			tooLarge.MaxSize = attr.MsgSize
		}
		return tooLarge
	}
	return err
}

func (d *sysDescriptor) receive(ctx context.Context, buf []byte, wait bool) (n int, prio uint, err error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.closed.Load() {
		return 0, 0, ErrClosed
	}

	err = d.do(ctx, mqsys.Readable, wait, func() (err error) {
		n, prio, err = mqsys.TimedReceive(d.mqd, buf, &mqsys.Immediate)
		return err
	})
	return n, prio, err
}

// do calls op until it doesn't fail for lack of room or messages,
// waiting for readiness in between.
func (d *sysDescriptor) do(ctx context.Context, events int16, wait bool, op func() error) error {
	for {
		err := retrybp.Do(ctx, op, interruptRetries...)
		// EAGAIN on non-blocking descriptors, ETIMEDOUT on blocking ones.
		if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.ETIMEDOUT) {
			return err
		}
		if !wait || d.nonBlocking {
			return wouldBlock(err)
		}
		if err := d.wait(ctx, events); err != nil {
			return err
		}
	}
}

func (d *sysDescriptor) wait(ctx context.Context, events int16) error {
	wakers := []*mqsys.Waker{d.closer}
	if ctx.Done() != nil {
		w, err := mqsys.NewWaker()
		if err != nil {
			return fmt.Errorf("posixmq: failed to create waker: %w", err)
		}
		woken := make(chan struct{})
		stop := context.AfterFunc(ctx, func() {
			defer close(woken)
			w.Wake()
		})
		defer func() {
			if !stop() {
				<-woken
			}
			w.Close()
		}()
		wakers = append(wakers, w)
	}

	deadline, _ := ctx.Deadline()
	for {
		if d.closed.Load() {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		ready, _, err := mqsys.Wait(d.mqd, events, deadline, wakers...)
		if errors.Is(err, unix.ETIMEDOUT) {
			return context.DeadlineExceeded
		}
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
	}
}

func (d *sysDescriptor) attributes() (Attributes, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.closed.Load() {
		return Attributes{}, ErrClosed
	}

	var attr mqsys.Attr
	if err := retrybp.Do(context.Background(), func() (err error) {
		attr, err = mqsys.GetAttr(d.mqd)
		return err
	}, interruptRetries...); err != nil {
		return Attributes{}, err
	}
	var flags Flags
	if attr.Flags&mqsys.NonBlocking != 0 {
		flags |= FlagNonBlocking
	}
	return Attributes{
		Flags:           flags,
		MaxMessages:     int64(attr.MaxMsg),
		MaxMessageSize:  int64(attr.MsgSize),
		CurrentMessages: int64(attr.CurMsgs),
	}, nil
}

func (d *sysDescriptor) notify(fire func()) error {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.closed.Load() {
		return ErrClosed
	}
	if d.signal == 0 {
		return fmt.Errorf("posixmq: no notify signal configured: %w", unix.EINVAL)
	}
	return signals.arm(d, fire)
}

func (d *sysDescriptor) close() error {
	if d.closed.Swap(true) {
		return ErrClosed
	}
	var batch errorsbp.Batch
	batch.AddPrefix("wake", d.closer.Wake())

	d.lock.Lock()
	defer d.lock.Unlock()
	signals.disarm(d)
	// Closing the descriptor also drops the kernel side of its registration.
	batch.AddPrefix("close", mqsys.Close(d.mqd))
	batch.AddPrefix("close waker", d.closer.Close())
	return batch.Compile()
}

// signals is the process-wide dispatcher of notification signals.
var signals = &signalDispatcher{
	armed:      make(map[*sysDescriptor]func()),
	subscribed: make(map[syscall.Signal]bool),
}

// signalDispatcher turns notification signals into fire calls.
//
// Signals don't carry which queue they are for (os/signal drops the
// siginfo), so on every signal it probes all armed descriptors: mq_notify
// fails with EBUSY while a registration is still held, and succeeds once the
// kernel consumed it.
type signalDispatcher struct {
	lock       sync.Mutex
	armed      map[*sysDescriptor]func()
	subscribed map[syscall.Signal]bool
	ch         chan os.Signal
}

func (sd *signalDispatcher) arm(d *sysDescriptor, fire func()) error {
	sd.lock.Lock()
	defer sd.lock.Unlock()

	if sd.ch == nil {
		sd.ch = make(chan os.Signal, 16)
		go sd.run(sd.ch)
	}
	// Subscribe before registering, the default action of most signals
	// terminates the process.
	if !sd.subscribed[d.signal] {
		signal.Notify(sd.ch, d.signal)
		sd.subscribed[d.signal] = true
	}

	if err := retrybp.Do(context.Background(), func() error {
		return mqsys.Notify(d.mqd, d.signal)
	}, interruptRetries...); err != nil {
		return err
	}
	sd.armed[d] = fire
	return nil
}

func (sd *signalDispatcher) disarm(d *sysDescriptor) {
	sd.lock.Lock()
	defer sd.lock.Unlock()
	delete(sd.armed, d)
}

func (sd *signalDispatcher) run(ch <-chan os.Signal) {
	for sig := range ch {
		for _, fire := range sd.consumed(sig) {
			fire()
		}
	}
}

// consumed removes and returns the registrations the kernel consumed.
func (sd *signalDispatcher) consumed(sig os.Signal) []func() {
	sd.lock.Lock()
	defer sd.lock.Unlock()

	var fired []func()
	for d, fire := range sd.armed {
		if d.signal != sig {
			continue
		}
		err := mqsys.Notify(d.mqd, d.signal)
		switch {
		case errors.Is(err, unix.EBUSY):
			// Still armed.
			continue
		case err == nil:
			// Undo the probe.
			if err := mqsys.CancelNotify(d.mqd); err != nil {
				log.Warnw(
					"posixmq: failed to cancel probing notification",
					"err", err,
				)
			}
			fired = append(fired, fire)
		default:
			log.Errorw(
				"posixmq: failed to probe notification, dropping it",
				"err", err,
				"signal", sig.String(),
			)
		}
		delete(sd.armed, d)
	}
	return fired
}
