//go:build linux
// +build linux

package mqsys

import (
	"encoding/binary"
	"math"
	"time"

	"golang.org/x/sys/unix"
)

// Readiness events for Wait.
const (
	Readable = unix.POLLIN
	Writable = unix.POLLOUT
)

// Waker is an eventfd used to interrupt Wait calls from another goroutine.
//
// Once woken it stays readable until Drain is called,
// so a single Wake interrupts every concurrent Wait.
type Waker struct {
	fd int
}

// NewWaker creates a new Waker.
func NewWaker() (*Waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &Waker{fd: fd}, nil
}

// Wake interrupts all pending and future Wait calls until Drain.
func (w *Waker) Wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(w.fd, buf[:])
	if err == unix.EAGAIN {
		// Counter is saturated, it's already readable.
		return nil
	}
	return err
}

// Drain resets the Waker.
func (w *Waker) Drain() {
	var buf [8]byte
	unix.Read(w.fd, buf[:])
}

// Close closes the underlying eventfd.
func (w *Waker) Close() error {
	return unix.Close(w.fd)
}

// Wait blocks until mqd reports the requested readiness (Readable or
// Writable), any of the wakers is woken, or deadline passes.
//
// A zero deadline means no deadline.
// When the deadline passes it returns unix.ETIMEDOUT.
// Being interrupted by a signal is reported as neither ready nor woken, with
// nil error.
func Wait(mqd int, events int16, deadline time.Time, wakers ...*Waker) (ready, woken bool, err error) {
	timeout := -1
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return false, false, unix.ETIMEDOUT
		}
		// Round up, so that by the time poll returns the deadline has passed.
		ms := (d + time.Millisecond - 1) / time.Millisecond
		if ms > math.MaxInt32 {
			ms = math.MaxInt32
		}
		timeout = int(ms)
	}

	fds := make([]unix.PollFd, 1, 1+len(wakers))
	fds[0] = unix.PollFd{Fd: int32(mqd), Events: events}
	for _, w := range wakers {
		fds = append(fds, unix.PollFd{Fd: int32(w.fd), Events: unix.POLLIN})
	}
	n, err := unix.Poll(fds, timeout)
	if err != nil {
		if err == unix.EINTR {
			return false, false, nil
		}
		return false, false, err
	}
	if n == 0 {
		return false, false, unix.ETIMEDOUT
	}
	if fds[0].Revents&unix.POLLNVAL != 0 {
		return false, false, unix.EBADF
	}
	for _, fd := range fds[1:] {
		if fd.Revents&unix.POLLIN != 0 {
			woken = true
		}
	}
	ready = fds[0].Revents&(events|unix.POLLERR|unix.POLLHUP) != 0
	return ready, woken, nil
}
