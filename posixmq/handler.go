package posixmq

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// Handler handles messages received from a queue.
//
// The same Handler can be invoked concurrently from a Receive loop and from
// notification dispatch, so implementations must be safe for concurrent use,
// and own the synchronization of any state they mutate.
//
// Returning an error never stops the Receive loop, it's logged (and reported
// to sentry) unless suppressed by Options.SuppressHandlerErrors.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

// HandleMessage calls f(ctx, msg).
func (f HandlerFunc) HandleMessage(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

var _ Handler = HandlerFunc(nil)

// Source tells which path delivered a Message.
type Source int

// Source values.
const (
	SourceReceive Source = iota
	SourceNotify
)

func (s Source) String() string {
	switch s {
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	case SourceReceive:
		return "receive"
	case SourceNotify:
		return "notify"
	}
}

// Message is a single message received from a queue.
type Message struct {
	// Name of the queue, with the leading "/".
	Queue string

	// The exact bytes of the message.
	// It's a copy owned by the Handler.
	Data []byte

	// Data decoded as UTF-8 text. Empty when DecodeErr is non-nil.
	Text string

	// Non-nil (*DecodeError) when Data is not valid UTF-8.
	DecodeErr error

	Priority   uint
	Source     Source
	ReceivedAt time.Time
}

func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	offset := 0
	for offset < len(data) {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		offset += size
	}
	return "", &DecodeError{Offset: offset}
}

// invokeHandler calls h, turning a panic into an error so a misbehaving
// Handler can't take down the receive loop.
func invokeHandler(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			panicRecoverCounter.WithLabelValues(msg.Queue).Inc()
			if e, ok := r.(error); ok {
				err = fmt.Errorf("posixmq: handler panicked: %w", e)
			} else {
				err = fmt.Errorf("posixmq: handler panicked: %v", r)
			}
		}
	}()
	return h.HandleMessage(ctx, msg)
}
