package posixmq

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, to be checked with errors.Is.
var (
	// ErrInvalidConfig is wrapped by *ConfigError.
	ErrInvalidConfig = errors.New("posixmq: invalid config")

	// ErrInvalidState is wrapped by *StateError.
	ErrInvalidState = errors.New("posixmq: invalid state")

	// ErrWouldBlock is wrapped by *SendError and *ReceiveError when the
	// operation couldn't complete without waiting: the queue is full (send) or
	// empty (receive) in non-blocking mode.
	ErrWouldBlock = errors.New("posixmq: operation would block")

	// ErrClosed is wrapped by *SendError and *ReceiveError when the handle was
	// closed while the operation was pending.
	ErrClosed = errors.New("posixmq: queue closed")

	// ErrInvalidName is wrapped by *CreateError and *UnlinkError when the queue
	// name is malformed.
	ErrInvalidName = errors.New("posixmq: invalid queue name")

	// ErrInterrupted is returned by Pause when a notification was dispatched.
	ErrInterrupted = errors.New("posixmq: interrupted by notification")
)

// ConfigError is the error returned when a queue limit is not positive.
type ConfigError struct {
	Field string
	Value int64
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("posixmq: %s must be positive, got %d", e.Field, e.Value)
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// StateError is the error returned when an operation is called outside of
// the lifecycle state it requires, or on a queue opened with an access mode
// that doesn't allow it.
type StateError struct {
	Op    string
	State State

	// Optional, additional explanation.
	Reason string
}

func (e *StateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "posixmq: %s not allowed on %s queue", e.Op, e.State)
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	return sb.String()
}

// Unwrap returns ErrInvalidState.
func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// CreateError is the error returned by Queue.Create and Queue.Open when the
// system refused to open the queue.
//
// On linux systems it usually wraps one of syscall.EACCES, syscall.EEXIST,
// syscall.EINVAL, syscall.EMFILE, syscall.ENOENT, syscall.ENOSPC, or
// ErrInvalidName.
type CreateError struct {
	Name  string
	Cause error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("posixmq: failed to open queue %q: %v", e.Name, e.Cause)
}

// Unwrap returns the underlying error.
func (e *CreateError) Unwrap() error {
	return e.Cause
}

// CloseError is the error returned by Queue.Close when the system failed to
// release the descriptor.
//
// The queue is considered closed regardless.
type CloseError struct {
	Queue string
	Cause error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("posixmq: failed to close queue %q: %v", e.Queue, e.Cause)
}

// Unwrap returns the underlying error.
func (e *CloseError) Unwrap() error {
	return e.Cause
}

// UnlinkError is the error returned by Unlink.
type UnlinkError struct {
	Name  string
	Cause error
}

func (e *UnlinkError) Error() string {
	return fmt.Sprintf("posixmq: failed to unlink queue %q: %v", e.Name, e.Cause)
}

// Unwrap returns the underlying error.
func (e *UnlinkError) Unwrap() error {
	return e.Cause
}

// SendError is the error returned by Queue.Publish when the message couldn't
// be sent.
//
// Its Cause is usually one of:
//
// - an error wrapping ErrWouldBlock, when the queue is full in non-blocking
// mode
//
// - TimedOutError, when the queue stayed full until the deadline
//
// - MessageTooLargeError
//
// - an error wrapping ErrClosed
type SendError struct {
	Queue string
	Size  int
	Cause error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("posixmq: failed to send %d bytes to queue %q: %v", e.Size, e.Queue, e.Cause)
}

// Unwrap returns the underlying error.
func (e *SendError) Unwrap() error {
	return e.Cause
}

// ReceiveError is the error returned by Queue.Receive and Queue.Next when the
// system failed to deliver a message.
//
// errors.Is(err, ErrWouldBlock) reports the non-blocking empty queue case,
// errors.Is(err, ErrClosed) reports the handle being closed.
type ReceiveError struct {
	Queue string
	Cause error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("posixmq: failed to receive from queue %q: %v", e.Queue, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ReceiveError) Unwrap() error {
	return e.Cause
}

// AttributesError is the error returned by Queue.Attributes when the system
// failed to report the attributes.
//
// Attributes holds whatever was read, usually the zero value,
// so "no messages pending" and "query failed" are never confused.
type AttributesError struct {
	Queue      string
	Attributes Attributes
	Cause      error
}

func (e *AttributesError) Error() string {
	return fmt.Sprintf("posixmq: failed to get attributes of queue %q: %v", e.Queue, e.Cause)
}

// Unwrap returns the underlying error.
func (e *AttributesError) Unwrap() error {
	return e.Cause
}

// NotifyError is the error returned by Queue.Notify when the system refused
// the registration.
//
// On linux systems it wraps syscall.EBUSY when another process already holds
// the registration.
type NotifyError struct {
	Queue string
	Cause error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("posixmq: failed to register notification on queue %q: %v", e.Queue, e.Cause)
}

// Unwrap returns the underlying error.
func (e *NotifyError) Unwrap() error {
	return e.Cause
}

// DecodeError is set on Message.DecodeErr when the payload is not valid UTF-8
// text.
//
// It's only ever surfaced to Handlers, it never stops a receive loop.
type DecodeError struct {
	// Offset of the first invalid byte.
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("posixmq: payload is not valid utf-8 (first invalid byte at offset %d)", e.Offset)
}

// TimedOutError is the error wrapped by SendError when a blocking Publish
// timed out because the queue stayed full.
//
// On linux systems it usually wraps one of syscall.ETIMEDOUT or
// context.DeadlineExceeded.
type TimedOutError struct {
	Cause error
}

func (e TimedOutError) Error() string {
	return fmt.Sprintf("posixmq: send timed out: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e TimedOutError) Unwrap() error {
	return e.Cause
}

// MessageTooLargeError is the error wrapped by SendError when the message is
// larger than the queue's max message size.
//
// On linux systems it wraps syscall.EMSGSIZE.
type MessageTooLargeError struct {
	MessageSize int

	// Note that MaxSize is 0 when the limit is enforced by the kernel,
	// as it doesn't report the limit back.
	MaxSize int

	Cause error
}

func (e MessageTooLargeError) Error() string {
	var sb strings.Builder
	sb.WriteString("posixmq: message too large")
	if e.MaxSize != 0 {
		sb.WriteString(fmt.Sprintf(" (%d > %d)", e.MessageSize, e.MaxSize))
	} else {
		sb.WriteString(fmt.Sprintf(" (%d)", e.MessageSize))
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error, if any.
func (e MessageTooLargeError) Unwrap() error {
	return e.Cause
}

// wouldBlock wraps cause so that it matches both ErrWouldBlock and cause.
func wouldBlock(cause error) error {
	return fmt.Errorf("%w: %w", ErrWouldBlock, cause)
}

var (
	_ error = (*ConfigError)(nil)
	_ error = (*StateError)(nil)
	_ error = (*CreateError)(nil)
	_ error = (*CloseError)(nil)
	_ error = (*UnlinkError)(nil)
	_ error = (*SendError)(nil)
	_ error = (*ReceiveError)(nil)
	_ error = (*AttributesError)(nil)
	_ error = (*NotifyError)(nil)
	_ error = (*DecodeError)(nil)
	_ error = TimedOutError{}
	_ error = MessageTooLargeError{}
)
