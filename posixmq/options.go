package posixmq

import (
	"fmt"
	"os"
	"strings"

	"github.com/reddit/posixmq.go/errorsbp"
)

// Default limits used by New and its shortcuts.
//
// Linux caps unprivileged queues at 10 messages by default
// (/proc/sys/fs/mqueue/msg_max), so DefaultMaxMessages is also the largest
// value guaranteed to work without tuning the system.
const (
	DefaultMaxMessages    = 10
	DefaultMaxMessageSize = 1024
	DefaultPermissions    = os.FileMode(0600)
)

// Priority is the fixed priority every message is published with.
//
// With a single priority the kernel's priority-then-FIFO ordering degrades to
// plain FIFO.
const Priority = 10

// AccessMode is the mode a queue is opened with.
type AccessMode int

// AccessMode values.
//
// The zero value is unset, and treated as ModeReadOnly.
const (
	ModeReadOnly AccessMode = iota + 1
	ModeWriteOnly
	ModeReadWrite
)

func (m AccessMode) String() string {
	switch m {
	default:
		return fmt.Sprintf("AccessMode(%d)", int(m))
	case 0:
		return "unset"
	case ModeReadOnly:
		return "read-only"
	case ModeWriteOnly:
		return "write-only"
	case ModeReadWrite:
		return "read-write"
	}
}

// Readable returns true if Receive, Next and Notify are allowed in this mode.
func (m AccessMode) Readable() bool {
	return m == ModeReadOnly || m == ModeReadWrite
}

// Writable returns true if Publish is allowed in this mode.
func (m AccessMode) Writable() bool {
	return m == ModeWriteOnly || m == ModeReadWrite
}

// ParseAccessMode parses the short ("r", "w", "rw") or long ("read-only",
// "write-only", "read-write") form of an AccessMode.
func ParseAccessMode(s string) (AccessMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "ro", "read-only", "readonly":
		return ModeReadOnly, nil
	case "w", "wo", "write-only", "writeonly":
		return ModeWriteOnly, nil
	case "rw", "read-write", "readwrite":
		return ModeReadWrite, nil
	}
	return 0, fmt.Errorf("posixmq: unknown access mode %q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *AccessMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	mode, err := ParseAccessMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Options describes how a queue is opened and who handles its messages.
//
// Use New, ReadOnly, WriteOnly or ReadWrite to get Options with defaults,
// then chain the builder methods:
//
//	opts := posixmq.ReadWrite().NonBlocking().WithHandler(handler)
//	if err := opts.SetMaxMessageSize(4096); err != nil {
//	  // handle err
//	}
//
// A Queue takes a snapshot of the Options when it's built,
// changes made afterwards only affect queues built later.
type Options struct {
	mode           AccessMode
	nonBlocking    bool
	maxMessages    int64
	maxMessageSize int64
	perm           os.FileMode
	notifySignal   os.Signal
	rearm          bool
	handler        Handler
	suppressor     errorsbp.Suppressor
}

// New creates Options with the given access mode and defaults.
func New(mode AccessMode) *Options {
	return &Options{
		mode:           mode,
		maxMessages:    DefaultMaxMessages,
		maxMessageSize: DefaultMaxMessageSize,
		perm:           DefaultPermissions,
		notifySignal:   defaultNotifySignal,
	}
}

// ReadOnly is the shortcut of New(ModeReadOnly).
func ReadOnly() *Options {
	return New(ModeReadOnly)
}

// WriteOnly is the shortcut of New(ModeWriteOnly).
func WriteOnly() *Options {
	return New(ModeWriteOnly)
}

// ReadWrite is the shortcut of New(ModeReadWrite).
func ReadWrite() *Options {
	return New(ModeReadWrite)
}

// WithHandler sets the Handler invoked with every received message.
//
// Calling it again replaces the previous Handler.
func (o *Options) WithHandler(h Handler) *Options {
	o.handler = h
	return o
}

// NonBlocking makes Publish fail instead of waiting on a full queue, and
// Receive return instead of waiting on an empty one.
func (o *Options) NonBlocking() *Options {
	o.nonBlocking = true
	return o
}

// WithPermissions sets the permission bits used when the queue is created.
//
// Only the permission bits of perm are used.
func (o *Options) WithPermissions(perm os.FileMode) *Options {
	o.perm = perm.Perm()
	return o
}

// WithNotifySignal sets the signal the system uses to deliver notifications.
//
// The default is SIGUSR1 on linux.
func (o *Options) WithNotifySignal(sig os.Signal) *Options {
	o.notifySignal = sig
	return o
}

// RearmNotifications makes the queue register a new notification every time
// one is delivered, after draining the queue.
//
// Without it every Notify call delivers at most one message.
func (o *Options) RearmNotifications() *Options {
	o.rearm = true
	return o
}

// SuppressHandlerErrors sets the Suppressor used on errors returned by the
// Handler. Suppressed errors are neither logged nor counted.
func (o *Options) SuppressHandlerErrors(s errorsbp.Suppressor) *Options {
	o.suppressor = s
	return o
}

// SetMaxMessages sets the max number of messages in the queue.
//
// It returns *ConfigError and keeps the previous value when n <= 0.
func (o *Options) SetMaxMessages(n int64) error {
	if n <= 0 {
		return &ConfigError{Field: "max messages", Value: n}
	}
	o.maxMessages = n
	return nil
}

// SetMaxMessageSize sets the max size in bytes of a single message.
//
// It returns *ConfigError and keeps the previous value when n <= 0.
func (o *Options) SetMaxMessageSize(n int64) error {
	if n <= 0 {
		return &ConfigError{Field: "max message size", Value: n}
	}
	o.maxMessageSize = n
	return nil
}

// Mode returns the access mode, ModeReadOnly when unset.
func (o *Options) Mode() AccessMode {
	if o.mode <= 0 || o.mode > ModeReadWrite {
		return ModeReadOnly
	}
	return o.mode
}

// Blocking returns false if NonBlocking was called.
func (o *Options) Blocking() bool {
	return !o.nonBlocking
}

// MaxMessages returns the max number of messages in the queue.
func (o *Options) MaxMessages() int64 {
	return o.maxMessages
}

// MaxMessageSize returns the max size in bytes of a single message.
func (o *Options) MaxMessageSize() int64 {
	return o.maxMessageSize
}

// Permissions returns the permission bits used when creating the queue.
func (o *Options) Permissions() os.FileMode {
	return o.perm
}

// NotifySignal returns the signal used to deliver notifications.
func (o *Options) NotifySignal() os.Signal {
	return o.notifySignal
}

// Handler returns the Handler, nil when not set.
func (o *Options) Handler() Handler {
	return o.handler
}

// Validate returns *ConfigError if any of the limits is not positive.
//
// It's only needed for Options not created by New.
func (o *Options) Validate() error {
	var batch errorsbp.Batch
	if o.maxMessages <= 0 {
		batch.Add(&ConfigError{Field: "max messages", Value: o.maxMessages})
	}
	if o.maxMessageSize <= 0 {
		batch.Add(&ConfigError{Field: "max message size", Value: o.maxMessageSize})
	}
	return batch.Compile()
}
