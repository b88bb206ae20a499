//go:build linux
// +build linux

package mqsys

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Flags understood by Open.
const (
	ReadOnly    = unix.O_RDONLY
	WriteOnly   = unix.O_WRONLY
	ReadWrite   = unix.O_RDWR
	Create      = unix.O_CREAT
	Exclusive   = unix.O_EXCL
	NonBlocking = unix.O_NONBLOCK
)

// SIGEV_SIGNAL from SIGEVENT(7) manpage.
const sigevSignal = 0

// Attr is the go version of struct mq_attr:
//
//	struct mq_attr {
//	    long mq_flags;       /* Flags (ignored for mq_open()) */
//	    long mq_maxmsg;      /* Max. # of messages on queue */
//	    long mq_msgsize;     /* Max. message size (bytes) */
//	    long mq_curmsgs;     /* # of messages currently in queue
//	                            (ignored for mq_open()) */
//	    long __reserved[4];
//	};
//
// C long has the same width as go int on all linux ABIs go supports.
// The reserved tail must be kept, mq_getsetattr copies the whole struct out.
type Attr struct {
	Flags   int
	MaxMsg  int
	MsgSize int
	CurMsgs int
	_       [4]int
}

// The kernel always copies sizeof(struct sigevent), which is 64 bytes.
const sigevPad = (64 - int(unsafe.Sizeof(uintptr(0))) - 8) / 4

// sigevent is the go version of struct sigevent with only the fields used
// with SIGEV_SIGNAL.
type sigevent struct {
	value  uintptr
	signo  int32
	notify int32
	_      [sigevPad]int32
}

// Immediate is an absolute timeout already in the past.
//
// Passing it to TimedSend/TimedReceive turns them into calls that never
// wait: on a blocking descriptor they fail with ETIMEDOUT instead of sleeping.
var Immediate = unix.Timespec{}

// Open opens (or creates, with the Create flag) the named message queue.
//
// name must not start with "/", the raw syscall expects it stripped.
// attr is only used when the queue is actually created, and can be nil to use
// the system defaults.
//
// From MQ_OPEN(3) manpage:
// mqd_t mq_open(const char *name, int oflag, mode_t mode, struct mq_attr *attr);
func Open(name string, flags int, perm uint32, attr *Attr) (int, error) {
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return -1, err
	}
	flags |= unix.O_CLOEXEC

	var (
		mqd   uintptr
		errno syscall.Errno
	)
	if attr == nil {
		mqd, _, errno = unix.Syscall6(
			unix.SYS_MQ_OPEN,
			uintptr(unsafe.Pointer(p)), // name
			uintptr(flags),             // oflag
			uintptr(perm),              // mode
			0,                          // attr
			0,                          // unused
			0,                          // unused
		)
	} else {
		mqd, _, errno = unix.Syscall6(
			unix.SYS_MQ_OPEN,
			uintptr(unsafe.Pointer(p)),    // name
			uintptr(flags),                // oflag
			uintptr(perm),                 // mode
			uintptr(unsafe.Pointer(attr)), // attr
			0,                             // unused
			0,                             // unused
		)
	}
	if errno != 0 {
		return -1, errno
	}
	return int(mqd), nil
}

// Close closes the descriptor.
func Close(mqd int) error {
	return unix.Close(mqd)
}

// Unlink removes the name from the system namespace.
//
// From MQ_UNLINK(3) manpage:
// int mq_unlink(const char *name);
func Unlink(name string) error {
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(
		unix.SYS_MQ_UNLINK,
		uintptr(unsafe.Pointer(p)), // name
		0,                          // unused
		0,                          // unused
	)
	if errno != 0 {
		return errno
	}
	return nil
}

// TimedSend sends data with priority prio.
//
// A nil abs blocks until there's room in the queue (for blocking descriptors).
//
// From MQ_SEND(3) manpage:
// int mq_timedsend(mqd_t mqdes, const char *msg_ptr, size_t msg_len, unsigned int msg_prio, const struct timespec *abs_timeout);
func TimedSend(mqd int, data []byte, prio uint, abs *unix.Timespec) error {
	_, _, errno := unix.Syscall6(
		unix.SYS_MQ_TIMEDSEND,
		uintptr(mqd),                                    // mqdes
		uintptr(unsafe.Pointer(unsafe.SliceData(data))), // msg_ptr
		uintptr(len(data)),                              // msg_len
		uintptr(prio),                                   // msg_prio
		uintptr(unsafe.Pointer(abs)),                    // abs_timeout
		0,                                               // unused
	)
	if errno != 0 {
		return errno
	}
	return nil
}

// TimedReceive receives the oldest message of the highest priority into buf.
//
// buf must be at least as large as the queue's MsgSize, or the kernel fails
// the call with EMSGSIZE.
//
// From MQ_RECEIVE(3) manpage:
// ssize_t mq_timedreceive(mqd_t mqdes, char *msg_ptr, size_t msg_len, unsigned int *msg_prio, const struct timespec *abs_timeout);
func TimedReceive(mqd int, buf []byte, abs *unix.Timespec) (n int, prio uint, err error) {
	var p uint32
	r, _, errno := unix.Syscall6(
		unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(mqd),                                   // mqdes
		uintptr(unsafe.Pointer(unsafe.SliceData(buf))), // msg_ptr
		uintptr(len(buf)),                              // msg_len
		uintptr(unsafe.Pointer(&p)),                    // msg_prio
		uintptr(unsafe.Pointer(abs)),                   // abs_timeout
		0,                                              // unused
	)
	if errno != 0 {
		return 0, 0, errno
	}
	return int(r), uint(p), nil
}

// GetAttr returns the current attributes of the queue.
//
// From MQ_GETSETATTR(2) manpage:
// int mq_getsetattr(mqd_t mqdes, const struct mq_attr *newattr, struct mq_attr *oldattr);
func GetAttr(mqd int) (Attr, error) {
	var attr Attr
	_, _, errno := unix.Syscall(
		unix.SYS_MQ_GETSETATTR,
		uintptr(mqd),                   // mqdes
		0,                              // newattr
		uintptr(unsafe.Pointer(&attr)), // oldattr
	)
	if errno != 0 {
		return attr, errno
	}
	return attr, nil
}

// Notify registers the calling process to receive signo once, when a message
// arrives on the queue while it's empty and no receiver is blocked on it.
//
// The registration is removed by the kernel when the signal is delivered.
// It fails with EBUSY when any process (including this one) already holds a
// registration on the queue.
//
// From MQ_NOTIFY(3) manpage:
// int mq_notify(mqd_t mqdes, const struct sigevent *sevp);
func Notify(mqd int, signo syscall.Signal) error {
	sev := sigevent{
		value:  uintptr(mqd),
		signo:  int32(signo),
		notify: sigevSignal,
	}
	_, _, errno := unix.Syscall(
		unix.SYS_MQ_NOTIFY,
		uintptr(mqd),                  // mqdes
		uintptr(unsafe.Pointer(&sev)), // sevp
		0,                             // unused
	)
	if errno != 0 {
		return errno
	}
	return nil
}

// CancelNotify removes the registration held by this process, if any.
func CancelNotify(mqd int) error {
	_, _, errno := unix.Syscall(
		unix.SYS_MQ_NOTIFY,
		uintptr(mqd), // mqdes
		0,            // sevp
		0,            // unused
	)
	if errno != 0 {
		return errno
	}
	return nil
}
