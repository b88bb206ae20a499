// Package mqsys is a thin, pure go (no cgo) adapter over the Linux posix
// message queue syscalls.
//
// Every function here takes and returns plain values (names, flags, Attr,
// descriptors). It owns no process-wide state, and it never interprets the
// errors it gets back: callers see the raw syscall.Errno and are expected to
// translate them.
//
// It only has linux implementations, callers on other systems need their own
// fallback.
package mqsys
