//go:build !linux
// +build !linux

package posixmq

import (
	"os"
	"syscall"
)

// Notification signals are only supported on linux.
var defaultNotifySignal os.Signal

var systemDriver driver = unsupportedDriver{}

// unsupportedDriver is the system namespace on platforms without posix
// message queue syscalls exposed to go.
//
// MockNamespace works on all platforms.
type unsupportedDriver struct{}

func (unsupportedDriver) open(string, openConfig) (descriptor, error) {
	return nil, syscall.ENOSYS
}

func (unsupportedDriver) unlink(string) error {
	return syscall.ENOSYS
}
