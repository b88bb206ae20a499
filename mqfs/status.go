package mqfs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// NotifyMethod is the sigev_notify value of a notification registration.
type NotifyMethod int

// NotifyMethod values, as defined in <signal.h>.
const (
	NotifySignal NotifyMethod = 0
	NotifyNone   NotifyMethod = 1
	NotifyThread NotifyMethod = 2
)

func (m NotifyMethod) String() string {
	switch m {
	case NotifySignal:
		return "signal"
	case NotifyNone:
		return "none"
	case NotifyThread:
		return "thread"
	}
	return "NotifyMethod(" + strconv.Itoa(int(m)) + ")"
}

// Status is the state of a queue as reported by the mqueue filesystem.
type Status struct {
	// Name of the queue, with the leading "/".
	Name string

	// Total bytes of all messages currently in the queue.
	Size int64

	// Notify, Signal and NotifyPID describe the notification registration.
	// NotifyPID is 0 when nobody is registered, in which case Notify and
	// Signal are 0 too.
	Notify    NotifyMethod
	Signal    int
	NotifyPID int

	// From the file itself.
	Mode    os.FileMode
	ModTime time.Time
}

// Registered reports whether a process holds the notification registration.
func (s Status) Registered() bool {
	return s.NotifyPID != 0
}

// ParseStatus parses the status line of an mqueue file.
//
// Unknown fields are ignored so that newer kernels can add more.
func ParseStatus(r io.Reader) (Status, error) {
	var s Status
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return s, fmt.Errorf("mqfs: reading status: %w", err)
		}
		return s, fmt.Errorf("mqfs: empty status: %w", io.ErrUnexpectedEOF)
	}
	var seen int
	for _, field := range strings.Fields(scanner.Text()) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			return s, fmt.Errorf("mqfs: malformed status field %q", field)
		}
		switch key {
		case "QSIZE", "NOTIFY", "SIGNO", "NOTIFY_PID":
		default:
			continue
		}
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return s, fmt.Errorf("mqfs: malformed status field %q: %w", field, err)
		}
		switch key {
		case "QSIZE":
			s.Size = v
		case "NOTIFY":
			s.Notify = NotifyMethod(v)
		case "SIGNO":
			s.Signal = int(v)
		case "NOTIFY_PID":
			s.NotifyPID = int(v)
		}
		seen++
	}
	if seen == 0 {
		return s, fmt.Errorf("mqfs: no status fields in %q", scanner.Text())
	}
	return s, nil
}
