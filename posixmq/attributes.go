package posixmq

import (
	"fmt"
)

// Flags are the descriptor flags reported in Attributes.
type Flags uint

// Flags values.
const (
	FlagNonBlocking Flags = 1 << iota
)

func (f Flags) String() string {
	if f&FlagNonBlocking != 0 {
		return "nonblocking"
	}
	return "blocking"
}

// Attributes is a point-in-time snapshot of a queue's attributes.
type Attributes struct {
	Flags           Flags
	MaxMessages     int64
	MaxMessageSize  int64
	CurrentMessages int64
}

// NonBlocking returns true if the descriptor the attributes were read from is
// non-blocking.
func (a Attributes) NonBlocking() bool {
	return a.Flags&FlagNonBlocking != 0
}

func (a Attributes) String() string {
	return fmt.Sprintf(
		"flags=%v maxmsg=%d msgsize=%d curmsgs=%d",
		a.Flags,
		a.MaxMessages,
		a.MaxMessageSize,
		a.CurrentMessages,
	)
}
