package randbp

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// R is a global thread-safe rng.
//
// It embeds *math/rand.Rand, but properly seeded and safe for concurrent use
// (except for Read, which is not used by this module).
//
// Never use it for security purpose, use crypto/rand for that instead.
var R = New(Seed())

// Rand embeds *math/rand.Rand.
type Rand struct {
	*rand.Rand
}

// New initializes a thread-safe Rand from seed.
//
// Two Rands created with the same seed produce the same sequence.
func New(seed int64) Rand {
	src := rand.NewSource(seed).(rand.Source64)
	return Rand{
		Rand: rand.New(&lockedSource{src: src}),
	}
}

// Seed returns a seed read from crypto/rand, or the current time when that
// fails.
func Seed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.BigEndian.Uint64(buf[:]))
}

// QueueName returns prefix followed by a random number, with the leading "/"
// of a queue name.
//
// It's meant for tests that need queues nobody else uses.
func QueueName(prefix string) string {
	return "/" + prefix + strconv.FormatUint(R.Uint64(), 36)
}

type lockedSource struct {
	lock sync.Mutex
	src  rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.src.Seed(seed)
}
