package limitopen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reddit/posixmq.go/internal/prometheusbpint"
	"github.com/reddit/posixmq.go/log"
)

const (
	promNamespace = "posixmq_limitopen"

	// Labelled by the directory so that one gauge covers all the queues
	// under /dev/mqueue.
	dirLabel = "dir"
)

var (
	sizeGauge = promauto.With(prometheusbpint.GlobalRegistry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "file_size_bytes",
		Help:      "The size of the last file opened by limitopen.OpenWithLimit in the directory",
	}, []string{dirLabel})

	softLimitCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "softlimit_violation_total",
		Help:      "The total number of violations of softlimit",
	}, []string{dirLabel})
)

// ErrTooLarge is wrapped by *LimitError.
var ErrTooLarge = errors.New("limitopen: file too large")

// LimitError is returned by OpenWithLimit when the file is over the hard limit.
type LimitError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("limitopen: size %d of %q is over the limit %d", e.Size, e.Path, e.Limit)
}

// Unwrap returns ErrTooLarge.
func (e *LimitError) Unwrap() error {
	return ErrTooLarge
}

// Open opens path for reading, returning the size reported by the system.
//
// Reads never go beyond that size. Files under /dev/mqueue report a fixed
// size covering their status line.
//
// It never returns both non-nil r and err.
// When err is nil it's the caller's responsibility to close r.
func Open(path string) (r io.ReadCloser, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("limitopen: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("limitopen: stat %q: %w", path, err)
	}
	size = stat.Size()
	return readCloser{
		Reader: io.LimitReader(f, size),
		Closer: f,
	}, size, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// OpenWithLimit calls Open with limit checks.
//
// The size is reported by the posixmq_limitopen_file_size_bytes gauge of the
// directory of path.
// Over a positive softLimit it logs at error level and increases
// posixmq_limitopen_softlimit_violation_total.
// Over a positive hardLimit it closes the file and returns *LimitError.
func OpenWithLimit(path string, softLimit, hardLimit int64) (io.ReadCloser, error) {
	r, size, err := Open(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	sizeGauge.WithLabelValues(dir).Set(float64(size))

	if softLimit > 0 && size > softLimit {
		log.Errorw(
			"limitopen: file size over soft limit",
			"path", path,
			"size", size,
			"limit", softLimit,
		)
		softLimitCounter.WithLabelValues(dir).Inc()
	}

	if hardLimit > 0 && size > hardLimit {
		r.Close()
		return nil, &LimitError{
			Path:  path,
			Size:  size,
			Limit: hardLimit,
		}
	}
	return r, nil
}
