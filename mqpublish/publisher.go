package mqpublish

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go"

	"github.com/reddit/posixmq.go/breakerbp"
	"github.com/reddit/posixmq.go/internal/prometheusbpint"
	"github.com/reddit/posixmq.go/log"
	"github.com/reddit/posixmq.go/posixmq"
	"github.com/reddit/posixmq.go/retrybp"
)

// Default values of Config.
const (
	DefaultInitialBackoff = time.Millisecond
	DefaultMaxBackoff     = 50 * time.Millisecond
)

// Config is the configuration of a Publisher.
//
// Can be deserialized from YAML:
//
//	publisher:
//	  maxPutTimeout: 100ms
//	  retries: 3
//	  breaker:
//	    name: events
//	    minRequestsToTrip: 10
//	    failureThreshold: 0.5
type Config struct {
	// The max timeout applied to Put.
	//
	// If the ctx passed to Put already has an earlier deadline set,
	// that deadline is respected instead.
	// If <=0, only the deadline of the ctx passed to Put applies.
	MaxPutTimeout time.Duration `yaml:"maxPutTimeout"`

	// Retries after the first attempt when the queue is full.
	// 0 means no retries.
	Retries int `yaml:"retries"`

	// Backoff between retries. Defaults to DefaultInitialBackoff and
	// DefaultMaxBackoff.
	InitialBackoff time.Duration `yaml:"initialBackoff"`
	MaxBackoff     time.Duration `yaml:"maxBackoff"`

	// Optional circuit breaker around every attempt.
	Breaker *breakerbp.Config `yaml:"breaker"`

	// Logger reports retried attempts. Defaults to debug level zap logging.
	Logger log.Wrapper `yaml:"-"`
}

// Sender is the part of a posixmq.Queue used by a Publisher.
type Sender interface {
	Name() string
	Publish(ctx context.Context, data []byte) error
}

var _ Sender = (*posixmq.Queue)(nil)

// Publisher puts messages into a queue.
//
// It's safe for concurrent use.
type Publisher struct {
	sender   Sender
	closer   func() error
	cfg      Config
	breaker  breakerbp.CircuitBreaker
	inflight *prometheusbpint.HighWatermarkValue
	options  []retry.Option
	closed   atomic.Bool
}

// New creates a Publisher on top of sender.
//
// Closing the Publisher does not close sender.
func New(sender Sender, cfg Config) *Publisher {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = log.ZapWrapper(log.DebugLevel.ToZapLevel())
	}

	p := &Publisher{
		sender:   sender,
		cfg:      cfg,
		inflight: inflightPuts.WithLabelValue(sender.Name()),
	}
	if cfg.Breaker != nil {
		bc := *cfg.Breaker
		if bc.Name == "" {
			bc.Name = sender.Name()
		}
		p.breaker = breakerbp.NewFailureRatioBreaker(bc)
	}
	p.options = []retry.Option{
		retry.Attempts(uint(cfg.Retries) + 1),
		retry.LastErrorOnly(true),
		retrybp.CappedExponentialBackoff(retrybp.CappedExponentialBackoffArgs{
			InitialDelay: cfg.InitialBackoff,
			MaxDelay:     cfg.MaxBackoff,
			MaxJitter:    cfg.InitialBackoff,
		}),
		retrybp.Filters(
			retrybp.RetryableErrorFilter,
			retrybp.ContextErrorFilter,
			WouldBlockFilter,
			retrybp.BreakerErrorFilter,
		),
	}
	return p
}

// Create creates (or opens) the queue named name with queueCfg forced to
// write-only, and returns a Publisher that owns it.
func Create(name string, queueCfg posixmq.Config, cfg Config) (*Publisher, error) {
	return create(posixmq.NewQueue, name, queueCfg, cfg)
}

func create(newQueue func(*posixmq.Options) *posixmq.Queue, name string, queueCfg posixmq.Config, cfg Config) (*Publisher, error) {
	queueCfg.Mode = posixmq.ModeWriteOnly
	opts, err := queueCfg.Options()
	if err != nil {
		return nil, err
	}
	q := newQueue(opts)
	if err := q.Create(name); err != nil {
		return nil, err
	}
	p := New(q, cfg)
	p.closer = q.Close
	return p, nil
}

// Put puts data into the queue.
//
// It returns the error of the last attempt, wrapped so that errors.Is and
// errors.As see the posixmq errors, or gobreaker.ErrOpenState when the breaker
// is open.
func (p *Publisher) Put(ctx context.Context, data []byte) error {
	if p.closed.Load() {
		return fmt.Errorf("mqpublish: put to %q: %w", p.sender.Name(), &posixmq.StateError{
			Op:     "put",
			State:  posixmq.StateClosed,
			Reason: "publisher closed",
		})
	}
	if p.cfg.MaxPutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.MaxPutTimeout)
		defer cancel()
	}

	p.inflight.Inc()
	defer p.inflight.Dec()

	options := append(p.options[:len(p.options):len(p.options)], retry.OnRetry(func(n uint, err error) {
		p.cfg.Logger.Log(ctx, fmt.Sprintf(
			"mqpublish: put to %q failed on attempt %d: %v",
			p.sender.Name(),
			n+1,
			err,
		))
	}))
	err := retrybp.Do(ctx, func() error {
		return p.attempt(ctx, data)
	}, options...)
	if err != nil {
		return fmt.Errorf("mqpublish: put to %q: %w", p.sender.Name(), err)
	}
	return nil
}

func (p *Publisher) attempt(ctx context.Context, data []byte) error {
	if p.breaker == nil {
		return p.sender.Publish(ctx, data)
	}
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.sender.Publish(ctx, data)
	})
	return err
}

// InFlight returns the number of Put calls in progress on the queue,
// counting all Publishers of the same queue name.
func (p *Publisher) InFlight() int64 {
	return p.inflight.Get()
}

// Close closes the queue if it was opened by Create.
//
// After Close is called, all Put calls return a *posixmq.StateError,
// whether the Publisher came from New or Create.
func (p *Publisher) Close() error {
	p.closed.Store(true)
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// WouldBlockFilter is a retrybp.Filter that retries posixmq.ErrWouldBlock,
// which is returned when the queue is full.
//
// Messages too large for the queue are never retried.
func WouldBlockFilter(err error, next retry.RetryIfFunc) bool {
	var tooLarge posixmq.MessageTooLargeError
	if errors.As(err, &tooLarge) {
		return false
	}
	if errors.Is(err, posixmq.ErrWouldBlock) {
		return true
	}
	return next(err)
}

var _ retrybp.Filter = WouldBlockFilter

var inflightPuts = prometheusbpint.NewHighWatermarkVec(
	"mqpublish_inflight_puts",
	"The number of Put calls in progress",
	"queue",
)

func init() {
	prometheusbpint.GlobalRegistry.MustRegister(inflightPuts)
}
