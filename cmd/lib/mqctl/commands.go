package mqctl

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/reddit/posixmq.go/log"
	"github.com/reddit/posixmq.go/mqpublish"
	"github.com/reddit/posixmq.go/posixmq"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseNamed parses args and returns the queue name and the remaining
// positional args.
func parseNamed(fs *flag.FlagSet, args []string, minArgs int) (string, []string, error) {
	if err := fs.Parse(args); err != nil {
		return "", nil, fmt.Errorf("%s: %w", fs.Name(), err)
	}
	if fs.NArg() < minArgs+1 {
		return "", nil, fmt.Errorf("%s: usage: %s", fs.Name(), usages[fs.Name()])
	}
	return fs.Arg(0), fs.Args()[1:], nil
}

func runCreate(ctx context.Context, e *env, cfg Config, args []string) error {
	fs := newFlagSet("create")
	maxMessages := fs.Int64("max-messages", 0, "Overrides the max messages of the config.")
	maxMessageSize := fs.Int64("max-message-size", 0, "Overrides the max message size of the config.")
	perm := fs.String("perm", "", "Overrides the octal permissions of the config.")
	name, _, err := parseNamed(fs, args, 0)
	if err != nil {
		return err
	}

	opts, err := cfg.queueOptions(posixmq.ModeWriteOnly)
	if err != nil {
		return err
	}
	if *maxMessages != 0 {
		if err := opts.SetMaxMessages(*maxMessages); err != nil {
			return err
		}
	}
	if *maxMessageSize != 0 {
		if err := opts.SetMaxMessageSize(*maxMessageSize); err != nil {
			return err
		}
	}
	if *perm != "" {
		mode, err := strconv.ParseUint(*perm, 8, 32)
		if err != nil {
			return fmt.Errorf("create: invalid -perm %q: %w", *perm, err)
		}
		opts.WithPermissions(os.FileMode(mode))
	}

	q := e.newQueue(opts)
	if err := q.Create(name); err != nil {
		return err
	}
	defer q.Close()
	attrs, err := q.Attributes()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%s\t%v\n", q.Name(), attrs)
	return nil
}

func runSend(ctx context.Context, e *env, cfg Config, args []string) error {
	fs := newFlagSet("send")
	create := fs.Bool("create", false, "Create the queue when it doesn't exist.")
	name, msgs, err := parseNamed(fs, args, 1)
	if err != nil {
		return err
	}

	opts, err := cfg.queueOptions(posixmq.ModeWriteOnly)
	if err != nil {
		return err
	}
	q := e.newQueue(opts)
	if *create {
		err = q.Create(name)
	} else {
		err = q.Open(name)
	}
	if err != nil {
		return err
	}
	defer q.Close()

	pub := mqpublish.New(q, cfg.Publisher)
	defer pub.Close()
	for i, msg := range msgs {
		if err := pub.Put(ctx, []byte(msg)); err != nil {
			return fmt.Errorf("send: message %d: %w", i, err)
		}
	}
	log.Debugw("mqctl: sent", "queue", q.Name(), "count", len(msgs))
	return nil
}

// formats are the choices of -format, all of them formatter values.
var formats = map[string]interface{}{
	"text": formatter(formatText),
	"hex":  formatter(formatHex),
}

type formatter func(msg posixmq.Message) string

func formatText(msg posixmq.Message) string {
	if msg.DecodeErr != nil {
		return strconv.Quote(string(msg.Data))
	}
	return msg.Text
}

func formatHex(msg posixmq.Message) string {
	return hex.EncodeToString(msg.Data)
}

// printer writes messages to w, one per line.
type printer struct {
	lock   sync.Mutex
	w      io.Writer
	format formatter
}

func (p *printer) print(msg posixmq.Message) {
	p.lock.Lock()
	defer p.lock.Unlock()
	fmt.Fprintf(p.w, "%s\t%d\t%s\n", msg.Source, msg.Priority, p.format(msg))
}

func (p *printer) printf(format string, args ...interface{}) {
	p.lock.Lock()
	defer p.lock.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func formatFlag(fs *flag.FlagSet) *oneof {
	format := &oneof{
		choices: formats,
		value:   "text",
	}
	fs.Var(format, "format", fmt.Sprintf("How to print messages, one of %s.", format.choicesString()))
	return format
}

// finished reports whether err just means the command ran out of time or
// was interrupted.
func finished(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func runReceive(ctx context.Context, e *env, cfg Config, args []string) error {
	fs := newFlagSet("receive")
	count := fs.Int("count", 0, "Receive this many messages then exit, 0 means until interrupted.")
	nonBlocking := fs.Bool("nonblock", false, "Exit once the queue is empty.")
	format := formatFlag(fs)
	name, _, err := parseNamed(fs, args, 0)
	if err != nil {
		return err
	}

	p := &printer{w: e.stdout, format: format.getValue().(formatter)}
	opts, err := cfg.queueOptions(posixmq.ModeReadOnly)
	if err != nil {
		return err
	}
	if *nonBlocking {
		opts.NonBlocking()
	}
	opts.WithHandler(posixmq.HandlerFunc(func(_ context.Context, msg posixmq.Message) error {
		p.print(msg)
		return nil
	}))

	q := e.newQueue(opts)
	if err := q.Open(name); err != nil {
		return err
	}
	defer q.Close()

	if *count > 0 {
		for i := 0; i < *count; i++ {
			msg, err := q.Next(ctx)
			if err != nil {
				if *nonBlocking && errors.Is(err, posixmq.ErrWouldBlock) {
					return nil
				}
				return err
			}
			p.print(msg)
		}
		return nil
	}

	err = q.Receive(ctx)
	if finished(err) || (*nonBlocking && errors.Is(err, posixmq.ErrWouldBlock)) {
		return nil
	}
	return err
}

func runAttrs(ctx context.Context, e *env, cfg Config, args []string) error {
	fs := newFlagSet("attrs")
	name, _, err := parseNamed(fs, args, 0)
	if err != nil {
		return err
	}
	opts, err := cfg.queueOptions(posixmq.ModeReadOnly)
	if err != nil {
		return err
	}
	q := e.newQueue(opts)
	if err := q.Open(name); err != nil {
		return err
	}
	defer q.Close()
	attrs, err := q.Attributes()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%s\t%v\n", q.Name(), attrs)
	return nil
}

func runUnlink(ctx context.Context, e *env, cfg Config, args []string) error {
	fs := newFlagSet("unlink")
	name, rest, err := parseNamed(fs, args, 0)
	if err != nil {
		return err
	}
	var errs []error
	for _, n := range append([]string{name}, rest...) {
		errs = append(errs, e.unlink(n))
	}
	return errors.Join(errs...)
}

func runNotify(ctx context.Context, e *env, cfg Config, args []string) error {
	fs := newFlagSet("notify")
	count := fs.Int("count", 0, "Exit after this many notifications, 0 means until interrupted.")
	rearm := fs.Bool("rearm", false, "Drain the queue on every notification.")
	format := formatFlag(fs)
	name, _, err := parseNamed(fs, args, 0)
	if err != nil {
		return err
	}

	p := &printer{w: e.stdout, format: format.getValue().(formatter)}
	opts, err := cfg.queueOptions(posixmq.ModeReadOnly)
	if err != nil {
		return err
	}
	if *rearm {
		opts.RearmNotifications()
	}
	notified := make(chan struct{})
	opts.WithHandler(posixmq.HandlerFunc(func(ctx context.Context, msg posixmq.Message) error {
		p.print(msg)
		select {
		case notified <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	}))

	q := e.newQueue(opts)
	if err := q.Open(name); err != nil {
		return err
	}
	defer q.Close()
	if err := q.Notify(); err != nil {
		return err
	}
	p.printf("waiting on %s\n", q.Name())

	for seen := 0; *count <= 0 || seen < *count; seen++ {
		select {
		case <-ctx.Done():
			if finished(ctx.Err()) {
				return nil
			}
			return ctx.Err()
		case <-notified:
		}
		if !*rearm {
			if err := q.Notify(); err != nil && !errors.Is(err, posixmq.ErrInvalidState) {
				return err
			}
		}
	}
	return nil
}

func runList(ctx context.Context, e *env, cfg Config, args []string) error {
	statuses, err := cfg.mqfs().StatAll()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODE\tNOTIFY\tPID")
	for _, s := range statuses {
		notify := "-"
		if s.Registered() {
			notify = s.Notify.String()
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%s\t%d\n", s.Name, s.Size, s.Mode, notify, s.NotifyPID)
	}
	return w.Flush()
}

func runWatch(ctx context.Context, e *env, cfg Config, args []string) error {
	events, err := cfg.mqfs().Watch(ctx, log.ErrorWithSentryWrapper())
	if err != nil {
		return err
	}
	for ev := range events {
		if ev.Status != nil {
			fmt.Fprintf(e.stdout, "%v\t%s\tsize=%d\n", ev.Op, ev.Name, ev.Status.Size)
		} else {
			fmt.Fprintf(e.stdout, "%v\t%s\n", ev.Op, ev.Name)
		}
	}
	return nil
}
