//go:build linux
// +build linux

package posixmq_test

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/reddit/posixmq.go/posixmq"
	"github.com/reddit/posixmq.go/randbp"
)

// createSystemQueue creates a uniquely named system queue, skipping the test
// when the environment doesn't allow it (e.g. sandboxes without mqueue).
func createSystemQueue(t *testing.T, opts *posixmq.Options) (*posixmq.Queue, string) {
	t.Helper()
	name := randbp.QueueName("posixmq-test-")
	q := posixmq.NewQueue(opts)
	if err := q.Create(name); err != nil {
		for _, errno := range []syscall.Errno{syscall.ENOSYS, syscall.EACCES, syscall.EPERM, syscall.ENOSPC, syscall.EMFILE} {
			if errors.Is(err, errno) {
				t.Skipf("System message queues not available: %v", err)
			}
		}
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if q.State() == posixmq.StateOpen {
			q.Close()
		}
		if err := posixmq.Unlink(name); err != nil && !errors.Is(err, syscall.ENOENT) {
			t.Errorf("Failed to unlink %q: %v", name, err)
		}
	})
	return q, name
}

func TestSystemQueue(t *testing.T) {
	const msg = "hello, world!"
	opts := limits(t, posixmq.ReadWrite(), 1, int64(len(msg)))
	q, name := createSystemQueue(t, opts)

	attrs, err := q.Attributes()
	if err != nil {
		t.Fatal(err)
	}
	if attrs.MaxMessages != 1 || attrs.MaxMessageSize != int64(len(msg)) || attrs.CurrentMessages != 0 {
		t.Errorf("Unexpected attributes %v", attrs)
	}

	t.Run("message-too-large", func(t *testing.T) {
		err := q.Publish(context.Background(), []byte(msg+"!"))
		if !errors.Is(err, syscall.EMSGSIZE) {
			t.Errorf("Expected EMSGSIZE, got %v", err)
		}
	})

	t.Run("send", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		if err := q.Publish(ctx, []byte(msg)); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("send-timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := q.Publish(ctx, []byte(msg))
		var te posixmq.TimedOutError
		if !errors.As(err, &te) {
			t.Errorf("Expected TimedOutError on full queue, got %v", err)
		}
	})

	t.Run("receive", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		got, err := q.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got.Text != msg {
			t.Errorf("Next() got %q, want %q", got.Text, msg)
		}
		if got.Priority != posixmq.Priority {
			t.Errorf("Next() got priority %d, want %d", got.Priority, posixmq.Priority)
		}
	})

	t.Run("open", func(t *testing.T) {
		other := posixmq.NewQueue(posixmq.ReadOnly().NonBlocking())
		if err := other.Open(name); err != nil {
			t.Fatal(err)
		}
		defer other.Close()
		if _, err := other.Next(context.Background()); !errors.Is(err, posixmq.ErrWouldBlock) {
			t.Errorf("Expected ErrWouldBlock on empty queue, got %v", err)
		}
	})

	t.Run("close-wakes-receive", func(t *testing.T) {
		result := make(chan error, 1)
		go func() {
			result <- q.Receive(context.Background())
		}()
		time.Sleep(20 * time.Millisecond)
		if err := q.Close(); err != nil {
			t.Fatal(err)
		}
		select {
		case err := <-result:
			if !errors.Is(err, posixmq.ErrClosed) && !errors.Is(err, posixmq.ErrInvalidState) {
				t.Errorf("Expected ErrClosed, got %v", err)
			}
		case <-time.After(testTimeout):
			t.Fatal("Receive did not return after close")
		}
	})
}

func TestSystemQueueNotify(t *testing.T) {
	h := newCollector()
	r, name := createSystemQueue(t, posixmq.ReadOnly().WithHandler(h))

	w := posixmq.NewQueue(posixmq.WriteOnly())
	if err := w.Open(name); err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := r.Notify(); err != nil {
		t.Fatal(err)
	}
	publish(t, w, "notified")
	msg := h.next(t)
	if msg.Text != "notified" {
		t.Errorf("Got %q, want %q", msg.Text, "notified")
	}
	if msg.Source != posixmq.SourceNotify {
		t.Errorf("Got source %v, want %v", msg.Source, posixmq.SourceNotify)
	}
}

func TestSystemUnlinkMissing(t *testing.T) {
	err := posixmq.Unlink(randbp.QueueName("posixmq-missing-"))
	if errors.Is(err, syscall.ENOSYS) {
		t.Skip("System message queues not available")
	}
	if !errors.Is(err, syscall.ENOENT) {
		t.Errorf("Expected ENOENT, got %v", err)
	}
}
