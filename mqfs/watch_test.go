package mqfs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reddit/posixmq.go/log"
	"github.com/reddit/posixmq.go/mqfs"
)

const watchTimeout = 5 * time.Second

// waitFor reads events until one matches op and name.
func waitFor(t *testing.T, events <-chan mqfs.Event, op mqfs.Op, name string) mqfs.Event {
	t.Helper()
	timer := time.NewTimer(watchTimeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("events closed while waiting for %v %s", op, name)
			}
			if ev.Op == op && ev.Name == name {
				return ev
			}
		case <-timer.C:
			t.Fatalf("Timed out waiting for %v %s", op, name)
		}
	}
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	fs := mqfs.FS{Root: root}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := fs.Watch(ctx, log.NopWrapper)
	if err != nil {
		t.Fatal(err)
	}

	writeStatus(t, root, "jobs", "QSIZE:0 NOTIFY:0 SIGNO:0 NOTIFY_PID:0\n")
	waitFor(t, events, mqfs.Created, "/jobs")

	writeStatus(t, root, "jobs", "QSIZE:64 NOTIFY:0 SIGNO:0 NOTIFY_PID:0\n")
	for {
		ev := waitFor(t, events, mqfs.Changed, "/jobs")
		if ev.Status != nil && ev.Status.Size == 64 {
			break
		}
	}

	if err := os.Remove(filepath.Join(root, "jobs")); err != nil {
		t.Fatal(err)
	}
	ev := waitFor(t, events, mqfs.Removed, "/jobs")
	if ev.Status != nil {
		t.Errorf("Expected nil Status on removal, got %+v", ev.Status)
	}

	cancel()
	timer := time.NewTimer(watchTimeout)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timer.C:
			t.Fatal("events not closed after ctx was canceled")
		}
	}
}

func TestWatchMissingRoot(t *testing.T) {
	fs := mqfs.FS{Root: filepath.Join(t.TempDir(), "nope")}
	if _, err := fs.Watch(context.Background(), log.NopWrapper); err == nil {
		t.Error("Expected error watching a missing root, got nil")
	}
}

func TestOpString(t *testing.T) {
	for op, want := range map[mqfs.Op]string{
		mqfs.Created: "created",
		mqfs.Removed: "removed",
		mqfs.Changed: "changed",
		mqfs.Op(9):   "Op(9)",
	} {
		if got := op.String(); got != want {
			t.Errorf("String() got %q, want %q", got, want)
		}
	}
}
