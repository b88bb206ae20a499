package mqfs

import (
	"context"
	"fmt"
	"path/filepath"

	"gopkg.in/fsnotify.v1"

	"github.com/reddit/posixmq.go/log"
)

// Op is the kind of change reported by Watch.
type Op int

// Op values.
const (
	Created Op = iota
	Removed
	Changed
)

func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Event is a change to a queue.
type Event struct {
	Op Op

	// Name of the queue, with the leading "/".
	Name string

	// Status read right after the change.
	// Nil for Removed events, or when the read failed.
	Status *Status
}

// Watch reports changes to the queues under fs until ctx is done,
// at which point the returned channel is closed.
//
// Errors from the underlying watcher and from reading the status of a queue
// are reported to logger, which falls back to the logger attached to ctx
// when nil.
func (fs FS) Watch(ctx context.Context, logger log.Wrapper) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("mqfs: watch: %w", err)
	}
	if err := watcher.Add(fs.root()); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("mqfs: watch %q: %w", fs.root(), err)
	}

	events := make(chan Event)
	go fs.watcherLoop(ctx, watcher, events, logger)
	return events, nil
}

func (fs FS) watcherLoop(ctx context.Context, watcher *fsnotify.Watcher, events chan<- Event, logger log.Wrapper) {
	defer close(events)
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log(ctx, "mqfs: watcher error: "+err.Error())

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			event, ok := fs.translate(ctx, ev, logger)
			if !ok {
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (fs FS) translate(ctx context.Context, ev fsnotify.Event, logger log.Wrapper) (Event, bool) {
	event := Event{
		Name: "/" + filepath.Base(ev.Name),
	}
	switch {
	case ev.Op&fsnotify.Create != 0:
		event.Op = Created
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		event.Op = Removed
		return event, true
	case ev.Op&(fsnotify.Write|fsnotify.Chmod) != 0:
		event.Op = Changed
	default:
		return event, false
	}

	s, err := fs.Stat(event.Name)
	if err != nil {
		logger.Log(ctx, "mqfs: status error: "+err.Error())
	} else {
		event.Status = &s
	}
	return event, true
}
