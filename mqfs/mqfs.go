package mqfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reddit/posixmq.go/internal/limitopen"
	"github.com/reddit/posixmq.go/posixmq"
)

// DefaultRoot is where the mqueue filesystem is usually mounted.
const DefaultRoot = "/dev/mqueue"

// maxStatusSize is the hard limit of a status file.
// The kernel caps them at 80 bytes.
const maxStatusSize = 4096

// FS is an mqueue filesystem mounted at Root.
type FS struct {
	Root string
}

// Default is the FS at DefaultRoot.
var Default = FS{Root: DefaultRoot}

func (fs FS) root() string {
	if fs.Root == "" {
		return DefaultRoot
	}
	return fs.Root
}

// List returns the names of all queues, with the leading "/", sorted.
func (fs FS) List() ([]string, error) {
	entries, err := os.ReadDir(fs.root())
	if err != nil {
		return nil, fmt.Errorf("mqfs: list: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, "/"+e.Name())
	}
	return names, nil
}

// Stat returns the status of the named queue.
//
// The name can be given with or without the leading "/".
// When the queue does not exist the error wraps os.ErrNotExist.
func (fs FS) Stat(name string) (Status, error) {
	canonical, err := posixmq.CanonicalName(name)
	if err != nil {
		return Status{}, fmt.Errorf("mqfs: stat: %w", err)
	}
	path := filepath.Join(fs.root(), canonical[1:])

	info, err := os.Stat(path)
	if err != nil {
		return Status{}, fmt.Errorf("mqfs: stat %q: %w", canonical, err)
	}
	if info.IsDir() {
		return Status{}, fmt.Errorf("mqfs: stat %q: %w", canonical, errors.New("is a directory"))
	}

	f, err := limitopen.OpenWithLimit(path, 0, maxStatusSize)
	if err != nil {
		return Status{}, fmt.Errorf("mqfs: stat %q: %w", canonical, err)
	}
	defer f.Close()

	s, err := ParseStatus(f)
	if err != nil {
		return Status{}, fmt.Errorf("mqfs: stat %q: %w", canonical, err)
	}
	s.Name = canonical
	s.Mode = info.Mode().Perm()
	s.ModTime = info.ModTime()
	return s, nil
}

// StatAll returns the status of every queue.
//
// Queues removed between listing and reading are skipped.
func (fs FS) StatAll() ([]Status, error) {
	names, err := fs.List()
	if err != nil {
		return nil, err
	}
	all := make([]Status, 0, len(names))
	for _, name := range names {
		s, err := fs.Stat(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return all, nil
}
