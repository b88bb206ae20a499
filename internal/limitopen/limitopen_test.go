package limitopen_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reddit/posixmq.go/internal/limitopen"
)

func setup(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatalf("Failed to close file %q for writing: %v", path, err)
		}
	}()
	if _, err := io.Copy(f, strings.NewReader(content)); err != nil {
		t.Fatalf("Failed to write to file %q: %v", path, err)
	}
	return path
}

func TestOpen(t *testing.T) {
	const (
		content = "Hello, world!"
		max     = int64(len(content))
	)

	t.Run("read", func(t *testing.T) {
		path := setup(t, content)
		r, size, err := limitopen.Open(path)
		if err != nil {
			t.Fatalf("limitopen.Open returned error on %q: %v", path, err)
		}
		t.Cleanup(func() {
			r.Close()
		})
		if size != max {
			t.Errorf("Expected size to be %d, got %d", max, size)
		}
		var sb strings.Builder
		if _, err := io.Copy(&sb, r); err != nil {
			t.Fatalf("Failed to read from file %q: %v", path, err)
		}
		if read := sb.String(); read != content {
			t.Errorf("Expected to read %q, got %q", content, read)
		}
	})

	t.Run("close", func(t *testing.T) {
		path := setup(t, content)
		r, _, err := limitopen.Open(path)
		if err != nil {
			t.Fatalf("limitopen.Open returned error on %q: %v", path, err)
		}

		if err := r.Close(); err != nil {
			t.Fatalf("Close on %q returned error: %v", path, err)
		}
		buf := make([]byte, 1)
		if _, err := r.Read(buf); err == nil {
			t.Error("Expected error from Read after Close is called, got nothing")
		}
	})
}

func TestOpenWithLimit(t *testing.T) {
	const content = "QSIZE:12         NOTIFY:0     SIGNO:0     NOTIFY_PID:0     \n"

	t.Run("under", func(t *testing.T) {
		path := setup(t, content)
		r, err := limitopen.OpenWithLimit(path, 0, 80)
		if err != nil {
			t.Fatalf("OpenWithLimit returned error on %q: %v", path, err)
		}
		t.Cleanup(func() {
			r.Close()
		})
		b, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != content {
			t.Errorf("Expected to read %q, got %q", content, b)
		}
	})

	t.Run("soft", func(t *testing.T) {
		path := setup(t, content)
		r, err := limitopen.OpenWithLimit(path, 8, 0)
		if err != nil {
			t.Fatalf("OpenWithLimit returned error on %q: %v", path, err)
		}
		r.Close()
	})

	t.Run("hard", func(t *testing.T) {
		path := setup(t, content)
		r, err := limitopen.OpenWithLimit(path, 0, 8)
		if err == nil {
			r.Close()
			t.Fatal("Expected hard limit error, got nil")
		}
		if !errors.Is(err, limitopen.ErrTooLarge) {
			t.Errorf("Expected ErrTooLarge, got %v", err)
		}
		var le *limitopen.LimitError
		if !errors.As(err, &le) || le.Limit != 8 || le.Size != int64(len(content)) {
			t.Errorf("Unexpected LimitError %+v", le)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := limitopen.OpenWithLimit(filepath.Join(t.TempDir(), "missing"), 0, 8)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected os.ErrNotExist, got %v", err)
		}
	})
}
