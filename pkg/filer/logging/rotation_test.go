package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/filer/pkg/filer/logging"
)

func countLogFiles(t *testing.T, dir, prefix string) int {
	t.Helper()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	n := 0
	for _, f := range files {
		if strings.HasPrefix(f.Name(), prefix) && strings.HasSuffix(f.Name(), ".log") {
			n++
		}
	}
	return n
}

func TestRotationBySize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "rotate.log"), logging.RotationConfig{MaxSize: 256})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	line := []byte(strings.Repeat("x", 60) + "\n")
	for i := 0; i < 20; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if n := countLogFiles(t, dir, "rotate"); n < 2 {
		t.Errorf("expected rotated files, got %d log files", n)
	}
}

func TestRotationMaxBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "backups.log"), logging.RotationConfig{
		MaxSize:    64,
		MaxBackups: 2,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	line := []byte(strings.Repeat("y", 60) + "\n")
	for i := 0; i < 12; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Current file plus at most two backups.
	if n := countLogFiles(t, dir, "backups"); n > 3 {
		t.Errorf("got %d log files, want at most 3", n)
	}
}

func TestWriteAfterClose(t *testing.T) {
	t.Parallel()

	w, err := logging.NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), logging.RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := w.Write([]byte("late")); err == nil {
		t.Error("Write() after Close() succeeded")
	}
}
