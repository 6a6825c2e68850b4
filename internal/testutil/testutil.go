// Package testutil provides shared test helpers for building content trees.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Logger returns a logger that drops everything below error.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// ContentRoot creates a temporary content root.
func ContentRoot(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// WriteFile writes data to rel under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, data string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// Touch sets the modification time of rel under root.
func Touch(t *testing.T, root, rel string, mod time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.Chtimes(p, mod, mod); err != nil {
		t.Fatal(err)
	}
}

// Post renders a content file from YAML frontmatter lines and a body.
//
//	testutil.Post("Kyoto in Autumn", "date: 2024-11-02", "tags: [kyoto]")
func Post(title string, fm ...string) string {
	var b strings.Builder
	b.WriteString("---\n")
	if title != "" {
		b.WriteString("title: " + title + "\n")
	}
	for _, l := range fm {
		b.WriteString(l + "\n")
	}
	b.WriteString("---\n\n")
	b.WriteString("Body of " + title + ".\n")
	return b.String()
}

// DBPath returns a path for a temporary SQLite database that is removed
// when the test ends.
func DBPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "wanderlog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() {
		os.Remove(f.Name())
		os.Remove(f.Name() + "-wal")
		os.Remove(f.Name() + "-shm")
	})
	return f.Name()
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}
