// Package testutil provides shared helpers for writing log file fixtures in
// tests. All fixtures are cleaned up automatically when the test ends.
package testutil

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DataDog/zstd"
)

// TempFile creates a temporary file with the given content and returns its
// path. The file is removed when the test ends.
func TempFile(t *testing.T, content string) string {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "dataparser-test-*.log")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		t.Fatalf("failed to write to temp file: %v", err)
	}

	if err := tmpfile.Close(); err != nil {
		os.Remove(tmpfile.Name())
		t.Fatalf("failed to close temp file: %v", err)
	}

	t.Cleanup(func() {
		os.Remove(tmpfile.Name())
	})

	return tmpfile.Name()
}

// TempDir creates a temporary directory and returns its path. The directory
// is removed when the test ends.
func TempDir(t *testing.T) string {
	t.Helper()

	tmpdir, err := os.MkdirTemp("", "dataparser-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	t.Cleanup(func() {
		os.RemoveAll(tmpdir)
	})

	return tmpdir
}

// CreateFileTree creates a directory structure below baseDir. Keys are
// relative file paths, values are file contents.
func CreateFileTree(t *testing.T, baseDir string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		fullPath := filepath.Join(baseDir, path)
		dir := filepath.Dir(fullPath)

		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}

		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file %s: %v", fullPath, err)
		}
	}
}

// WriteGzipFile writes content gzip-compressed to path.
func WriteGzipFile(t *testing.T, path, content string) {
	t.Helper()

	fd, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer fd.Close()

	zw := gzip.NewWriter(fd)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write gzip data to %s: %v", path, err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish gzip stream of %s: %v", path, err)
	}
}

// WriteZstdFile writes content zstd-compressed to path.
func WriteZstdFile(t *testing.T, path, content string) {
	t.Helper()

	fd, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer fd.Close()

	zw := zstd.NewWriter(fd)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write zstd data to %s: %v", path, err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish zstd stream of %s: %v", path, err)
	}
}

// GenerateLogLines generates count log lines of the form
// "2025-03-02 08:14:07 [LEVEL] message", the shape most parser tests
// extract columns from. Timestamps advance one second per line.
func GenerateLogLines(count int) []string {
	levels := []string{"INFO", "WARN", "ERROR", "DEBUG"}
	messages := []string{
		"accepted connection from 10.0.0.12:44912",
		"request served in 18ms",
		"cache miss for key session",
		"flushing 128 buffered records",
		"upstream timed out after 2s",
		"retry 3 of 5 scheduled",
		"worker drained, waiting for input",
		"rotated output segment",
	}

	lines := make([]string, count)
	for i := 0; i < count; i++ {
		lines[i] = fmt.Sprintf("2025-03-02 08:%02d:%02d [%s] %s",
			(i/60)%60, i%60, levels[i%len(levels)], messages[i%len(messages)])
	}
	return lines
}
