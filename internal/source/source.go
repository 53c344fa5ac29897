// Package source resolves a glob pattern against the local filesystem and
// exposes the lines of all matched files as one logically concatenated,
// order-preserving, single-pass sequence.
//
// File handles are acquired lazily, one at a time: a file is opened when its
// first line is needed and closed as soon as it is fully consumed (or when
// the Reader is closed early). Compressed log files are decompressed
// transparently based on their file extension.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// readerBufferSize is the size of the pooled read buffers.
const readerBufferSize = 64 * 1024

// readerPool recycles bufio readers across file transitions. Parses touch
// many files in sequence and this avoids re-allocating the read buffer for
// every one of them.
var readerPool = sync.Pool{
	New: func() interface{} {
		return bufio.NewReaderSize(nil, readerBufferSize)
	},
}

// Reader yields the lines of all files matched by a glob pattern, in glob
// order, file by file. It is a single-pass sequence: once exhausted it stays
// exhausted. A Reader is not safe for concurrent use.
type Reader struct {
	glob    string
	paths   []string
	idx     int
	current string
	fd      *os.File
	dec     io.ReadCloser
	br      *bufio.Reader
	done    bool
}

// Open resolves the glob pattern eagerly but opens no file yet. A pattern
// matching zero files is valid and yields an empty sequence. Glob syntax
// errors are returned as filepath.ErrBadPattern.
func Open(glob string) (*Reader, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", glob, err)
	}
	return &Reader{glob: glob, paths: paths}, nil
}

// Glob returns the pattern the Reader was opened with.
func (r *Reader) Glob() string {
	return r.glob
}

// Paths returns the files matched at open time, in the order they are read.
func (r *Reader) Paths() []string {
	return r.paths
}

// Next returns the next line with its trailing newline removed (a trailing
// carriage return is removed as well). A last line without a newline is still
// yielded. It returns io.EOF once all files are consumed; any other error
// terminates the sequence.
func (r *Reader) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}
	for {
		if r.br == nil {
			if err := r.advance(); err != nil {
				return "", err
			}
		}
		line, err := r.br.ReadString('\n')
		switch {
		case err == nil:
			return trimLine(line), nil
		case errors.Is(err, io.EOF):
			r.closeCurrent()
			if line != "" {
				return trimLine(line), nil
			}
			// Move on to the next file.
		default:
			path := r.current
			r.closeCurrent()
			r.done = true
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
}

// Close releases the currently held file handle, if any. It is safe to call
// after exhaustion and more than once. Further Next calls return io.EOF.
func (r *Reader) Close() error {
	r.closeCurrent()
	r.done = true
	return nil
}

// advance opens the next regular file of the glob, skipping directories.
// It returns io.EOF when no paths remain.
func (r *Reader) advance() error {
	for r.idx < len(r.paths) {
		path := r.paths[r.idx]
		r.idx++

		info, err := os.Stat(path)
		if err != nil {
			r.done = true
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}

		fd, err := os.Open(path)
		if err != nil {
			r.done = true
			return fmt.Errorf("open %s: %w", path, err)
		}
		dec, err := decompressor(fd, path)
		if err != nil {
			fd.Close()
			r.done = true
			return fmt.Errorf("open %s: %w", path, err)
		}

		br := readerPool.Get().(*bufio.Reader)
		if dec != nil {
			br.Reset(dec)
		} else {
			br.Reset(fd)
		}

		r.current = path
		r.fd = fd
		r.dec = dec
		r.br = br
		return nil
	}
	r.done = true
	return io.EOF
}

// closeCurrent releases the active file handle and recycles the read buffer.
func (r *Reader) closeCurrent() {
	if r.br != nil {
		r.br.Reset(nil)
		readerPool.Put(r.br)
		r.br = nil
	}
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
	}
	if r.fd != nil {
		r.fd.Close()
		r.fd = nil
	}
	r.current = ""
}

func trimLine(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
