package source

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/DataDog/zstd"
)

// decompressor wraps fd in a streaming decompressor selected by file
// extension. It returns nil for plain text files.
func decompressor(fd *os.File, path string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(fd)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		return zstd.NewReader(fd), nil
	}
	return nil, nil
}
