// Package file opens normals input files and writes generated artifacts
// atomically.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how an input file is encoded.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// DetectCompression infers the encoding from the file extension.
func DetectCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Source is an opened, decoded input stream.
type Source struct {
	io.Reader
	Compression Compression

	closers []io.Closer
}

// Open opens path and transparently decompresses .gz, .zst and .lz4 files.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	s := &Source{Compression: DetectCompression(path), closers: []io.Closer{f}}
	switch s.Compression {
	case CompressionGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip source %s: %w", path, err)
		}
		s.Reader = zr
		s.closers = append(s.closers, zr)
	case CompressionZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd source %s: %w", path, err)
		}
		s.Reader = zr
		s.closers = append(s.closers, zr.IOReadCloser())
	case CompressionLZ4:
		s.Reader = lz4.NewReader(f)
	default:
		s.Reader = f
	}
	return s, nil
}

// Close releases the decoder and the underlying file.
func (s *Source) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
