package ovf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sys/unix"
)

// Compressed file suffixes recognised after ".ovf".
var compressedSuffixes = []string{".gz", ".zst", ".lz4", ".sz"}

// CompressedSuffixes returns the suffixes that Open decompresses on the fly.
func CompressedSuffixes() []string {
	return append([]string(nil), compressedSuffixes...)
}

type source struct {
	io.Reader
	closers []func() error
}

func (s *source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// remaining reports how many unread bytes r holds, when that is knowable
// without reading it.
func remaining(r io.Reader) (int64, bool) {
	switch v := r.(type) {
	case *source:
		return remaining(v.Reader)
	case *os.File:
		st, err := v.Stat()
		if err != nil || !st.Mode().IsRegular() {
			return 0, false
		}
		off, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		return max(st.Size()-off, 0), true
	case interface{ Len() int }:
		return int64(v.Len()), true
	}
	return 0, false
}

// Open returns a reader over the decoded byte stream of path. Plain files are
// memory-mapped when useMmap is set and the platform allows it; compressed
// files are decompressed as they are read. The caller must Close the result.
func Open(path string, useMmap bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src := &source{closers: []func() error{f.Close}}

	fail := func(err error) (io.ReadCloser, error) {
		_ = src.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return fail(err)
		}
		src.Reader = zr
		src.closers = append(src.closers, zr.Close)
	case ".zst":
		dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return fail(err)
		}
		src.Reader = dec
		src.closers = append(src.closers, func() error { dec.Close(); return nil })
	case ".lz4":
		src.Reader = lz4.NewReader(f)
	case ".sz":
		src.Reader = snappy.NewReader(f)
	default:
		if useMmap {
			if data, ok := mapFile(f); ok {
				src.Reader = bytes.NewReader(data)
				src.closers = append(src.closers, func() error { return unix.Munmap(data) })
				return src, nil
			}
		}
		src.Reader = f
	}
	return src, nil
}

// mapFile maps f read-only. It reports false when the file is empty or the
// mapping fails, in which case the caller reads through the descriptor.
func mapFile(f *os.File) ([]byte, bool) {
	st, err := f.Stat()
	if err != nil || st.Size() <= 0 || st.Size() > int64(int(^uint(0)>>1)) {
		return nil, false
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, false
	}
	return data, true
}

// IsOVFName reports whether name carries an .ovf extension, optionally
// followed by one of the compressed suffixes.
func IsOVFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(TrimCompressedSuffix(name)), ".ovf")
}

// TrimCompressedSuffix strips a recognised compression suffix from name.
func TrimCompressedSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, s := range compressedSuffixes {
		if strings.HasSuffix(lower, s) {
			return name[:len(name)-len(s)]
		}
	}
	return name
}
