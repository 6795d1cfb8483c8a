package ovf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const readerBufferSize = 1 << 16

// readChunk is the number of values the store grows by when the size of the
// source is not known up front.
const readChunk = 1 << 20

type options struct {
	mmap bool
}

// Option configures file decoding.
type Option func(*options)

// WithMmap enables or disables memory-mapping plain input files. It is on by
// default.
func WithMmap(enabled bool) Option {
	return func(o *options) { o.mmap = enabled }
}

func buildOptions(opts []Option) options {
	o := options{mmap: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decode reads a vector field from path.
func Decode(path string, opts ...Option) (*Header, *Field, error) {
	return DecodeFile(path, ModeVector, opts...)
}

// DecodeScalar reads a single-component field from path.
func DecodeScalar(path string, opts ...Option) (*Header, *Field, error) {
	return DecodeFile(path, ModeScalar, opts...)
}

// DecodeFile reads the field at path in the given mode. The file is closed on
// every return path.
func DecodeFile(path string, mode Mode, opts ...Option) (*Header, *Field, error) {
	o := buildOptions(opts)
	rc, err := Open(path, o.mmap)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rc.Close() }()

	h, f, err := DecodeReader(rc, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return h, f, nil
}

// ReadFileHeader reads only the header of the file at path.
func ReadFileHeader(path string, opts ...Option) (*Header, error) {
	o := buildOptions(opts)
	rc, err := Open(path, o.mmap)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	h, err := ReadHeader(bufio.NewReaderSize(rc, readerBufferSize))
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	return h, nil
}

// DecodeReader decodes a complete OVF stream. When r reports how many bytes
// it holds (a *bytes.Reader, a regular *os.File or a reader returned by
// Open), a payload shorter than the declared geometry fails before any field
// storage is allocated. Other readers grow the store as data arrives.
func DecodeReader(r io.Reader, mode Mode) (*Header, *Field, error) {
	br, ok := r.(*bufio.Reader)
	avail := func() (int64, bool) { return 0, false }
	if !ok {
		br = bufio.NewReaderSize(r, readerBufferSize)
		avail = func() (int64, bool) {
			n, ok := remaining(r)
			return n + int64(br.Buffered()), ok
		}
	}
	h, err := ReadHeader(br)
	if err != nil {
		return nil, nil, err
	}

	var f *Field
	switch h.Encoding() {
	case EncodingBinary:
		f, err = decodeBinary(br, h, mode, avail)
	case EncodingText:
		f, err = decodeText(br, h, mode, avail)
	default:
		err = formatErrorf("unrecognised data type %q", h.Encoding())
	}
	if err != nil {
		return nil, nil, err
	}
	f.scale(h.Multiplier())
	return h, f, nil
}

// decodeBinary reads the control mark and then the whole payload into the
// field's backing store. With a known source size the store is allocated
// once and filled by a single read. Words are swapped in place when the
// file's byte order is not the host's.
func decodeBinary(r io.Reader, h *Header, mode Mode, avail func() (int64, bool)) (*Field, error) {
	width := h.Width()
	order, err := DetectByteOrder(r, width)
	if err != nil {
		return nil, err
	}

	n := h.Cells() * mode.Components()
	want := h.PayloadBytes(mode)
	chunk := min(n, readChunk)
	if size, ok := avail(); ok {
		if size < want {
			return nil, &TruncatedDataError{Unit: "bytes", Want: want, Got: size}
		}
		chunk = n
	}

	f := newField(h, mode)
	digest := xxhash.New()
	var got int64
	if width == 4 {
		f.f32, got, err = readValues[float32](r, n, chunk, digest)
	} else {
		f.f64, got, err = readValues[float64](r, n, chunk, digest)
	}
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &TruncatedDataError{Unit: "bytes", Want: want, Got: got}
		}
		return nil, err
	}
	f.Checksum = digest.Sum64()

	if !isNative(order) {
		f.swapBytes()
	}
	return f, nil
}

// readValues reads n host-order values from r, growing the result at most
// chunk values at a time. It returns the number of bytes read.
func readValues[T float32 | float64](r io.Reader, n, chunk int, digest *xxhash.Digest) ([]T, int64, error) {
	out := make([]T, 0, min(n, chunk))
	var got int64
	for len(out) < n {
		k := min(n-len(out), chunk)
		out = slices.Grow(out, k)
		raw := sliceBytes(out[len(out) : len(out)+k])
		m, err := io.ReadFull(r, raw)
		got += int64(m)
		if err != nil {
			return nil, got, err
		}
		_, _ = digest.Write(raw)
		out = out[:len(out)+k]
	}
	return out, got, nil
}

// decodeText reads one line per cell. Vector fields need exactly three
// tokens per line, scalar fields exactly one.
func decodeText(r io.Reader, h *Header, mode Mode, avail func() (int64, bool)) (*Field, error) {
	nc := mode.Components()
	cells := h.Cells()
	n := cells * nc

	// Every value takes at least one digit and one separator.
	hint := min(n, readChunk)
	if size, ok := avail(); ok {
		hint = int(min(int64(n), size/2+1))
	}

	f := newField(h, mode)
	f.f64 = make([]float64, 0, hint)
	digest := xxhash.New()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	line := 0
	for line < cells {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, &TruncatedDataError{Unit: "lines", Want: int64(cells), Got: int64(line)}
		}
		text := sc.Bytes()
		_, _ = digest.Write(text)
		_, _ = digest.Write([]byte{'\n'})

		tokens := bytes.Fields(text)
		if len(tokens) != nc {
			return nil, &MalformedValueError{
				Section: "data",
				Line:    line + 1,
				Token:   string(text),
				Msg:     fmt.Sprintf("want %d values, got %d", nc, len(tokens)),
			}
		}
		for _, tok := range tokens {
			v, err := strconv.ParseFloat(string(tok), 64)
			if err != nil {
				return nil, &MalformedValueError{Section: "data", Line: line + 1, Token: string(tok), Msg: "not a number"}
			}
			f.f64 = append(f.f64, v)
		}
		line++
	}
	f.f64 = slices.Clip(f.f64)
	f.Checksum = digest.Sum64()
	return f, nil
}
