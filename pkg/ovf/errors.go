package ovf

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrFormat           = errors.New("ovf: invalid format")
	ErrTruncatedHeader  = errors.New("ovf: truncated header")
	ErrByteOrder        = errors.New("ovf: unrecognised byte-order mark")
	ErrTruncatedData    = errors.New("ovf: truncated data")
	ErrMalformedValue   = errors.New("ovf: malformed value")
	ErrEmptyGroup       = errors.New("ovf: empty group")
	ErrGeometryMismatch = errors.New("ovf: geometry mismatch")
)

// FormatError reports a header that cannot describe a decodable payload:
// a missing marker, an unknown data-type token or unusable geometry.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	return e.Msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// ByteOrderError carries the control-mark bytes that matched neither byte
// order.
type ByteOrderError struct {
	Raw   []byte
	Width int
}

func (e *ByteOrderError) Error() string {
	return fmt.Sprintf("cannot decode %d-byte order mark: 0x%s", e.Width, hex.EncodeToString(e.Raw))
}

func (e *ByteOrderError) Unwrap() error {
	return ErrByteOrder
}

// TruncatedDataError reports a payload shorter than the declared geometry.
// Want and Got are in bytes for binary payloads and lines for text payloads.
type TruncatedDataError struct {
	Unit string
	Want int64
	Got  int64
}

func (e *TruncatedDataError) Error() string {
	return fmt.Sprintf("truncated data: want %d %s, got %d", e.Want, e.Unit, e.Got)
}

func (e *TruncatedDataError) Unwrap() error {
	return ErrTruncatedData
}

// MalformedValueError reports a value that could not be parsed. Line is
// 1-based and counted from the start of the section being read.
type MalformedValueError struct {
	Section string
	Line    int
	Token   string
	Msg     string
}

func (e *MalformedValueError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s line %d: %s", e.Section, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s line %d: %s: %q", e.Section, e.Line, e.Msg, e.Token)
}

func (e *MalformedValueError) Unwrap() error {
	return ErrMalformedValue
}

// EmptyGroupError is returned when a directory holds no files matching the
// group pattern.
type EmptyGroupError struct {
	Dir     string
	Pattern string
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("no files matching %s in %s", e.Pattern, e.Dir)
}

func (e *EmptyGroupError) Unwrap() error {
	return ErrEmptyGroup
}
