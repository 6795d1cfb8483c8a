package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/samcharles93/ovfkit/pkg/ovf"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrOutsideDataDir = errors.New("path escapes the data directory")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// statusFor maps decode and request errors onto an HTTP status and the error
// type reported in the body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrOutsideDataDir):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, ovf.ErrEmptyGroup):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, ovf.ErrFormat),
		errors.Is(err, ovf.ErrByteOrder),
		errors.Is(err, ovf.ErrTruncatedData),
		errors.Is(err, ovf.ErrMalformedValue),
		errors.Is(err, ovf.ErrGeometryMismatch):
		return http.StatusUnprocessableEntity, "invalid_file_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
