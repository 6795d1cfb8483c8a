package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ovfkit/pkg/ovf"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
		},
	})
}

// writeFailure reports err with the status statusFor assigns it.
func (s *Server) writeFailure(c *echo.Context, err error) error {
	status, typ := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
	}
	return writeError(c, status, typ, s.relativeMessage(err.Error()))
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, newInvalidRequest("invalid JSON body: " + err.Error())
	}
	return out, nil
}

// resolve maps a client path onto the data directory. Absolute paths and ".."
// segments are interpreted relative to the data directory root.
func (s *Server) resolve(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", newInvalidRequest("path is required")
	}
	if strings.ContainsRune(rel, 0) {
		return "", newInvalidRequest("path contains a NUL byte")
	}
	clean := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(rel))
	abs := filepath.Join(s.dataDir, clean)
	if abs != s.dataDir && !strings.HasPrefix(abs, s.dataDir+string(filepath.Separator)) {
		return "", ErrOutsideDataDir
	}
	return abs, nil
}

// relative strips the data directory from abs for responses.
func (s *Server) relative(abs string) string {
	rel, err := filepath.Rel(s.dataDir, abs)
	if err != nil {
		return filepath.Base(abs)
	}
	return filepath.ToSlash(rel)
}

func (s *Server) relativeMessage(msg string) string {
	return strings.ReplaceAll(msg, s.dataDir+string(filepath.Separator), "")
}

func parseMode(c *echo.Context) (ovf.Mode, error) {
	raw := c.QueryParam("scalar")
	if raw == "" {
		return ovf.ModeVector, nil
	}
	scalar, err := strconv.ParseBool(raw)
	if err != nil {
		return ovf.ModeVector, newInvalidRequest("scalar must be a boolean")
	}
	return modeFor(scalar), nil
}

func modeFor(scalar bool) ovf.Mode {
	if scalar {
		return ovf.ModeScalar
	}
	return ovf.ModeVector
}

func newDecodeID() string {
	return "dec_" + uuid.NewString()
}
