package export

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/samcharles93/ovfkit/pkg/ovf"
)

// FieldDocument is the JSON form of a decoded file.
type FieldDocument struct {
	Header   *ovf.Header `json:"header"`
	Mode     string      `json:"mode"`
	Shape    []int       `json:"shape"`
	Width    int         `json:"width"`
	Checksum string      `json:"checksum"`
	Values   []float64   `json:"values,omitempty"`
}

// NewFieldDocument describes f. Values are included only when withValues is
// set.
func NewFieldDocument(h *ovf.Header, f *ovf.Field, withValues bool) FieldDocument {
	mode := ovf.ModeVector
	if f.Components() == 1 {
		mode = ovf.ModeScalar
	}
	doc := FieldDocument{
		Header:   h,
		Mode:     mode.String(),
		Shape:    f.Shape(),
		Width:    f.Width(),
		Checksum: Checksum(f),
	}
	if withValues {
		doc.Values = f.Float64s()
	}
	return doc
}

// Checksum formats the field's payload digest as 16 hex digits.
func Checksum(f *ovf.Field) string {
	return fmt.Sprintf("%016x", f.Checksum)
}

// WriteJSON writes the header, shape and flat values of f as one indented
// JSON document.
func WriteJSON(w io.Writer, h *ovf.Header, f *ovf.Field) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewFieldDocument(h, f, true))
}
