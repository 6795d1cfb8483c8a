// Package export writes decoded fields in formats other tools read: NumPy
// .npy arrays and JSON documents.
package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samcharles93/ovfkit/internal/series"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

// npy header block, including the 10-byte preamble, is padded to a multiple
// of this many bytes.
const npyAlign = 64

var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y', 1, 0}

// npyDescr returns the dtype string for width-byte floats in order.
func npyDescr(order binary.ByteOrder, width int) string {
	prefix := "<"
	if order == binary.BigEndian {
		prefix = ">"
	}
	return prefix + "f" + strconv.Itoa(width)
}

// npyShape formats shape as a Python tuple literal.
func npyShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func npyHeader(descr string, shape []int) ([]byte, error) {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, npyShape(shape))

	const preamble = 10
	total := preamble + len(dict) + 1
	if rem := total % npyAlign; rem != 0 {
		total += npyAlign - rem
	}
	hlen := total - preamble
	if hlen > 0xffff {
		return nil, fmt.Errorf("npy header too long (%d bytes)", hlen)
	}

	var b bytes.Buffer
	b.Grow(total)
	b.Write(npyMagic)
	b.Write(binary.LittleEndian.AppendUint16(nil, uint16(hlen)))
	b.WriteString(dict)
	b.WriteString(strings.Repeat(" ", hlen-len(dict)-1))
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// WriteNPY writes f as a C-ordered .npy array with the field's shape. The
// payload is written straight from the field's storage in host byte order,
// which the dtype records.
func WriteNPY(w io.Writer, f *ovf.Field) error {
	hdr, err := npyHeader(npyDescr(ovf.NativeOrder(), f.Width()), f.Shape())
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err = w.Write(f.Bytes())
	return err
}

// WriteSeriesNPY writes s as one array with a leading time axis. Frames of
// mixed value width are widened to float64.
func WriteSeriesNPY(w io.Writer, s *series.Series) error {
	if s.Len() == 0 {
		return fmt.Errorf("write series: no frames")
	}
	width := s.Frames[0].Field.Width()
	for _, fr := range s.Frames[1:] {
		if fr.Field.Width() != width {
			width = 8
			break
		}
	}

	order := ovf.NativeOrder()
	hdr, err := npyHeader(npyDescr(order, width), s.Shape())
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	for _, fr := range s.Frames {
		if fr.Field.Width() == width {
			if _, err := w.Write(fr.Field.Bytes()); err != nil {
				return err
			}
			continue
		}
		if err := binary.Write(w, order, fr.Field.Float64s()); err != nil {
			return fmt.Errorf("write %s: %w", fr.Path, err)
		}
	}
	return nil
}
