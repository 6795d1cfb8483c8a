package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/ovfkit/internal/series"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

func binaryField(t *testing.T, width, nx int, values ...float64) (*ovf.Header, *ovf.Field) {
	t.Helper()
	var b bytes.Buffer
	fmt.Fprintf(&b, "# xnodes: %d\n# ynodes: 1\n# znodes: 1\n# valuemultiplier: 1\n", nx)
	fmt.Fprintf(&b, "# Begin: Data Binary %d\n", width)
	if width == 4 {
		b.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(ovf.ControlMark4)))
	} else {
		b.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(ovf.ControlMark8)))
	}
	for _, v := range values {
		if width == 4 {
			b.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(v))))
		} else {
			b.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
		}
	}
	h, f, err := ovf.DecodeReader(&b, ovf.ModeVector)
	require.NoError(t, err)
	return h, f
}

// readNPY splits an .npy stream into its header dict and payload.
func readNPY(t *testing.T, raw []byte) (string, []byte) {
	t.Helper()
	require.True(t, bytes.HasPrefix(raw, npyMagic))
	hlen := int(binary.LittleEndian.Uint16(raw[8:10]))
	require.Zero(t, (10+hlen)%npyAlign, "header must be 64-byte aligned")
	dict := string(raw[10 : 10+hlen])
	require.True(t, strings.HasSuffix(dict, "\n"))
	return strings.TrimSpace(dict), raw[10+hlen:]
}

func TestWriteNPY(t *testing.T) {
	t.Parallel()

	_, f := binaryField(t, 4, 2, 1, 2, 3, 4, 5, 6)
	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, f))

	dict, payload := readNPY(t, buf.Bytes())
	assert.Contains(t, dict, "'descr': '"+npyDescr(ovf.NativeOrder(), 4)+"'")
	assert.Contains(t, dict, "'fortran_order': False")
	assert.Contains(t, dict, "'shape': (1, 1, 2, 3)")
	require.Len(t, payload, 24)

	order := ovf.NativeOrder()
	for i := range 6 {
		got := math.Float32frombits(order.Uint32(payload[i*4:]))
		assert.Equal(t, float32(i+1), got)
	}
}

func TestWriteSeriesNPY(t *testing.T) {
	t.Parallel()

	h0, f0 := binaryField(t, 4, 1, 1, 2, 3)
	h1, f1 := binaryField(t, 8, 1, 4, 5, 6)
	s := &series.Series{Frames: []series.Frame{
		{Path: "m0.ovf", Header: h0, Field: f0},
		{Path: "m1.ovf", Header: h1, Field: f1},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesNPY(&buf, s))
	dict, payload := readNPY(t, buf.Bytes())
	assert.Contains(t, dict, "'shape': (2, 1, 1, 1, 3)")
	assert.Contains(t, dict, "f8'")
	require.Len(t, payload, 6*8)

	order := ovf.NativeOrder()
	for i := range 6 {
		assert.Equal(t, float64(i+1), math.Float64frombits(order.Uint64(payload[i*8:])))
	}

	require.Error(t, WriteSeriesNPY(&buf, &series.Series{}))
}

func TestNPYShape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(5,)", npyShape([]int{5}))
	assert.Equal(t, "(2, 3)", npyShape([]int{2, 3}))
	assert.Equal(t, "<f8", npyDescr(binary.LittleEndian, 8))
	assert.Equal(t, ">f4", npyDescr(binary.BigEndian, 4))
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	h, f := binaryField(t, 8, 2, 0.5, 1, 1.5, 2, 2.5, 3)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, h, f))

	var doc struct {
		Header struct {
			XNodes          int      `json:"xnodes"`
			DataType        []string `json:"data_type"`
			ValueMultiplier float64  `json:"value_multiplier"`
		} `json:"header"`
		Mode     string    `json:"mode"`
		Shape    []int     `json:"shape"`
		Width    int       `json:"width"`
		Checksum string    `json:"checksum"`
		Values   []float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, 2, doc.Header.XNodes)
	assert.Equal(t, "Binary", doc.Header.DataType[3])
	assert.Equal(t, 1.0, doc.Header.ValueMultiplier)
	assert.Equal(t, "vector", doc.Mode)
	assert.Equal(t, []int{1, 1, 2, 3}, doc.Shape)
	assert.Equal(t, 8, doc.Width)
	assert.Len(t, doc.Checksum, 16)
	assert.Equal(t, Checksum(f), doc.Checksum)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2, 2.5, 3}, doc.Values)
}

func TestFieldDocumentWithoutValues(t *testing.T) {
	t.Parallel()

	h, f := binaryField(t, 4, 1, 1, 2, 3)
	doc := NewFieldDocument(h, f, false)
	assert.Nil(t, doc.Values)
	assert.Equal(t, 4, doc.Width)
}
