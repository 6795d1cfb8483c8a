package ovf

import (
	"fmt"
	"math/bits"
	"unsafe"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/floats"
)

// Field is a decoded payload. Values are stored flat in file order, which is
// row-major over (z, y, x[, component]). Exactly one of the float32 and
// float64 stores is populated, matching the payload's value width; text
// payloads decode to float64.
//
// Slices returned by Float32s and Float64s alias the field's storage and must
// not be modified.
type Field struct {
	shape []int
	f32   []float32
	f64   []float64

	// Checksum is the xxhash64 of the payload bytes as they were read,
	// excluding the control mark.
	Checksum uint64
}

// newField sets up the shape of h in mode. The decoder fills the store.
func newField(h *Header, mode Mode) *Field {
	f := &Field{shape: []int{h.ZNodes, h.YNodes, h.XNodes}}
	if mode == ModeVector {
		f.shape = append(f.shape, 3)
	}
	return f
}

// Shape returns (znodes, ynodes, xnodes, 3) for vector fields and
// (znodes, ynodes, xnodes) for scalar fields.
func (f *Field) Shape() []int {
	return append([]int(nil), f.shape...)
}

// Components returns 3 for vector fields and 1 for scalar fields.
func (f *Field) Components() int {
	if len(f.shape) == 4 {
		return f.shape[3]
	}
	return 1
}

// Width returns the size in bytes of one stored value.
func (f *Field) Width() int {
	if f.f32 != nil {
		return 4
	}
	return 8
}

// Len returns the total number of stored values.
func (f *Field) Len() int {
	if f.f32 != nil {
		return len(f.f32)
	}
	return len(f.f64)
}

// Cells returns the number of grid cells.
func (f *Field) Cells() int {
	return f.shape[0] * f.shape[1] * f.shape[2]
}

// Value returns the i-th stored value in file order.
func (f *Field) Value(i int) float64 {
	if f.f32 != nil {
		return float64(f.f32[i])
	}
	return f.f64[i]
}

func (f *Field) offset(z, y, x int) int {
	if z < 0 || z >= f.shape[0] || y < 0 || y >= f.shape[1] || x < 0 || x >= f.shape[2] {
		panic(fmt.Sprintf("ovf: index (%d, %d, %d) out of range for shape %v", z, y, x, f.shape))
	}
	return ((z*f.shape[1]+y)*f.shape[2] + x) * f.Components()
}

// At returns component c of the cell at (z, y, x).
func (f *Field) At(z, y, x, c int) float64 {
	if c < 0 || c >= f.Components() {
		panic(fmt.Sprintf("ovf: component %d out of range for %d components", c, f.Components()))
	}
	return f.Value(f.offset(z, y, x) + c)
}

// Scalar returns the value at (z, y, x) of a scalar field, or the first
// component of a vector field.
func (f *Field) Scalar(z, y, x int) float64 {
	return f.Value(f.offset(z, y, x))
}

// Float32s returns the float32 store, or nil when the field holds float64.
func (f *Field) Float32s() []float32 {
	return f.f32
}

// Float64s returns the values as float64. Width-8 fields return their store
// directly; width-4 fields return a widened copy.
func (f *Field) Float64s() []float64 {
	if f.f64 != nil {
		return f.f64
	}
	out := make([]float64, len(f.f32))
	for i, v := range f.f32 {
		out[i] = float64(v)
	}
	return out
}

// Component extracts component c of every cell, in cell order.
func (f *Field) Component(c int) []float64 {
	nc := f.Components()
	if c < 0 || c >= nc {
		panic(fmt.Sprintf("ovf: component %d out of range for %d components", c, nc))
	}
	out := make([]float64, f.Cells())
	for i := range out {
		out[i] = f.Value(i*nc + c)
	}
	return out
}

// Bytes returns the field storage viewed as host-order bytes.
func (f *Field) Bytes() []byte {
	if f.f32 != nil {
		return sliceBytes(f.f32)
	}
	return sliceBytes(f.f64)
}

// SameGeometry reports whether g has the same shape as f.
func (f *Field) SameGeometry(g *Field) bool {
	if len(f.shape) != len(g.shape) {
		return false
	}
	for i := range f.shape {
		if f.shape[i] != g.shape[i] {
			return false
		}
	}
	return true
}

func sliceBytes[T float32 | float64 | uint32 | uint64](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(s[0])))
}

// swapBytes reverses the byte order of every stored word in place. It runs
// once over the whole store after the bulk read; values are never decoded
// one at a time.
func (f *Field) swapBytes() {
	if len(f.f32) > 0 {
		words := unsafe.Slice((*uint32)(unsafe.Pointer(&f.f32[0])), len(f.f32))
		for i, w := range words {
			words[i] = bits.ReverseBytes32(w)
		}
		return
	}
	if len(f.f64) > 0 {
		words := unsafe.Slice((*uint64)(unsafe.Pointer(&f.f64[0])), len(f.f64))
		for i, w := range words {
			words[i] = bits.ReverseBytes64(w)
		}
	}
}

func (f *Field) scale(m float64) {
	if m == 1 {
		return
	}
	if len(f.f32) > 0 {
		blas32.Scal(float32(m), blas32.Vector{N: len(f.f32), Inc: 1, Data: f.f32})
		return
	}
	floats.Scale(m, f.f64)
}
