// Package series loads a directory of per-step OVF files into an ordered
// time series.
package series

import (
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

// Frame is one decoded step of a series.
type Frame struct {
	Path   string
	Header *ovf.Header
	Field  *ovf.Field
}

// SimTime returns the simulation time recorded in the frame's header, or -1.
func (f Frame) SimTime() float64 {
	return f.Header.SimTime
}

// Series holds frames in filename order. Every frame has the same shape.
type Series struct {
	Dir    string
	Prefix string
	Mode   ovf.Mode
	Frames []Frame
}

// Len returns the number of frames.
func (s *Series) Len() int {
	return len(s.Frames)
}

// Shape returns (frames, znodes, ynodes, xnodes[, 3]).
func (s *Series) Shape() []int {
	if len(s.Frames) == 0 {
		return nil
	}
	return append([]int{len(s.Frames)}, s.Frames[0].Field.Shape()...)
}

// At returns component c of cell (z, y, x) in frame t.
func (s *Series) At(t, z, y, x, c int) float64 {
	return s.Frames[t].Field.At(z, y, x, c)
}

// SimTimes returns the simulation time of every frame in order.
func (s *Series) SimTimes() []float64 {
	out := make([]float64, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f.SimTime()
	}
	return out
}
