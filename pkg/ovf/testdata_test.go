package ovf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// synth describes a synthetic OVF file for tests.
type synth struct {
	nx, ny, nz int
	width      int // 0 writes a text payload
	order      binary.AppendByteOrder
	values     []float64
	multiplier string
	extra      []string
	mark       []byte
	noEnd      bool
}

func (s synth) header() *bytes.Buffer {
	var b bytes.Buffer
	fmt.Fprintln(&b, "# OOMMF OVF 2.0")
	fmt.Fprintln(&b, "# Segment count: 1")
	fmt.Fprintln(&b, "# Begin: Segment")
	fmt.Fprintln(&b, "# Begin: Header")
	fmt.Fprintln(&b, "# Title: m")
	fmt.Fprintln(&b, "# meshtype: rectangular")
	fmt.Fprintln(&b, "# meshunit: m")
	fmt.Fprintln(&b, "# xmin: 0")
	fmt.Fprintln(&b, "# xbase: 2.5e-09")
	fmt.Fprintln(&b, "# ybase: 2.5e-09")
	fmt.Fprintln(&b, "# zbase: 5e-10")
	fmt.Fprintf(&b, "# xnodes: %d\n", s.nx)
	fmt.Fprintf(&b, "# ynodes: %d\n", s.ny)
	fmt.Fprintf(&b, "# znodes: %d\n", s.nz)
	fmt.Fprintln(&b, "# xstepsize: 5e-09")
	fmt.Fprintln(&b, "# ystepsize: 5e-09")
	fmt.Fprintln(&b, "# zstepsize: 1e-09")
	fmt.Fprintln(&b, "# valuedim: 3")
	if s.multiplier != "" {
		fmt.Fprintf(&b, "# valuemultiplier: %s\n", s.multiplier)
	}
	for _, line := range s.extra {
		fmt.Fprintln(&b, line)
	}
	fmt.Fprintln(&b, "# End: Header")
	return &b
}

func (s synth) bytes(t testing.TB) []byte {
	t.Helper()
	b := s.header()

	if s.width == 0 {
		fmt.Fprintln(b, "# Begin: Data Text")
		nc := len(s.values) / (s.nx * s.ny * s.nz)
		for i := 0; i < len(s.values); i += nc {
			for c := 0; c < nc; c++ {
				if c > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(strconv.FormatFloat(s.values[i+c], 'g', -1, 64))
			}
			b.WriteByte('\n')
		}
		if !s.noEnd {
			fmt.Fprintln(b, "# End: Data Text")
		}
		return b.Bytes()
	}

	order := s.order
	if order == nil {
		order = binary.LittleEndian
	}
	fmt.Fprintf(b, "# Begin: Data Binary %d\n", s.width)
	switch {
	case s.mark != nil:
		b.Write(s.mark)
	case s.width == 4:
		b.Write(order.AppendUint32(nil, math.Float32bits(ControlMark4)))
	default:
		b.Write(order.AppendUint64(nil, math.Float64bits(ControlMark8)))
	}
	for _, v := range s.values {
		if s.width == 4 {
			b.Write(order.AppendUint32(nil, math.Float32bits(float32(v))))
		} else {
			b.Write(order.AppendUint64(nil, math.Float64bits(v)))
		}
	}
	if !s.noEnd {
		fmt.Fprintf(b, "\n# End: Data Binary %d\n# End: Segment\n", s.width)
	}
	return b.Bytes()
}

func (s synth) write(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, s.bytes(t), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}
