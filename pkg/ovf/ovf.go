// Package ovf decodes OVF vector-field files written by micromagnetic
// simulators.
//
// A file is a text header terminated by a "Begin: Data" marker line, followed
// by either a binary payload (a control mark plus fixed-width floats in the
// producer's byte order) or one text line per cell. Decoded values land in a
// Field laid out (z, y, x[, component]) exactly as they appear on disk.
//
// Decoding is a pure function of the input: nothing is cached and nothing
// produced here is mutated after it is returned.
package ovf

// Data-type tokens on the marker line.
const (
	DataMarker = "Begin: Data"

	EncodingText   = "Text"
	EncodingBinary = "Binary"
)

// Control marks written ahead of a binary payload. Their on-disk bit pattern
// identifies the producer's byte order.
const (
	ControlMark4 float32 = 1234567.0
	ControlMark8 float64 = 123456789012345.0
)

// Mode selects how a payload is interpreted. The header cannot tell a scalar
// field from a vector field, so the caller has to pick.
type Mode int

const (
	ModeVector Mode = iota
	ModeScalar
)

// Components returns the number of values stored per cell in this mode.
func (m Mode) Components() int {
	if m == ModeScalar {
		return 1
	}
	return 3
}

func (m Mode) String() string {
	switch m {
	case ModeVector:
		return "vector"
	case ModeScalar:
		return "scalar"
	default:
		return "unknown"
	}
}
