package ovf

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unsafe"
)

// DetectByteOrder consumes the width-byte control mark that precedes a binary
// payload and returns the byte order that reproduces the expected constant.
// Big-endian is tried first.
func DetectByteOrder(r io.Reader, width int) (binary.ByteOrder, error) {
	if width != 4 && width != 8 {
		return nil, formatErrorf("unsupported binary width %d", width)
	}
	buf := make([]byte, width)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &TruncatedDataError{Unit: "control-mark bytes", Want: int64(width), Got: int64(n)}
		}
		return nil, err
	}
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		if matchesControlMark(buf, order) {
			return order, nil
		}
	}
	return nil, &ByteOrderError{Raw: buf, Width: width}
}

func matchesControlMark(b []byte, order binary.ByteOrder) bool {
	switch len(b) {
	case 4:
		return math.Float32frombits(order.Uint32(b)) == ControlMark4
	case 8:
		return math.Float64frombits(order.Uint64(b)) == ControlMark8
	}
	return false
}

// hostByteOrder reports the byte order of the running machine.
func hostByteOrder() binary.ByteOrder {
	var probe uint16 = 0x0100
	if (*[2]byte)(unsafe.Pointer(&probe))[0] == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

var nativeOrder = hostByteOrder()

func isNative(order binary.ByteOrder) bool {
	return order == nativeOrder
}

// NativeOrder returns the byte order of the slice returned by Field.Bytes.
func NativeOrder() binary.ByteOrder {
	return nativeOrder
}
