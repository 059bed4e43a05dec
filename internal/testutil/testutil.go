// Package testutil provides shared test helpers and wire-format fixture
// builders for the acquisition pipeline tests.
package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/banshee-data/mmwave/internal/cube"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// SampleFunc produces the (real, imag) int16 components for the sample at
// canonical interleaved coordinates (rangeBin, antenna, chirp).
type SampleFunc func(rangeBin, antenna, chirp int) (re, im int16)

// WireFrame serializes a synthetic cube into the exact byte stream the
// sensor puts on the bus: samples in SDK wire order (chirp outermost, range
// innermost) with each 4-byte lane in reversed [D,C,B,A] order. Feeding the
// result through the assembler's lane correction and the parser must
// reproduce the SampleFunc values.
func WireFrame(t *testing.T, dims cube.Dims, sample SampleFunc) []byte {
	t.Helper()
	if err := dims.Validate(); err != nil {
		t.Fatalf("invalid dims for wire frame: %v", err)
	}

	frame := make([]byte, 0, dims.FrameLength())
	var lane [4]byte
	for c := 0; c < dims.NumDopplerChirps(); c++ {
		for a := 0; a < dims.NumVirtualAntennas(); a++ {
			for r := 0; r < dims.NumRangeBins; r++ {
				re, im := sample(r, a, c)
				binary.LittleEndian.PutUint16(lane[0:], uint16(re))
				binary.LittleEndian.PutUint16(lane[2:], uint16(im))
				// Reverse into transport lane order.
				frame = append(frame, lane[3], lane[2], lane[1], lane[0])
			}
		}
	}
	return frame
}

// ZeroWireFrame returns an all-zero wire frame for the given dimensions.
func ZeroWireFrame(t *testing.T, dims cube.Dims) []byte {
	t.Helper()
	return WireFrame(t, dims, func(int, int, int) (int16, int16) { return 0, 0 })
}

// CoordSample is a SampleFunc that encodes the coordinates into the
// components (re = rangeBin*1000 + antenna, im = chirp), making misplaced
// samples easy to spot in failures.
func CoordSample(rangeBin, antenna, chirp int) (int16, int16) {
	return int16(rangeBin*1000 + antenna), int16(chirp)
}
