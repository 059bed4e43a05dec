package testutil

import (
	"testing"

	"github.com/banshee-data/mmwave/internal/cube"
)

func TestWireFrameLayout(t *testing.T) {
	dims := cube.Dims{NumTxAntennas: 1, NumRxAntennas: 1, NumRangeBins: 4, NumChirpsPerFrame: 1}

	frame := WireFrame(t, dims, func(r, a, c int) (int16, int16) {
		if r == 0 {
			return 0x0201, 0x0403
		}
		return 0, 0
	})

	if len(frame) != dims.FrameLength() {
		t.Fatalf("frame length = %d, want %d", len(frame), dims.FrameLength())
	}

	// Little-endian (0x0201, 0x0403) is memory order [01 02 03 04]; on the
	// wire the lane arrives reversed as [04 03 02 01].
	want := []byte{0x04, 0x03, 0x02, 0x01}
	for i, b := range want {
		if frame[i] != b {
			t.Errorf("frame[%d] = %#02x, want %#02x", i, frame[i], b)
		}
	}
}

func TestZeroWireFrame(t *testing.T) {
	dims := cube.Dims{NumTxAntennas: 2, NumRxAntennas: 3, NumRangeBins: 64, NumChirpsPerFrame: 128}
	frame := ZeroWireFrame(t, dims)
	if len(frame) != 98304 {
		t.Fatalf("frame length = %d, want 98304", len(frame))
	}
	for i, b := range frame {
		if b != 0 {
			t.Fatalf("frame[%d] = %d, want 0", i, b)
		}
	}
}
