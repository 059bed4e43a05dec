package cube

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// sdkFrame builds a lane-corrected frame (as handed over by the assembler):
// little-endian int16 pairs in SDK wire order, chirp outermost, range
// innermost.
func sdkFrame(t *testing.T, dims Dims, sample func(r, a, c int) (int16, int16)) []byte {
	t.Helper()
	frame := make([]byte, 0, dims.FrameLength())
	var buf [4]byte
	for c := 0; c < dims.NumDopplerChirps(); c++ {
		for a := 0; a < dims.NumVirtualAntennas(); a++ {
			for r := 0; r < dims.NumRangeBins; r++ {
				re, im := sample(r, a, c)
				binary.LittleEndian.PutUint16(buf[0:], uint16(re))
				binary.LittleEndian.PutUint16(buf[2:], uint16(im))
				frame = append(frame, buf[:]...)
			}
		}
	}
	return frame
}

func TestParserZeroFrame(t *testing.T) {
	dims := Dims{NumTxAntennas: 2, NumRxAntennas: 3, NumRangeBins: 64, NumChirpsPerFrame: 128}
	p, err := NewParser(dims)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	if p.FrameLength() != 98304 {
		t.Fatalf("FrameLength = %d, want 98304", p.FrameLength())
	}

	c, err := p.Parse(make([]byte, p.FrameLength()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := c.Shape(); got != [3]int{64, 6, 64} {
		t.Errorf("Shape = %v, want [64 6 64]", got)
	}
	if !c.Interleaved() {
		t.Error("parsed cube must be interleaved")
	}
	for i, v := range c.Values() {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestParserAxisPermutation(t *testing.T) {
	// Small dims so every coordinate is checked: 1x2 antennas, 4 range
	// bins, 3 chirps.
	dims := Dims{NumTxAntennas: 1, NumRxAntennas: 2, NumRangeBins: 4, NumChirpsPerFrame: 3}
	p, err := NewParser(dims)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	frame := sdkFrame(t, dims, func(r, a, c int) (int16, int16) {
		return int16(r*100 + a*10 + c), int16(-(r + a + c))
	})

	ts := time.Unix(1700000000, 0)
	c, err := p.ParseAt(frame, ts)
	if err != nil {
		t.Fatalf("ParseAt: %v", err)
	}
	if !c.Timestamp().Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", c.Timestamp(), ts)
	}

	want := make([]complex64, dims.NumSamples())
	shape := dims.Shape()
	for r := 0; r < shape[0]; r++ {
		for a := 0; a < shape[1]; a++ {
			for ch := 0; ch < shape[2]; ch++ {
				want[(r*shape[1]+a)*shape[2]+ch] = complex(
					float32(r*100+a*10+ch),
					float32(-(r+a+ch)),
				)
			}
		}
	}
	if diff := cmp.Diff(want, c.Values()); diff != "" {
		t.Errorf("parsed values mismatch (-want +got):\n%s", diff)
	}
}

func TestParserNegativeComponents(t *testing.T) {
	dims := Dims{NumTxAntennas: 1, NumRxAntennas: 1, NumRangeBins: 4, NumChirpsPerFrame: 1}
	p, err := NewParser(dims)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	frame := sdkFrame(t, dims, func(r, a, c int) (int16, int16) {
		return -32768, 32767
	})
	c, err := p.Parse(frame)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	for _, v := range c.Values() {
		if real(v) != -32768 || imag(v) != 32767 {
			t.Fatalf("sample = %v, want (-32768+32767i)", v)
		}
	}
}

func TestParserLengthMismatch(t *testing.T) {
	dims := Dims{NumTxAntennas: 1, NumRxAntennas: 1, NumRangeBins: 4, NumChirpsPerFrame: 2}
	p, err := NewParser(dims)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	for _, n := range []int{0, 4, p.FrameLength() - 4, p.FrameLength() + 4} {
		if _, err := p.Parse(make([]byte, n)); !errors.Is(err, ErrParse) {
			t.Errorf("Parse(%d bytes) error = %v, want ErrParse", n, err)
		}
	}
}

func TestNewParserRejectsBadDims(t *testing.T) {
	if _, err := NewParser(Dims{NumTxAntennas: 2, NumRxAntennas: 3, NumRangeBins: 63, NumChirpsPerFrame: 128}); !errors.Is(err, ErrInvalidDims) {
		t.Errorf("NewParser error = %v, want ErrInvalidDims", err)
	}
}
