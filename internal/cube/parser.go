package cube

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrParse is the parse error kind: a frame whose byte or sample accounting
// does not match the configured dimensions. A parse failure means the
// framing itself is untrustworthy, so callers must treat it as terminal for
// the stream, not as a skippable frame.
var ErrParse = errors.New("cube: frame parse failed")

// Parser reinterprets assembled frame buffers as interleaved radar cubes.
//
// The frame carries little-endian int16 (real, imag) pairs laid out in SDK
// wire order (doppler_chirp, virt_antenna, rangebin). The range processing
// stage has already interleaved the samples in logical (rangebin,
// virt_antenna, doppler_chirp) order, so parsing applies a fixed transpose
// from wire order to canonical order; this is a property of the pipeline,
// not a runtime option.
type Parser struct {
	dims        Dims
	frameLength int
	numSamples  int
}

// NewParser validates the dimensions and builds a parser for them.
func NewParser(dims Dims) (*Parser, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	return &Parser{
		dims:        dims,
		frameLength: dims.FrameLength(),
		numSamples:  dims.NumSamples(),
	}, nil
}

// FrameLength returns the exact frame size in bytes this parser accepts.
func (p *Parser) FrameLength() int { return p.frameLength }

// Parse converts a frame into an interleaved cube stamped with the current
// time.
func (p *Parser) Parse(frame []byte) (*RadarCube, error) {
	return p.ParseAt(frame, time.Now())
}

// ParseAt converts a frame into an interleaved cube with the given capture
// timestamp. The frame is consumed: the cube does not alias it.
func (p *Parser) ParseAt(frame []byte, timestamp time.Time) (*RadarCube, error) {
	// Re-checked here even though the assembler guarantees exact length.
	if len(frame) != p.frameLength {
		return nil, fmt.Errorf("%w: expected %d bytes, received %d", ErrParse, p.frameLength, len(frame))
	}
	if n := len(frame) / 2; n != 2*p.numSamples {
		return nil, fmt.Errorf("%w: expected %d int16 values, got %d", ErrParse, 2*p.numSamples, n)
	}

	numRange := p.dims.NumRangeBins
	numAnt := p.dims.NumVirtualAntennas()
	numChirp := p.dims.NumDopplerChirps()

	// Walk the frame in wire order (chirp outermost, range innermost) and
	// scatter into canonical (range, antenna, chirp) row-major storage.
	data := make([]complex64, p.numSamples)
	off := 0
	for c := 0; c < numChirp; c++ {
		for a := 0; a < numAnt; a++ {
			for r := 0; r < numRange; r++ {
				re := int16(binary.LittleEndian.Uint16(frame[off:]))
				im := int16(binary.LittleEndian.Uint16(frame[off+2:]))
				off += BytesPerSample
				data[(r*numAnt+a)*numChirp+c] = complex(float32(re), float32(im))
			}
		}
	}

	return New(data, p.dims.Shape(), Interleaved, timestamp)
}
