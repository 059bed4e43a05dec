package framer

import (
	"errors"
	"fmt"

	"github.com/banshee-data/mmwave/internal/spibus"
)

// ErrShortRead is returned when a bus transaction yields fewer bytes than
// requested. The transport contract guarantees exact-size reads per
// transaction, so a short read means the two sides have lost
// synchronization and the stream cannot continue.
var ErrShortRead = errors.New("framer: short bus read")

// FrameAssembler collects exact-length frames from a bus, one gated chunk at
// a time. Each 4-byte transfer lane arrives in reversed byte order
// [D,C,B,A] (a property of the sensor's shift-register path, not an option)
// and is rewritten to [A,B,C,D] before being appended to the frame.
//
// An assembler exclusively owns its transport and performs no internal
// locking; run it on a single goroutine.
type FrameAssembler struct {
	bus          spibus.Bus
	gate         *SyncGate
	frameLength  int
	maxChunkSize int
}

// NewFrameAssembler validates the geometry and builds an assembler.
// Both frameLength and maxChunkSize must be positive multiples of 4, the
// transport's atomic transfer unit.
func NewFrameAssembler(bus spibus.Bus, gate *SyncGate, frameLength, maxChunkSize int) (*FrameAssembler, error) {
	if frameLength <= 0 {
		return nil, fmt.Errorf("framer: frame length %d must be positive", frameLength)
	}
	if frameLength%4 != 0 {
		return nil, fmt.Errorf("framer: frame length %d must be a multiple of 4", frameLength)
	}
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("framer: max chunk size %d must be positive", maxChunkSize)
	}
	if maxChunkSize%4 != 0 {
		return nil, fmt.Errorf("framer: max chunk size %d must be a multiple of 4", maxChunkSize)
	}
	return &FrameAssembler{
		bus:          bus,
		gate:         gate,
		frameLength:  frameLength,
		maxChunkSize: maxChunkSize,
	}, nil
}

// FrameLength returns the exact size in bytes of every frame produced.
func (a *FrameAssembler) FrameLength() int { return a.frameLength }

// NextFrame blocks until a complete frame has been acquired and returns it.
// The returned buffer is exactly FrameLength bytes, lane-corrected, and
// owned by the caller. On any failure no partial frame is returned and the
// current acquisition cycle is abandoned; there is no retry at this layer.
func (a *FrameAssembler) NextFrame() ([]byte, error) {
	frame := make([]byte, 0, a.frameLength)
	remaining := a.frameLength

	for remaining > 0 {
		if err := a.gate.Wait(); err != nil {
			return nil, err
		}

		chunkSize := remaining
		if chunkSize > a.maxChunkSize {
			chunkSize = a.maxChunkSize
		}

		chunk, err := a.bus.Read(chunkSize)
		if err != nil {
			return nil, fmt.Errorf("framer: bus read of %d bytes: %w", chunkSize, err)
		}
		if len(chunk) == 0 {
			return nil, fmt.Errorf("%w: no data after ready signal, expected %d bytes", ErrShortRead, chunkSize)
		}
		if len(chunk) != chunkSize {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrShortRead, chunkSize, len(chunk))
		}

		SwapLanes(chunk)
		frame = append(frame, chunk...)
		remaining -= chunkSize
	}

	return frame, nil
}

// Close releases the underlying bus.
func (a *FrameAssembler) Close() error {
	return a.bus.Close()
}

// SwapLanes reverses each 4-byte group in place, turning wire order
// [D,C,B,A] into memory order [A,B,C,D]. The swap is its own inverse, so it
// also converts a lane-corrected frame back to wire order, which is how
// recorders store frames for later replay. len(buf) must be a multiple of 4.
func SwapLanes(buf []byte) {
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+3] = buf[i+3], buf[i]
		buf[i+1], buf[i+2] = buf[i+2], buf[i+1]
	}
}
