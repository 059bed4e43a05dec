package spibus

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ReplayBus replays raw frame bytes from a capture file, for development and
// analysis without hardware attached. There is no handshake in a file, so the
// ready line always reports ready; running out of data surfaces as a short
// read, which terminates the stream the same way a desynchronized sensor
// would.
type ReplayBus struct {
	mu     sync.Mutex
	src    io.ReadCloser
	closed bool
}

// OpenReplay opens a raw capture file for replay. The file is expected to be
// a plain concatenation of frames in bus wire order, lanes still reversed,
// exactly as they arrived on the bus; cubedb records frames in that order.
// The frame assembler applies the lane correction on replay just as it does
// on live acquisition.
func OpenReplay(path string) (*ReplayBus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spibus: open replay file: %w", err)
	}
	return &ReplayBus{src: f}, nil
}

// NewReplayBus wraps an arbitrary reader as a replay transport.
func NewReplayBus(r io.ReadCloser) *ReplayBus {
	return &ReplayBus{src: r}
}

// Read returns the next n bytes of the capture.
func (b *ReplayBus) Read(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, fmt.Errorf("spibus: invalid read size %d", n)
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(b.src, buf)
	if err != nil {
		// A truncated tail still hands back what was read; the assembler
		// rejects it as a short chunk.
		return buf[:read], nil
	}
	return buf, nil
}

// ReadyLine returns a pin that is always ready (line held low).
func (b *ReplayBus) ReadyLine() ReadyPin {
	return (*replayPin)(b)
}

// Close closes the underlying capture source.
func (b *ReplayBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.src.Close()
}

type replayPin ReplayBus

func (p *replayPin) Read() (bool, error) {
	b := (*ReplayBus)(p)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, ErrClosed
	}
	// Data ready is active-low; a capture file is always ready.
	return false, nil
}
