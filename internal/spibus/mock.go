package spibus

import (
	"bytes"
	"sync"
)

// TestableBus implements Transport with configurable behaviour for testing.
// It provides fine-grained control over chunk data, injected errors, short
// reads, and the ready-line level sequence.
type TestableBus struct {
	mu sync.Mutex

	// ReadBuffer holds the bytes handed out by Read calls.
	ReadBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set.
	ReadError error

	// ShortReadBy trims that many bytes off the next Read result.
	ShortReadBy int

	// ReadCalls records the number of Read calls.
	ReadCalls int

	// ReadSizes records the requested size of every Read call.
	ReadSizes []int

	// PinLevels scripts successive ready-line reads; the last level repeats
	// once the script is exhausted. Empty means the line is held low (ready).
	PinLevels []bool

	// PinError is returned by the next pin read if set.
	PinError error

	// PinReads records the number of ready-line reads.
	PinReads int

	// CloseError is returned by Close if set.
	CloseError error

	// Closed indicates whether Close was called.
	Closed bool

	pinCursor int
}

// NewTestableBus creates a TestableBus preloaded with the given bus data.
func NewTestableBus(data []byte) *TestableBus {
	return &TestableBus{ReadBuffer: bytes.NewBuffer(data)}
}

// Read hands out the next n bytes of the buffer, honouring injected errors
// and short reads.
func (t *TestableBus) Read(n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return nil, ErrClosed
	}

	t.ReadCalls++
	t.ReadSizes = append(t.ReadSizes, n)
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return nil, err
	}

	if t.ShortReadBy > 0 {
		if n > t.ShortReadBy {
			n -= t.ShortReadBy
		} else {
			n = 0
		}
		t.ShortReadBy = 0
	}

	buf := make([]byte, n)
	read, _ := t.ReadBuffer.Read(buf)
	return buf[:read], nil
}

// ReadyLine returns the scripted ready-pin view of this transport.
func (t *TestableBus) ReadyLine() ReadyPin {
	return (*testablePin)(t)
}

// Close marks the bus as closed.
func (t *TestableBus) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return t.CloseError
}

// AddReadData appends data to be returned by subsequent Read calls.
func (t *TestableBus) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadBuffer.Write(data)
}

// Reset clears all buffers, counters, and scripted behaviour.
func (t *TestableBus) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Reset()
	t.ReadError = nil
	t.ShortReadBy = 0
	t.ReadCalls = 0
	t.ReadSizes = nil
	t.PinLevels = nil
	t.PinError = nil
	t.PinReads = 0
	t.CloseError = nil
	t.Closed = false
	t.pinCursor = 0
}

type testablePin TestableBus

func (p *testablePin) Read() (bool, error) {
	t := (*TestableBus)(p)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return false, ErrClosed
	}

	t.PinReads++
	if t.PinError != nil {
		err := t.PinError
		t.PinError = nil
		return false, err
	}

	if len(t.PinLevels) == 0 {
		return false, nil
	}
	level := t.PinLevels[t.pinCursor]
	if t.pinCursor < len(t.PinLevels)-1 {
		t.pinCursor++
	}
	return level, nil
}
