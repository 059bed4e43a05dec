// Package reader ties the acquisition protocol and the cube parser together
// behind a blocking pull interface. A CubeReader produces radar cubes
// strictly in acquisition order, one in-flight frame at a time, until the
// first unrecoverable failure closes it for good.
package reader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/mmwave/internal/cube"
	"github.com/banshee-data/mmwave/internal/framer"
	"github.com/banshee-data/mmwave/internal/monitoring"
	"github.com/banshee-data/mmwave/internal/spibus"
)

// ErrClosed is returned by Next once the reader has been closed, whether by
// Close or by a terminal acquisition failure.
var ErrClosed = errors.New("reader: cube reader is closed")

// CubeReader acquires and parses radar cubes from a transport.
//
// The reader is a stateful handle: Open until the first failure or explicit
// Close, then Closed for good. Next blocks for a full acquisition cycle and
// is meant to run on a caller-owned goroutine; the reader spawns none of its
// own. A closed reader never produces another cube, and callers wanting
// resilience must construct a new one.
type CubeReader struct {
	asm    *framer.FrameAssembler
	parser *cube.Parser

	mu     sync.Mutex
	closed bool
	err    error
}

// New builds a reader over an already-open transport. The dimensions are
// validated before the transport is touched; a configuration error leaves
// the transport untouched and open.
func New(dims cube.Dims, transport spibus.Transport, maxChunkSize int) (*CubeReader, error) {
	parser, err := cube.NewParser(dims)
	if err != nil {
		return nil, err
	}

	gate := framer.NewSyncGate(transport.ReadyLine())
	asm, err := framer.NewFrameAssembler(transport, gate, dims.FrameLength(), maxChunkSize)
	if err != nil {
		return nil, err
	}

	monitoring.Logf("cube reader: frame length %d bytes, shape %v", dims.FrameLength(), dims.Shape())
	return &CubeReader{asm: asm, parser: parser}, nil
}

// OpenFTDI validates the dimensions, opens the FT232H transport, and builds
// a reader over it. Transport-open failures are reported before any frame
// is read.
func OpenFTDI(dims cube.Dims, opts spibus.Options) (*CubeReader, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	opts, err := opts.Normalize()
	if err != nil {
		return nil, fmt.Errorf("reader: transport options: %w", err)
	}

	bus, err := spibus.OpenFTDI(opts)
	if err != nil {
		return nil, fmt.Errorf("reader: open transport: %w", err)
	}

	r, err := New(dims, bus, opts.MaxChunkSize)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return r, nil
}

// Next blocks until the next complete cube is available. On any acquisition
// or parse failure the reader transitions to Closed, the transport is
// released, and the failure is returned; every later call returns ErrClosed
// immediately.
func (r *CubeReader) Next() (*cube.RadarCube, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.mu.Unlock()

	frame, err := r.asm.NextFrame()
	if err != nil {
		r.fail(err)
		return nil, err
	}

	c, err := r.parser.Parse(frame)
	if err != nil {
		r.fail(err)
		return nil, err
	}
	return c, nil
}

// Err returns the failure that terminated the stream, or nil if the reader
// is still open or was closed explicitly.
func (r *CubeReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close releases the transport and moves the reader to its terminal state.
// It is safe to call from another goroutine to interrupt a blocked Next,
// and safe to call more than once.
func (r *CubeReader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	return r.asm.Close()
}

// fail records the terminal error and releases the transport.
func (r *CubeReader) fail(err error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.err = err
	r.mu.Unlock()

	monitoring.Logf("cube reader: closing after error: %v", err)
	if cerr := r.asm.Close(); cerr != nil && !errors.Is(cerr, spibus.ErrClosed) {
		monitoring.Logf("cube reader: transport close: %v", cerr)
	}
}
