// Package spibus provides the byte transports used to acquire radar frames
// from an mmWave sensor. A transport is a bus that performs bounded-size
// synchronous reads plus a single digital input line the sensor uses to
// signal that a chunk of data has been staged.
//
// The protocol layer (internal/framer) depends only on the narrow Bus and
// ReadyPin contracts; the concrete transports here cover the real FTDI SPI
// cable, a CTS-gated serial port, a file-backed replay source, and a
// scriptable test double.
package spibus

import "errors"

// ErrClosed is returned by bus and pin reads once the transport has been
// closed. Closing the transport from another goroutine is the only supported
// way to interrupt an in-flight acquisition, so reads must fail with this
// error promptly rather than block forever.
var ErrClosed = errors.New("spibus: transport closed")

// Bus is the minimal bus contract: one bounded synchronous read per call.
// A successful Read returns exactly n bytes; the transport either completes
// the transaction in full or reports an error.
type Bus interface {
	// Read performs a single bus transaction of n bytes.
	Read(n int) ([]byte, error)
	// Close releases the underlying device. Safe to call more than once.
	Close() error
}

// ReadyPin reports the electrical level of the data-ready handshake line.
// True means the line is high. Interpretation of the level (the sensor
// signals readiness active-low) belongs to the caller, not the transport.
type ReadyPin interface {
	Read() (bool, error)
}

// Transport bundles a bus with its data-ready line. A transport instance is
// exclusively owned by one frame assembler at a time; implementations do not
// synchronize concurrent readers.
type Transport interface {
	Bus
	ReadyLine() ReadyPin
}
