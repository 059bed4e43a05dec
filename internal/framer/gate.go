// Package framer implements the frame-synchronized acquisition protocol:
// waiting on the sensor's data-ready handshake, issuing bounded bus reads,
// correcting the transport's 4-byte lane ordering, and assembling
// exact-length frames.
package framer

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/mmwave/internal/spibus"
)

// ErrSyncSignal is returned when the data-ready line cannot be read.
var ErrSyncSignal = errors.New("framer: sync signal read failed")

// SyncGate watches the sensor's data-ready line. The sensor holds the line
// high while staging data and drops it low when a chunk can be read, so the
// gate reports ready when the line is low.
type SyncGate struct {
	pin spibus.ReadyPin

	// PollInterval is the sleep between ready polls. Zero means a tight
	// busy-wait, which matches the hardware's prompt-assert behaviour;
	// set it when sharing a core with other work.
	PollInterval time.Duration
}

// NewSyncGate creates a gate over the given ready line.
func NewSyncGate(pin spibus.ReadyPin) *SyncGate {
	return &SyncGate{pin: pin}
}

// Ready reports whether the sensor has data staged.
func (g *SyncGate) Ready() (bool, error) {
	level, err := g.pin.Read()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSyncSignal, err)
	}
	return !level, nil
}

// Wait blocks until the sensor signals readiness or the line read fails.
// There is no timeout; the only way to interrupt the wait is to close the
// transport, which makes the pin read return an error.
func (g *SyncGate) Wait() error {
	for {
		ready, err := g.Ready()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if g.PollInterval > 0 {
			time.Sleep(g.PollInterval)
		}
	}
}
