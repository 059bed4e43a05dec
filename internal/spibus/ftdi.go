package spibus

import (
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"
)

// ErrNoDevice is returned when no matching FT232H adapter is connected.
var ErrNoDevice = fmt.Errorf("spibus: no FT232H device found")

// FTDIBus is the production transport: an FT232H USB adapter (for example the
// C232HM-DDHSL-0 cable) driving the sensor's SPI slave interface. The sensor's
// SPI_BUSY output is wired to ADBUS4 (the cable's grey wire) and is used as
// the data-ready line.
type FTDIBus struct {
	mu     sync.Mutex
	port   spi.PortCloser
	conn   spi.Conn
	busy   gpio.PinIO
	closed bool
}

// OpenFTDI locates an FT232H adapter, configures its SPI engine with the
// given options, and sets ADBUS4 up as the busy input.
func OpenFTDI(opts Options) (*FTDIBus, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	if opts.ChipSelect != 0 {
		return nil, fmt.Errorf("spibus: chip select %d not available: only CS0 (D3) is wired on the FT232H", opts.ChipSelect)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spibus: periph host init: %w", err)
	}

	var dev *ftdi.FT232H
	for _, d := range ftdi.All() {
		h, ok := d.(*ftdi.FT232H)
		if !ok {
			continue
		}
		if opts.Device != "" && !strings.Contains(h.String(), opts.Device) {
			continue
		}
		dev = h
		break
	}
	if dev == nil {
		if opts.Device != "" {
			return nil, fmt.Errorf("%w matching %q", ErrNoDevice, opts.Device)
		}
		return nil, ErrNoDevice
	}

	port, err := dev.SPI()
	if err != nil {
		return nil, fmt.Errorf("spibus: acquire SPI port: %w", err)
	}

	conn, err := port.Connect(physic.Frequency(opts.FrequencyHz)*physic.Hertz, spi.Mode(opts.Mode), 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("spibus: configure SPI at %d Hz mode %d: %w", opts.FrequencyHz, opts.Mode, err)
	}

	busy := dev.D4
	if err := busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		port.Close()
		return nil, fmt.Errorf("spibus: configure busy pin %s as input: %w", busy, err)
	}

	return &FTDIBus{port: port, conn: conn, busy: busy}, nil
}

// Read clocks n bytes out of the sensor in a single SPI transaction.
func (b *FTDIBus) Read(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, fmt.Errorf("spibus: invalid read size %d", n)
	}

	// The sensor is read-only over this link; clock out zeros.
	tx := make([]byte, n)
	rx := make([]byte, n)
	if err := b.conn.Tx(tx, rx); err != nil {
		return nil, fmt.Errorf("spibus: SPI transfer of %d bytes: %w", n, err)
	}
	return rx, nil
}

// ReadyLine returns the SPI_BUSY pin view of this transport.
func (b *FTDIBus) ReadyLine() ReadyPin {
	return (*ftdiPin)(b)
}

// Close releases the SPI port and invalidates the busy pin. In-flight and
// subsequent reads fail with ErrClosed.
func (b *FTDIBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.port.Close()
}

// ftdiPin adapts the FT232H busy pin to the ReadyPin contract.
type ftdiPin FTDIBus

func (p *ftdiPin) Read() (bool, error) {
	b := (*FTDIBus)(p)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, ErrClosed
	}
	return bool(b.busy.Read()), nil
}
