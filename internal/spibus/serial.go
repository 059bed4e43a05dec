package spibus

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"
)

// SerialOptions describes the connection parameters for the serial transport
// variant. Some eval boards expose the same chunked frame protocol over a
// high-speed UART bridge, with the data-ready handshake wired to the CTS
// modem line instead of a GPIO.
type SerialOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o SerialOptions) Normalize() (SerialOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 921600
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	if parity == "" {
		parity = "N"
	}
	switch parity {
	case "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	return opts, nil
}

// serialMode converts the options into the serial.Mode structure required by
// go.bug.st/serial when opening a port.
func (o SerialOptions) serialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.StopBits(opts.StopBits),
	}
	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	return mode, nil
}

// SerialBus is a transport over a UART bridge. Reads are filled to the exact
// requested size (the bridge delivers each staged chunk as a contiguous byte
// run), and the ready line is the CTS modem-status bit.
type SerialBus struct {
	mu     sync.Mutex
	port   serial.Port
	closed bool
}

// OpenSerial opens the serial port at path with the given options.
func OpenSerial(path string, opts SerialOptions) (*SerialBus, error) {
	mode, err := opts.serialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("spibus: open serial port %s: %w", path, err)
	}

	return &SerialBus{port: port}, nil
}

// Read fills exactly n bytes from the port.
func (b *SerialBus) Read(n int) ([]byte, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	port := b.port
	b.mu.Unlock()

	if n <= 0 {
		return nil, fmt.Errorf("spibus: invalid read size %d", n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(port, buf); err != nil {
		return nil, fmt.Errorf("spibus: serial read of %d bytes: %w", n, err)
	}
	return buf, nil
}

// ReadyLine returns the CTS line view of this transport.
func (b *SerialBus) ReadyLine() ReadyPin {
	return (*serialPin)(b)
}

// Close closes the serial port. go.bug.st/serial unblocks an in-flight Read
// when the port is closed from another goroutine, which is what allows a
// caller to interrupt acquisition.
func (b *SerialBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.port.Close()
}

// serialPin adapts the CTS modem-status bit to the ReadyPin contract.
type serialPin SerialBus

func (p *serialPin) Read() (bool, error) {
	b := (*SerialBus)(p)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false, ErrClosed
	}
	port := b.port
	b.mu.Unlock()

	bits, err := port.GetModemStatusBits()
	if err != nil {
		return false, fmt.Errorf("spibus: read modem status: %w", err)
	}
	return bits.CTS, nil
}
