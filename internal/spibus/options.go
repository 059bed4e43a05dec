package spibus

import "fmt"

// Default bus parameters for the IWRL6432-style sensors this module targets.
// MaxChunkSize is the largest single MPSSE transfer the FT232H supports
// (64 KiB) minus command overhead, and must stay a multiple of 4 because the
// sensor ships data in 4-byte transfer lanes.
const (
	DefaultFrequencyHz  = 30_000_000
	DefaultMaxChunkSize = 65024
)

// Options describes the SPI connection parameters used when opening a real
// bus. The zero value normalizes to the defaults the sensor firmware expects.
type Options struct {
	// Device selects the FTDI adapter (serial number or description).
	// Empty means the first FT232H found.
	Device string `json:"device,omitempty"`

	// ChipSelect is the SPI chip select index on the adapter.
	ChipSelect int `json:"chip_select"`

	// FrequencyHz is the SPI clock frequency.
	FrequencyHz int64 `json:"frequency_hz"`

	// Mode is the SPI mode (0-3).
	Mode int `json:"mode"`

	// MaxChunkSize caps the size of a single bus transaction in bytes.
	// Must be a multiple of 4.
	MaxChunkSize int `json:"max_chunk_size"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.ChipSelect < 0 {
		return opts, fmt.Errorf("invalid chip select %d: must not be negative", opts.ChipSelect)
	}

	if opts.FrequencyHz == 0 {
		opts.FrequencyHz = DefaultFrequencyHz
	}
	if opts.FrequencyHz < 0 {
		return opts, fmt.Errorf("invalid SPI frequency %d Hz", opts.FrequencyHz)
	}

	if opts.Mode < 0 || opts.Mode > 3 {
		return opts, fmt.Errorf("invalid SPI mode %d: must be between 0 and 3", opts.Mode)
	}

	if opts.MaxChunkSize == 0 {
		opts.MaxChunkSize = DefaultMaxChunkSize
	}
	if opts.MaxChunkSize < 4 {
		return opts, fmt.Errorf("invalid max chunk size %d: must be at least 4 bytes", opts.MaxChunkSize)
	}
	if opts.MaxChunkSize%4 != 0 {
		return opts, fmt.Errorf("invalid max chunk size %d: must be a multiple of 4", opts.MaxChunkSize)
	}

	return opts, nil
}
