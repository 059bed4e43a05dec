// Package config loads capture configuration files. A capture config names
// the radar dimensions, the transport to use, and optionally a database to
// record into, so the same JSON file drives both the CLI and embedded use.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/mmwave/internal/cube"
	"github.com/banshee-data/mmwave/internal/spibus"
)

// Transport selection values for CaptureConfig.Transport.
const (
	TransportFTDI   = "ftdi"
	TransportSerial = "serial"
	TransportReplay = "replay"
)

// CaptureConfig is the root configuration for an acquisition session.
// Fields omitted from the JSON file keep their defaults, so partial configs
// are safe.
type CaptureConfig struct {
	// Radar dimensions; all four are required.
	Dims cube.Dims `json:"dims"`

	// Transport selects the bus implementation: "ftdi" (default), "serial",
	// or "replay".
	Transport string `json:"transport,omitempty"`

	// Device is the serial port path or replay file path for the non-FTDI
	// transports. The FTDI transport uses SPI.Device instead.
	Device string `json:"device,omitempty"`

	// SPI holds the bus parameters for the FTDI transport. The zero value
	// normalizes to the sensor defaults.
	SPI spibus.Options `json:"spi"`

	// Serial holds the parameters for the serial transport.
	Serial spibus.SerialOptions `json:"serial"`

	// DatabasePath enables frame recording into a sqlite capture store when
	// set.
	DatabasePath string `json:"database_path,omitempty"`
}

// Validate checks the configuration. Dimension violations surface as
// cube.ErrInvalidDims before any transport is opened.
func (c *CaptureConfig) Validate() error {
	if err := c.Dims.Validate(); err != nil {
		return err
	}

	switch c.Transport {
	case "", TransportFTDI:
		if _, err := c.SPI.Normalize(); err != nil {
			return fmt.Errorf("spi options: %w", err)
		}
	case TransportSerial:
		if c.Device == "" {
			return fmt.Errorf("serial transport requires a device path")
		}
		if _, err := c.Serial.Normalize(); err != nil {
			return fmt.Errorf("serial options: %w", err)
		}
	case TransportReplay:
		if c.Device == "" {
			return fmt.Errorf("replay transport requires a capture file path")
		}
	default:
		return fmt.Errorf("unknown transport %q: expected ftdi, serial, or replay", c.Transport)
	}

	return nil
}

// MaxChunkSize returns the normalized chunk cap for the configured
// transport. Validate must have succeeded first.
func (c *CaptureConfig) MaxChunkSize() int {
	opts, err := c.SPI.Normalize()
	if err != nil {
		return spibus.DefaultMaxChunkSize
	}
	return opts.MaxChunkSize
}

// LoadCaptureConfig loads a CaptureConfig from a JSON file. The file must
// have a .json extension and stay under the size cap.
func LoadCaptureConfig(path string) (*CaptureConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &CaptureConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
