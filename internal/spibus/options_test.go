package spibus

import (
	"strings"
	"testing"
)

func TestOptionsNormalizeDefaults(t *testing.T) {
	opts, err := Options{}.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.FrequencyHz != DefaultFrequencyHz {
		t.Errorf("FrequencyHz = %d, want %d", opts.FrequencyHz, DefaultFrequencyHz)
	}
	if opts.MaxChunkSize != DefaultMaxChunkSize {
		t.Errorf("MaxChunkSize = %d, want %d", opts.MaxChunkSize, DefaultMaxChunkSize)
	}
	if opts.Mode != 0 {
		t.Errorf("Mode = %d, want 0", opts.Mode)
	}
	if opts.ChipSelect != 0 {
		t.Errorf("ChipSelect = %d, want 0", opts.ChipSelect)
	}
}

func TestOptionsNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"negative chip select", Options{ChipSelect: -1}, "chip select"},
		{"negative frequency", Options{FrequencyHz: -1}, "frequency"},
		{"mode too high", Options{Mode: 4}, "mode"},
		{"chunk not multiple of 4", Options{MaxChunkSize: 65026}, "multiple of 4"},
		{"chunk too small", Options{MaxChunkSize: 2}, "at least 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Normalize()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestOptionsNormalizeKeepsExplicitValues(t *testing.T) {
	in := Options{FrequencyHz: 15_000_000, Mode: 3, MaxChunkSize: 4096}
	opts, err := in.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts != in {
		t.Errorf("Normalize changed explicit values: got %+v, want %+v", opts, in)
	}
}

func TestSerialOptionsNormalize(t *testing.T) {
	opts, err := SerialOptions{}.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.BaudRate != 921600 || opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("unexpected defaults: %+v", opts)
	}

	if _, err := (SerialOptions{DataBits: 3}).Normalize(); err == nil {
		t.Error("expected error for 3 data bits")
	}
	if _, err := (SerialOptions{StopBits: 3}).Normalize(); err == nil {
		t.Error("expected error for 3 stop bits")
	}
	if _, err := (SerialOptions{Parity: "Q"}).Normalize(); err == nil {
		t.Error("expected error for parity Q")
	}

	opts, err = SerialOptions{Parity: "even"}.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Parity != "E" {
		t.Errorf("Parity = %q, want E", opts.Parity)
	}
}
