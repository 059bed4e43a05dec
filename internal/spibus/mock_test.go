package spibus

import (
	"bytes"
	"errors"
	"testing"
)

func TestTestableBusRead(t *testing.T) {
	bus := NewTestableBus([]byte{1, 2, 3, 4, 5, 6, 7, 8})

	chunk, err := bus.Read(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(chunk, []byte{1, 2, 3, 4}) {
		t.Errorf("chunk = %v, want [1 2 3 4]", chunk)
	}
	if bus.ReadCalls != 1 {
		t.Errorf("ReadCalls = %d, want 1", bus.ReadCalls)
	}
	if len(bus.ReadSizes) != 1 || bus.ReadSizes[0] != 4 {
		t.Errorf("ReadSizes = %v, want [4]", bus.ReadSizes)
	}
}

func TestTestableBusInjectedError(t *testing.T) {
	bus := NewTestableBus([]byte{1, 2, 3, 4})
	wantErr := errors.New("boom")
	bus.ReadError = wantErr

	if _, err := bus.Read(4); !errors.Is(err, wantErr) {
		t.Errorf("Read error = %v, want %v", err, wantErr)
	}

	// The error is consumed; the next read succeeds.
	if _, err := bus.Read(4); err != nil {
		t.Errorf("second Read error = %v, want nil", err)
	}
}

func TestTestableBusShortRead(t *testing.T) {
	bus := NewTestableBus(make([]byte, 16))
	bus.ShortReadBy = 4

	chunk, err := bus.Read(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunk) != 4 {
		t.Errorf("chunk length = %d, want 4", len(chunk))
	}
}

func TestTestableBusClosed(t *testing.T) {
	bus := NewTestableBus(nil)
	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := bus.Read(4); !errors.Is(err, ErrClosed) {
		t.Errorf("Read after Close = %v, want ErrClosed", err)
	}
	if _, err := bus.ReadyLine().Read(); !errors.Is(err, ErrClosed) {
		t.Errorf("pin read after Close = %v, want ErrClosed", err)
	}

	// Rejected reads must not inflate the counters tests assert on.
	if bus.ReadCalls != 0 {
		t.Errorf("ReadCalls after Close = %d, want 0", bus.ReadCalls)
	}
	if len(bus.ReadSizes) != 0 {
		t.Errorf("ReadSizes after Close = %v, want empty", bus.ReadSizes)
	}
	if bus.PinReads != 0 {
		t.Errorf("PinReads after Close = %d, want 0", bus.PinReads)
	}
}

func TestTestablePinScript(t *testing.T) {
	bus := NewTestableBus(nil)
	bus.PinLevels = []bool{true, true, false}

	pin := bus.ReadyLine()
	want := []bool{true, true, false, false, false}
	for i, w := range want {
		level, err := pin.Read()
		if err != nil {
			t.Fatalf("pin read %d: %v", i, err)
		}
		if level != w {
			t.Errorf("pin read %d = %v, want %v", i, level, w)
		}
	}
	if bus.PinReads != len(want) {
		t.Errorf("PinReads = %d, want %d", bus.PinReads, len(want))
	}
}

func TestTestablePinDefaultReady(t *testing.T) {
	bus := NewTestableBus(nil)
	level, err := bus.ReadyLine().Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level {
		t.Error("default pin level should be low (ready)")
	}
}

func TestTestableBusReset(t *testing.T) {
	bus := NewTestableBus([]byte{1, 2})
	bus.PinLevels = []bool{true}
	bus.Read(2)
	bus.ReadyLine().Read()
	bus.Close()

	bus.Reset()
	if bus.ReadCalls != 0 || bus.PinReads != 0 || bus.Closed || bus.ReadBuffer.Len() != 0 {
		t.Errorf("Reset left state behind: %+v", bus)
	}
}
