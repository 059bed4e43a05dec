// Command cubedump streams radar cubes from an mmWave sensor and prints a
// short summary per frame. It can also record the raw frames into a sqlite
// capture store for later replay.
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/mmwave/internal/config"
	"github.com/banshee-data/mmwave/internal/cube"
	"github.com/banshee-data/mmwave/internal/cubedb"
	"github.com/banshee-data/mmwave/internal/cubeproc"
	"github.com/banshee-data/mmwave/internal/framer"
	"github.com/banshee-data/mmwave/internal/reader"
	"github.com/banshee-data/mmwave/internal/spibus"
)

var (
	configPath = flag.String("config", "", "Path to a capture config JSON file")
	transport  = flag.String("transport", config.TransportFTDI, "Transport: ftdi, serial, or replay")
	device     = flag.String("device", "", "Serial port or replay file path (transport dependent)")
	txAntennas = flag.Int("tx", 2, "Number of TX antennas")
	rxAntennas = flag.Int("rx", 3, "Number of RX antennas")
	rangeBins  = flag.Int("range-bins", 64, "Number of range bins")
	chirps     = flag.Int("chirps", 128, "Number of chirps per frame")
	frames     = flag.Int("frames", 0, "Number of frames to read (0 = until interrupted)")
	dbPath     = flag.String("db", "", "Record raw frames into this sqlite capture store")
)

func main() {
	flag.Parse()

	cfg := &config.CaptureConfig{
		Dims: cube.Dims{
			NumTxAntennas:     *txAntennas,
			NumRxAntennas:     *rxAntennas,
			NumRangeBins:      *rangeBins,
			NumChirpsPerFrame: *chirps,
		},
		Transport:    *transport,
		Device:       *device,
		DatabasePath: *dbPath,
	}
	if *configPath != "" {
		loaded, err := config.LoadCaptureConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid capture configuration: %v", err)
	}

	dims := cfg.Dims
	log.Printf("frame length %d bytes, cube shape %v", dims.FrameLength(), dims.Shape())

	bus, err := openTransport(cfg)
	if err != nil {
		log.Fatalf("failed to open %s transport: %v", cfg.Transport, err)
	}

	if cfg.DatabasePath != "" {
		if err := record(cfg, dims, bus); err != nil {
			log.Fatalf("capture failed: %v", err)
		}
		return
	}

	r, err := reader.New(dims, bus, cfg.MaxChunkSize())
	if err != nil {
		bus.Close()
		log.Fatalf("failed to create cube reader: %v", err)
	}
	interruptOnSignal(func() { r.Close() })

	for i := 0; *frames == 0 || i < *frames; i++ {
		c, err := r.Next()
		if err != nil {
			if errors.Is(err, reader.ErrClosed) || errors.Is(err, spibus.ErrClosed) {
				log.Printf("stream closed after %d frames", i)
				return
			}
			log.Fatalf("stream terminated after %d frames: %v", i, err)
		}
		logCube(i, c)
	}
	r.Close()
}

// record runs the acquisition loop against the lower layers directly so the
// raw lane-corrected frames can be stored alongside the parsed summaries.
func record(cfg *config.CaptureConfig, dims cube.Dims, bus spibus.Transport) error {
	store, err := cubedb.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	transportName := cfg.Transport
	if transportName == "" {
		transportName = config.TransportFTDI
	}
	sessionID, err := store.BeginSession(dims, transportName)
	if err != nil {
		return err
	}
	log.Printf("recording session %s", sessionID)

	gate := framer.NewSyncGate(bus.ReadyLine())
	asm, err := framer.NewFrameAssembler(bus, gate, dims.FrameLength(), cfg.MaxChunkSize())
	if err != nil {
		return err
	}
	defer asm.Close()
	interruptOnSignal(func() { asm.Close() })

	parser, err := cube.NewParser(dims)
	if err != nil {
		return err
	}

	for i := 0; *frames == 0 || i < *frames; i++ {
		frame, err := asm.NextFrame()
		if err != nil {
			if errors.Is(err, spibus.ErrClosed) {
				break
			}
			return err
		}
		capturedAt := time.Now()

		// Store the frame in bus wire order so the capture replays through
		// the replay transport byte for byte.
		wire := append([]byte(nil), frame...)
		framer.SwapLanes(wire)
		if err := store.RecordFrame(sessionID, i, capturedAt, wire); err != nil {
			return err
		}

		c, err := parser.ParseAt(frame, capturedAt)
		if err != nil {
			return err
		}
		logCube(i, c)
	}

	return store.EndSession(sessionID)
}

func openTransport(cfg *config.CaptureConfig) (spibus.Transport, error) {
	switch cfg.Transport {
	case config.TransportSerial:
		return spibus.OpenSerial(cfg.Device, cfg.Serial)
	case config.TransportReplay:
		return spibus.OpenReplay(cfg.Device)
	default:
		opts := cfg.SPI
		if opts.Device == "" {
			opts.Device = cfg.Device
		}
		return spibus.OpenFTDI(opts)
	}
}

func logCube(i int, c *cube.RadarCube) {
	profile, err := cubeproc.RangePowerProfile(c)
	if err != nil {
		log.Printf("frame %d: shape %v", i, c.Shape())
		return
	}
	peak := cubeproc.PeakRangeBin(profile)
	log.Printf("frame %d: shape %v, peak range bin %d (%.1f dB)", i, c.Shape(), peak, profile[peak])
}

// interruptOnSignal invokes stop on SIGINT/SIGTERM, which closes the
// transport and unblocks the acquisition loop.
func interruptOnSignal(stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		log.Printf("interrupt received, closing transport")
		stop()
	}()
}
