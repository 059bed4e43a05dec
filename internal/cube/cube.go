// Package cube defines the typed radar-cube data model and the parser that
// turns an acquired frame buffer into a cube.
//
// A radar cube is a 3-D array of complex samples. Two axis layouts exist:
// the canonical interleaved order (rangebin, virt_antenna, doppler_chirp)
// produced by the on-chip range processing, and the non-interleaved order
// (chirp, rx_antenna, rangebin) used before antenna virtualization. The
// acquisition pipeline only ever produces interleaved cubes; the
// non-interleaved layout is supported as a container variant for consumers
// that build cubes from other sources.
package cube

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDims is the configuration error kind: radar dimensions that
// violate the construction constraints. It is always detected before any
// transport is opened.
var ErrInvalidDims = errors.New("cube: invalid radar dimensions")

// BytesPerSample is the wire size of one complex sample: two little-endian
// int16 components packed into one 4-byte transfer lane.
const BytesPerSample = 4

// Layout identifies the axis ordering of a cube.
type Layout int

const (
	// Interleaved is the canonical logical order (rangebin, virt_antenna,
	// doppler_chirp).
	Interleaved Layout = iota
	// NonInterleaved is the (chirp, rx_antenna, rangebin) order.
	NonInterleaved
)

// AxisNames returns the axis names of this layout, outermost first.
func (l Layout) AxisNames() [3]string {
	if l == Interleaved {
		return [3]string{"rangebin", "virt_antenna", "doppler_chirp"}
	}
	return [3]string{"chirp", "rx_antenna", "rangebin"}
}

func (l Layout) String() string {
	if l == Interleaved {
		return "interleaved"
	}
	return "non-interleaved"
}

// Dims describes the radar configuration a reader is constructed with. All
// cube and frame geometry derives from these four values.
type Dims struct {
	NumTxAntennas     int `json:"num_tx_antennas"`
	NumRxAntennas     int `json:"num_rx_antennas"`
	NumRangeBins      int `json:"num_range_bins"`
	NumChirpsPerFrame int `json:"num_chirps_per_frame"`
}

// Validate checks the construction constraints. NumRangeBins must be a
// multiple of 4 so every range line fills whole transfer lanes, and
// NumChirpsPerFrame must divide evenly across the TX antennas.
func (d Dims) Validate() error {
	if d.NumTxAntennas <= 0 || d.NumRxAntennas <= 0 || d.NumRangeBins <= 0 || d.NumChirpsPerFrame <= 0 {
		return fmt.Errorf("%w: antenna counts, range bins, and chirps per frame must be positive", ErrInvalidDims)
	}
	if d.NumChirpsPerFrame%d.NumTxAntennas != 0 {
		return fmt.Errorf("%w: %d chirps per frame not divisible by %d TX antennas",
			ErrInvalidDims, d.NumChirpsPerFrame, d.NumTxAntennas)
	}
	if d.NumRangeBins%4 != 0 {
		return fmt.Errorf("%w: %d range bins not divisible by 4", ErrInvalidDims, d.NumRangeBins)
	}
	return nil
}

// NumVirtualAntennas is the synthetic array size: TX count times RX count.
func (d Dims) NumVirtualAntennas() int { return d.NumTxAntennas * d.NumRxAntennas }

// NumDopplerChirps is the number of chirps per TX antenna.
func (d Dims) NumDopplerChirps() int { return d.NumChirpsPerFrame / d.NumTxAntennas }

// NumSamples is the number of complex samples in one frame.
func (d Dims) NumSamples() int {
	return d.NumVirtualAntennas() * d.NumRangeBins * d.NumDopplerChirps()
}

// FrameLength is the exact frame size in bytes. It is a multiple of 4 by
// construction, so the byte-to-sample accounting always closes.
func (d Dims) FrameLength() int { return d.NumSamples() * BytesPerSample }

// Shape returns the interleaved cube shape (rangebin, virt_antenna,
// doppler_chirp) for these dimensions.
func (d Dims) Shape() [3]int {
	return [3]int{d.NumRangeBins, d.NumVirtualAntennas(), d.NumDopplerChirps()}
}

// RadarCube is an immutable 3-D complex-valued cube with named axes and
// capture metadata. Data is stored flat in row-major order of the layout's
// axes.
type RadarCube struct {
	data      []complex64
	shape     [3]int
	layout    Layout
	timestamp time.Time
}

// New wraps flat row-major data as a cube. The data length must match the
// shape exactly.
func New(data []complex64, shape [3]int, layout Layout, timestamp time.Time) (*RadarCube, error) {
	for _, n := range shape {
		if n <= 0 {
			return nil, fmt.Errorf("cube: invalid shape %v: all axes must be positive", shape)
		}
	}
	if want := shape[0] * shape[1] * shape[2]; len(data) != want {
		return nil, fmt.Errorf("cube: data length %d does not match shape %v (%d samples)", len(data), shape, want)
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return &RadarCube{data: data, shape: shape, layout: layout, timestamp: timestamp}, nil
}

// Shape returns the axis sizes, outermost first.
func (c *RadarCube) Shape() [3]int { return c.shape }

// Layout returns the axis ordering of this cube.
func (c *RadarCube) Layout() Layout { return c.layout }

// Interleaved reports whether the cube is in canonical interleaved order.
func (c *RadarCube) Interleaved() bool { return c.layout == Interleaved }

// Timestamp returns the capture time of the frame this cube was parsed from.
func (c *RadarCube) Timestamp() time.Time { return c.timestamp }

// NumSamples returns the total number of complex samples.
func (c *RadarCube) NumSamples() int { return len(c.data) }

// Values exposes the flat row-major sample data. The slice is shared with
// the cube and must not be modified.
func (c *RadarCube) Values() []complex64 { return c.data }

// Index computes the flat offset of (i, j, k) in the layout's axis order.
func (c *RadarCube) Index(i, j, k int) int {
	return (i*c.shape[1]+j)*c.shape[2] + k
}

// At returns the sample at (i, j, k) in the layout's axis order. For an
// interleaved cube that is (rangeBin, virtualAntenna, dopplerChirp).
func (c *RadarCube) At(i, j, k int) complex64 {
	return c.data[c.Index(i, j, k)]
}

// AxisIndex resolves an axis name to its position for this cube's layout.
func (c *RadarCube) AxisIndex(name string) (int, error) {
	for i, n := range c.layout.AxisNames() {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("cube: no axis %q in %s layout", name, c.layout)
}

// AxisSize returns the length of the named axis.
func (c *RadarCube) AxisSize(name string) (int, error) {
	i, err := c.AxisIndex(name)
	if err != nil {
		return 0, err
	}
	return c.shape[i], nil
}

// SliceAxis fixes the named axis at index and returns the remaining plane as
// a freshly allocated row-major 2-D slice plus its shape. The two remaining
// axes keep their relative order.
func (c *RadarCube) SliceAxis(name string, index int) ([]complex64, [2]int, error) {
	axis, err := c.AxisIndex(name)
	if err != nil {
		return nil, [2]int{}, err
	}
	if index < 0 || index >= c.shape[axis] {
		return nil, [2]int{}, fmt.Errorf("cube: index %d out of range for axis %q (size %d)", index, name, c.shape[axis])
	}

	var shape [2]int
	var at func(u, v int) complex64
	switch axis {
	case 0:
		shape = [2]int{c.shape[1], c.shape[2]}
		at = func(u, v int) complex64 { return c.At(index, u, v) }
	case 1:
		shape = [2]int{c.shape[0], c.shape[2]}
		at = func(u, v int) complex64 { return c.At(u, index, v) }
	default:
		shape = [2]int{c.shape[0], c.shape[1]}
		at = func(u, v int) complex64 { return c.At(u, v, index) }
	}

	plane := make([]complex64, 0, shape[0]*shape[1])
	for u := 0; u < shape[0]; u++ {
		for v := 0; v < shape[1]; v++ {
			plane = append(plane, at(u, v))
		}
	}
	return plane, shape, nil
}

// RangeProfile returns the samples across all range bins for one virtual
// antenna and one doppler chirp of an interleaved cube.
func (c *RadarCube) RangeProfile(antenna, chirp int) ([]complex64, error) {
	if c.layout != Interleaved {
		return nil, fmt.Errorf("cube: range profile requires interleaved layout, cube is %s", c.layout)
	}
	if antenna < 0 || antenna >= c.shape[1] {
		return nil, fmt.Errorf("cube: antenna %d out of range (size %d)", antenna, c.shape[1])
	}
	if chirp < 0 || chirp >= c.shape[2] {
		return nil, fmt.Errorf("cube: chirp %d out of range (size %d)", chirp, c.shape[2])
	}

	profile := make([]complex64, c.shape[0])
	for r := range profile {
		profile[r] = c.At(r, antenna, chirp)
	}
	return profile, nil
}
