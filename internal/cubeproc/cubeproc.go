// Package cubeproc derives signal products from radar cubes: range power
// profiles and doppler spectra. It operates on interleaved cubes as
// produced by the acquisition pipeline.
package cubeproc

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/mmwave/internal/cube"
)

// noiseFloorDB bounds the log conversion for all-zero bins.
const noiseFloorDB = -120.0

// RangePowerProfile returns the mean power per range bin in dB, averaged
// over all virtual antennas and doppler chirps.
func RangePowerProfile(c *cube.RadarCube) ([]float64, error) {
	if !c.Interleaved() {
		return nil, fmt.Errorf("cubeproc: range profile requires an interleaved cube, got %s", c.Layout())
	}

	shape := c.Shape()
	numRange, numAnt, numChirp := shape[0], shape[1], shape[2]
	perBin := float64(numAnt * numChirp)

	profile := make([]float64, numRange)
	for r := 0; r < numRange; r++ {
		var sum float64
		for a := 0; a < numAnt; a++ {
			for ch := 0; ch < numChirp; ch++ {
				v := c.At(r, a, ch)
				re := float64(real(v))
				im := float64(imag(v))
				sum += re*re + im*im
			}
		}
		mean := sum / perBin
		if mean <= 0 {
			profile[r] = noiseFloorDB
			continue
		}
		profile[r] = math.Max(10*math.Log10(mean), noiseFloorDB)
	}
	return profile, nil
}

// PeakRangeBin returns the index of the strongest bin in a power profile.
func PeakRangeBin(profile []float64) int {
	if len(profile) == 0 {
		return -1
	}
	return floats.MaxIdx(profile)
}

// DopplerSpectrum computes the FFT across the chirp axis for one range bin
// and virtual antenna, centered so that zero velocity sits at the middle
// bin.
func DopplerSpectrum(c *cube.RadarCube, rangeBin, antenna int) ([]complex128, error) {
	if !c.Interleaved() {
		return nil, fmt.Errorf("cubeproc: doppler spectrum requires an interleaved cube, got %s", c.Layout())
	}

	shape := c.Shape()
	if rangeBin < 0 || rangeBin >= shape[0] {
		return nil, fmt.Errorf("cubeproc: range bin %d out of range (size %d)", rangeBin, shape[0])
	}
	if antenna < 0 || antenna >= shape[1] {
		return nil, fmt.Errorf("cubeproc: antenna %d out of range (size %d)", antenna, shape[1])
	}

	n := shape[2]
	src := make([]complex128, n)
	for ch := 0; ch < n; ch++ {
		src[ch] = complex128(c.At(rangeBin, antenna, ch))
	}

	fft := fourier.NewCmplxFFT(n)
	coeff := fft.Coefficients(nil, src)

	// fftshift: move the zero-frequency bin to the center.
	shifted := make([]complex128, n)
	half := (n + 1) / 2
	copy(shifted, coeff[half:])
	copy(shifted[n-half:], coeff[:half])
	return shifted, nil
}

// DopplerPowerDB converts a doppler spectrum to per-bin power in dB.
func DopplerPowerDB(spectrum []complex128) []float64 {
	out := make([]float64, len(spectrum))
	for i, v := range spectrum {
		p := cmplx.Abs(v)
		p = p * p
		if p <= 0 {
			out[i] = noiseFloorDB
			continue
		}
		out[i] = math.Max(10*math.Log10(p), noiseFloorDB)
	}
	return out
}
