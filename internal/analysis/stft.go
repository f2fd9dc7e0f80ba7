// Package analysis implements the Vocal and Mix analyzers: the two ways a
// reference track is reduced to a per-band, per-frame intensity matrix.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// STFT computes windowed short-time magnitude spectra, shared by the Vocal
// and Mix analyzers so both partition frames identically.
type STFT struct {
	fft     *fourier.FFT
	window  []float64
	fftSize int
	hop     int
}

// NewSTFT builds an STFT helper with a Hann window of length fftSize.
func NewSTFT(fftSize, hop int) *STFT {
	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &STFT{
		fft:     fourier.NewFFT(fftSize),
		window:  window,
		fftSize: fftSize,
		hop:     hop,
	}
}

// NumFrames returns the number of hop-spaced analysis frames that fit
// within nSamples samples (frames anchored at sample 0, hop, 2*hop, ...,
// truncated rather than zero-padded at the tail).
func (s *STFT) NumFrames(nSamples int) int {
	if nSamples < s.fftSize {
		return 0
	}
	return (nSamples-s.fftSize)/s.hop + 1
}

// Magnitudes returns a [frame][bin] matrix of magnitude spectra, bin count
// fftSize/2+1. Frames that run past the end of samples are zero-padded.
func (s *STFT) Magnitudes(samples []float64) [][]float64 {
	n := s.NumFrames(len(samples))
	if n <= 0 && len(samples) > 0 {
		n = 1 // a signal shorter than one frame still gets one zero-padded frame
	}
	nyquistBins := s.fftSize/2 + 1
	out := make([][]float64, n)
	windowed := make([]float64, s.fftSize)
	for f := 0; f < n; f++ {
		start := f * s.hop
		for i := 0; i < s.fftSize; i++ {
			idx := start + i
			var v float64
			if idx < len(samples) {
				v = samples[idx]
			}
			windowed[i] = v * s.window[i]
		}
		coeffs := s.fft.Coefficients(nil, windowed)
		mag := make([]float64, nyquistBins)
		for b := 0; b < nyquistBins; b++ {
			mag[b] = cmplxAbs(coeffs[b])
		}
		out[f] = mag
	}
	return out
}

func cmplxAbs(c complex128) float64 {
	re, im := real(c), imag(c)
	return math.Sqrt(re*re + im*im)
}

// FrameTimes returns the start time, in seconds, of each of n hop-spaced
// frames at the given sample rate (frame index * hop / sampleRate).
func FrameTimes(n, hop, sampleRate int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i*hop) / float64(sampleRate)
	}
	return times
}

// bandRMS computes, for one frame's magnitude spectrum, the RMS magnitude
// across the bin indices in group. Returns 0 for an empty group.
func bandRMS(mag []float64, group []int) float64 {
	if len(group) == 0 {
		return 0
	}
	var sumSq float64
	for _, b := range group {
		sumSq += mag[b] * mag[b]
	}
	return math.Sqrt(sumSq / float64(len(group)))
}

// medianFilter1D applies a centered median filter of odd width to x,
// replicating edge values for the boundary window rather than padding
// with zeros, which would otherwise pull the first/last frames toward a
// spurious dip.
func medianFilter1D(x []float64, width int) []float64 {
	if width <= 1 || len(x) == 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}
	half := width / 2
	out := make([]float64, len(x))
	window := make([]float64, width)
	for i := range x {
		for k := 0; k < width; k++ {
			idx := i + k - half
			if idx < 0 {
				idx = 0
			}
			if idx >= len(x) {
				idx = len(x) - 1
			}
			window[k] = x[idx]
		}
		out[i] = median(window)
	}
	return out
}

// median sorts a copy of xs, leaving xs itself unchanged, and returns the
// middle value for odd-length input.
func median(xs []float64) float64 {
	cp := append([]float64(nil), xs...)
	insertionSort(cp)
	return cp[len(cp)/2]
}

// insertionSort is fine here: filter widths are 3 or 5.
func insertionSort(xs []float64) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
