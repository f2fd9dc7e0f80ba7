package spectral

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Engine performs windowed forward/inverse STFT with overlap-add
// reconstruction, using gonum's fourier.FFT for the per-frame transform
// and window-sum-square normalized overlap-add on the inverse side, the
// standard technique that makes ISTFT(STFT(x)) ≈ x for a Hann window at
// 75% overlap.
type Engine struct {
	fft     *fourier.FFT
	window  []float64
	fftSize int
	hop     int
}

func NewEngine(fftSize, hop int) *Engine {
	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &Engine{fft: fourier.NewFFT(fftSize), window: window, fftSize: fftSize, hop: hop}
}

func (e *Engine) FFTSize() int { return e.fftSize }
func (e *Engine) Hop() int     { return e.hop }

// NumFrames mirrors analysis.STFT.NumFrames: frames anchored at 0, hop,
// 2*hop, ..., truncated at the tail rather than zero-padded, with a single
// frame floor for signals shorter than one window.
func (e *Engine) NumFrames(nSamples int) int {
	n := 1 + (nSamples-e.fftSize)/e.hop
	if n < 1 {
		n = 1
	}
	return n
}

// Forward computes the windowed complex STFT, one []complex128 of length
// fftSize/2+1 per frame.
func (e *Engine) Forward(signal []float64) [][]complex128 {
	n := e.NumFrames(len(signal))
	frames := make([][]complex128, n)
	windowed := make([]float64, e.fftSize)
	for f := 0; f < n; f++ {
		start := f * e.hop
		for i := 0; i < e.fftSize; i++ {
			idx := start + i
			var v float64
			if idx >= 0 && idx < len(signal) {
				v = signal[idx]
			}
			windowed[i] = v * e.window[i]
		}
		frames[f] = e.fft.Coefficients(nil, windowed)
	}
	return frames
}

// Inverse reconstructs a real signal of exactly length samples from
// windowed complex STFT frames via window-sum-square normalized
// overlap-add.
func (e *Engine) Inverse(frames [][]complex128, length int) []float64 {
	span := length + e.fftSize
	acc := make([]float64, span)
	winSq := make([]float64, span)

	for f, coeffs := range frames {
		frame := e.fft.Sequence(nil, coeffs)
		start := f * e.hop
		for i := 0; i < e.fftSize && start+i < span; i++ {
			// gonum's Sequence returns the inverse unnormalized, scaled by
			// fftSize, matching FFTPACK convention.
			acc[start+i] += frame[i] * e.window[i] / float64(e.fftSize)
			winSq[start+i] += e.window[i] * e.window[i]
		}
	}

	out := make([]float64, length)
	for i := 0; i < length; i++ {
		if winSq[i] > 1e-8 {
			out[i] = acc[i] / winSq[i]
		}
	}
	return out
}
