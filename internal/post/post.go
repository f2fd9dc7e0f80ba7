// Package post implements the Post Conditioner: stereo widening, the soft
// clip guard, and output normalization applied after spectral gain.
package post

import (
	"math"

	"github.com/karenhance/restored/internal/types"
)

const (
	// ClipCeiling is the level above which the soft-knee guard engages.
	// Samples at or below it are left untouched.
	ClipCeiling  = 0.98
	widenAmount  = 1.3
	peakTarget   = 0.95
	loudnessDB   = -16.0
	loudnessCeil = 0.95
)

// WidenStereo applies intensity-modulated mid/side widening: wet[i] is the
// fully-widened sample, blended toward dry by (1 - intensity[i]), so
// widening only engages where restoration gain is actually active.
// left/right must be equal length; intensity must cover every sample
// (already interpolated to sample rate by the caller).
func WidenStereo(left, right, intensity []float64) (outLeft, outRight []float64) {
	n := len(left)
	outLeft = make([]float64, n)
	outRight = make([]float64, n)
	for i := 0; i < n; i++ {
		mid := (left[i] + right[i]) / 2
		side := (left[i] - right[i]) / 2 * widenAmount
		wetL, wetR := mid+side, mid-side

		c := 0.0
		if i < len(intensity) {
			c = intensity[i]
		}
		outLeft[i] = left[i]*(1-c) + wetL*c
		outRight[i] = right[i]*(1-c) + wetR*c
	}
	return outLeft, outRight
}

// ClipGuard applies the tanh soft-knee limiter: any sample whose magnitude
// exceeds ClipCeiling is mapped into (ClipCeiling, 1.0]; samples within the
// ceiling are returned bit-identical, so a signal whose every sample is
// within ±ClipCeiling passes through unchanged.
func ClipGuard(channels [][]float64) {
	for _, ch := range channels {
		for i, v := range ch {
			mag := math.Abs(v)
			if mag <= ClipCeiling {
				continue
			}
			sign := 1.0
			if v < 0 {
				sign = -1.0
			}
			knee := ClipCeiling + (1.0-ClipCeiling)*math.Tanh((mag-ClipCeiling)/(1.0-ClipCeiling))
			ch[i] = sign * knee
		}
	}
}

// Normalize applies peak or loudness normalization across all channels
// jointly (peak/RMS computed over every sample in every channel, a single
// scalar gain applied everywhere) so the stereo image isn't skewed.
// NormalizationNone is a no-op.
func Normalize(channels [][]float64, mode types.Normalization) {
	switch mode {
	case types.NormalizationPeak:
		peak := maxAbs(channels)
		if peak > 0 {
			scaleAll(channels, peakTarget/peak)
		}
	case types.NormalizationLoudness:
		rms := rmsAll(channels)
		if rms > 0 {
			targetRMS := math.Pow(10, loudnessDB/20)
			gain := targetRMS / rms
			scaleAll(channels, gain)
			peak := maxAbs(channels)
			if peak > loudnessCeil {
				scaleAll(channels, loudnessCeil/peak)
			}
		}
	}
}

func maxAbs(channels [][]float64) float64 {
	var m float64
	for _, ch := range channels {
		for _, v := range ch {
			if a := math.Abs(v); a > m {
				m = a
			}
		}
	}
	return m
}

func rmsAll(channels [][]float64) float64 {
	var sumSq float64
	var n int
	for _, ch := range channels {
		for _, v := range ch {
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

func scaleAll(channels [][]float64, gain float64) {
	for _, ch := range channels {
		for i := range ch {
			ch[i] *= gain
		}
	}
}
