// Package spectral implements the Intensity Interpolator, Gain Matrix
// Builder, and Spectral Processor: the three stages that turn an
// analyzer's band-by-frame matrix into a resynthesized instrumental.
package spectral

import (
	"github.com/karenhance/restored/internal/matrix"
	"github.com/karenhance/restored/internal/types"
)

// Interpolate re-samples each band's curve from analysisFrameTimes onto
// targetFrameTimes with linear interpolation, holding the mode's fill
// value outside the source's time range. Exact at shared nodes.
func Interpolate(src *matrix.Matrix, analysisFrameTimes, targetFrameTimes []float64, mode types.Mode) *matrix.Matrix {
	fill := 0.0
	if mode == types.ModeMix {
		fill = 1.0
	}
	out := matrix.New(src.Bands, len(targetFrameTimes))
	for b := 0; b < src.Bands; b++ {
		srcRow := src.Row(b)
		dstRow := out.Row(b)
		for i, t := range targetFrameTimes {
			dstRow[i] = interp1Linear(analysisFrameTimes, srcRow, t, fill)
		}
	}
	if mode == types.ModeMix {
		out.Clip(1.0, maxFloat)
	} else {
		out.Clip(0.0, 1.0)
	}
	return out
}

const maxFloat = 1e308

// interp1Linear linearly interpolates y at x0 given ascending xs/ys,
// returning fill outside [xs[0], xs[last]]. xs with fewer than 2 points
// returns fill everywhere except an exact match at xs[0].
func interp1Linear(xs, ys []float64, x0, fill float64) float64 {
	n := len(xs)
	if n == 0 {
		return fill
	}
	if n == 1 {
		if x0 == xs[0] {
			return ys[0]
		}
		return fill
	}
	if x0 < xs[0] || x0 > xs[n-1] {
		return fill
	}
	// binary search for the bracketing segment
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	if x0 == xs[lo] {
		return ys[lo]
	}
	if x0 == xs[hi] {
		return ys[hi]
	}
	frac := (x0 - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo] + frac*(ys[hi]-ys[lo])
}
