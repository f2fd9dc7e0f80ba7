package spectral

import (
	"context"

	"github.com/karenhance/restored/internal/bandplan"
	"github.com/karenhance/restored/internal/matrix"
)

// BinGainMatrix broadcasts a coarse per-band gain matrix onto the fine FFT
// bin grid: row i holds bin i's gain across frames. Bins outside any band
// (below the bottom band edge, or at or above the top band edge) default
// to 1.0.
type BinGainMatrix struct {
	Bins   int
	Frames int
	Data   [][]float64 // [bin][frame]
}

// BuildBinGainMatrix expands gain (bands x frames) to (bins x frames) using
// groups from bandplan.Plan.BinGroups computed at the processing sample
// rate — which may differ from the analysis sample rate, so bin groups are
// recomputed here rather than reused from analysis.
func BuildBinGainMatrix(gain *matrix.Matrix, groups [][]int, nyquistBins int) *BinGainMatrix {
	bg := &BinGainMatrix{Bins: nyquistBins, Frames: gain.Frames}
	bg.Data = make([][]float64, nyquistBins)
	for i := range bg.Data {
		row := make([]float64, gain.Frames)
		for f := range row {
			row[f] = 1.0
		}
		bg.Data[i] = row
	}
	for b, bins := range groups {
		if b >= gain.Bands {
			break
		}
		gainRow := gain.Row(b)
		for _, bin := range bins {
			if bin < nyquistBins {
				copy(bg.Data[bin], gainRow)
			}
		}
	}
	return bg
}

// forFrameCount returns a bins x nFrames gain view matching the engine's
// actual STFT frame count: truncated if bg has more frames than needed,
// right-padded with 1.0 (no gain) if fewer, covering sample-rate-driven
// frame count drift between precomputed analysis and the instrumental's
// own STFT.
func (bg *BinGainMatrix) forFrameCount(nFrames int) [][]float64 {
	out := make([][]float64, bg.Bins)
	for i, row := range bg.Data {
		r := make([]float64, nFrames)
		n := len(row)
		if n > nFrames {
			n = nFrames
		}
		copy(r, row[:n])
		for f := n; f < nFrames; f++ {
			r[f] = 1.0
		}
		out[i] = r
	}
	return out
}

// ApplyGain runs one channel through STFT, multiplies each bin's complex
// coefficient by its real-valued gain (preserving phase), and reconstructs
// a length-preserving signal via ISTFT. The complex STFT for this channel
// is never retained once ApplyGain returns.
func ApplyGain(ctx context.Context, engine *Engine, signal []float64, bg *BinGainMatrix) ([]float64, error) {
	frames := engine.Forward(signal)
	gainView := bg.forFrameCount(len(frames))

	for f, coeffs := range frames {
		for bin := range coeffs {
			if bin >= len(gainView) {
				continue
			}
			coeffs[bin] *= complex(gainView[bin][f], 0)
		}
		if f%64 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return engine.Inverse(frames, len(signal)), nil
}

// NyquistBins returns fftSize/2+1, the number of real-FFT bins.
func NyquistBins(fftSize int) int {
	return fftSize/2 + 1
}

// BandGroupsForSampleRate recomputes bin-to-band groups from scratch at a
// (possibly different) processing sample rate, rather than reusing the
// analyzer's edges, since the instrumental may not share the fixed
// analysis rate.
func BandGroupsForSampleRate(plan *bandplan.Plan, fftSize, sampleRate int) [][]int {
	edges := bandplan.Edges(len(plan.Bands), sampleRate)
	return bandplan.BinGroups(fftSize, sampleRate, edges)
}
