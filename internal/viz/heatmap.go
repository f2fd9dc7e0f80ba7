// Package viz provides visualization-facing collaborator helpers: the
// downsampled intensity heatmap and waveform peak extraction. Neither is
// part of the DSP core; both exist to give an external caller something
// cheap to render.
package viz

import (
	"math"

	"github.com/karenhance/restored/internal/matrix"
	"github.com/karenhance/restored/internal/types"
)

const maxGainForDisplay = 10.0

// DownsampleHeatmap reduces an intensity/gain-ratio matrix to at most
// targetColumns frames for frontend rendering, taking the max value within
// each window to preserve peaks. Mix-mode gain ratios (1.0 to MaxGain) are
// remapped to 0-1 for display. If the matrix already fits within
// targetColumns it is returned without downsampling (still remapped in mix
// mode), along with the original frameTimes.
func DownsampleHeatmap(m *matrix.Matrix, frameTimes []float64, targetColumns int, mode types.Mode) (*matrix.Matrix, []float64) {
	vis := m
	if mode == types.ModeMix {
		vis = matrix.New(m.Bands, m.Frames)
		for i, v := range m.Data {
			vis.Data[i] = clip((v-1.0)/(maxGainForDisplay-1.0), 0, 1)
		}
	}

	if m.Frames <= targetColumns {
		return vis, frameTimes
	}

	out := matrix.New(m.Bands, targetColumns)
	times := make([]float64, targetColumns)
	step := float64(m.Frames) / float64(targetColumns)

	for i := 0; i < targetColumns; i++ {
		start := int(float64(i) * step)
		end := int(float64(i+1) * step)
		if end > m.Frames {
			end = m.Frames
		}
		if end <= start {
			end = start + 1
		}
		for b := 0; b < m.Bands; b++ {
			row := vis.Row(b)
			var max float64
			for f := start; f < end && f < len(row); f++ {
				if row[f] > max {
					max = row[f]
				}
			}
			out.Set(b, i, max)
		}
		times[i] = frameTimes[start]
	}
	return out, times
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
