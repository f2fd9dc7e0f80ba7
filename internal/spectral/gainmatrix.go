package spectral

import (
	"github.com/karenhance/restored/internal/matrix"
	"github.com/karenhance/restored/internal/types"
)

// BuildGainMatrix converts an interpolated intensity/gain-ratio matrix into
// a per-band gain matrix, values always >= 1.0. eqLevel == 0 is an exact
// bypass: every cell is 1.0 regardless of mode or bands.
func BuildGainMatrix(intensity *matrix.Matrix, eqLevel int, bands []types.BandDefinition, mode types.Mode) *matrix.Matrix {
	if eqLevel == 0 {
		return matrix.Fill(intensity.Bands, intensity.Frames, 1.0)
	}
	if mode == types.ModeMix {
		return buildMixGain(intensity, eqLevel)
	}
	return buildVocalGain(intensity, eqLevel, bands)
}

func buildMixGain(ratio *matrix.Matrix, eqLevel int) *matrix.Matrix {
	pct := float64(eqLevel) / 10.0
	out := matrix.New(ratio.Bands, ratio.Frames)
	for i, r := range ratio.Data {
		out.Data[i] = 1.0 + pct*(r-1.0)
	}
	return out
}

func buildVocalGain(intensity *matrix.Matrix, eqLevel int, bands []types.BandDefinition) *matrix.Matrix {
	eqFactor := float64(eqLevel) * 0.25 // 0 to 2.5 linear gain offset
	out := matrix.New(intensity.Bands, intensity.Frames)
	for b := 0; b < intensity.Bands; b++ {
		scale := freqScale(bands[b].CenterHz)
		srcRow := intensity.Row(b)
		dstRow := out.Row(b)
		for f, v := range srcRow {
			dstRow[f] = 1.0 + eqFactor*scale*v
		}
	}
	return out
}

// freqScale weights vocal-mode boost by band center frequency: most boost
// in the core vocal presence range, less at the extremes.
func freqScale(centerHz float64) float64 {
	switch {
	case centerHz >= 200 && centerHz <= 4000:
		return 1.2
	case centerHz >= 100 && centerHz <= 6000:
		return 1.0
	default:
		return 0.7
	}
}
