package analysis

import (
	"context"
	"fmt"

	"github.com/karenhance/restored/internal/audio"
	"github.com/karenhance/restored/internal/bandplan"
	"github.com/karenhance/restored/internal/matrix"
)

const (
	AnalysisSampleRate = 22050
	FFTSize            = 2048
	Hop                = 512
)

// ProgressFunc reports a 0-100 percent-complete milestone. Implementations
// must not block; a slow or erroring callback never fails the analysis.
type ProgressFunc func(percent int)

func reportProgress(cb ProgressFunc, percent int) {
	if cb == nil {
		return
	}
	defer func() { recover() }()
	cb(percent)
}

// VocalResult is the output of the Vocal Analyzer.
type VocalResult struct {
	Intensity  *matrix.Matrix
	FrameTimes []float64
	Plan       *bandplan.Plan
}

// AnalyzeVocal analyzes an isolated vocal track into per-band intensity
// curves in [0,1]. sensitivity in [1,10], higher detects quieter vocals.
// bandCount in [6,24].
func AnalyzeVocal(ctx context.Context, dec *audio.Decoder, vocalPath string, sensitivity, bandCount int, progress ProgressFunc) (*VocalResult, error) {
	if sensitivity < 1 || sensitivity > 10 {
		return nil, fmt.Errorf("analysis: sensitivity %d out of range [1,10]", sensitivity)
	}
	if bandCount < 6 || bandCount > 24 {
		return nil, fmt.Errorf("analysis: band count %d out of range [6,24]", bandCount)
	}

	reportProgress(progress, 5)

	samples, err := dec.DecodeMono(ctx, vocalPath, AnalysisSampleRate)
	if err != nil {
		return nil, fmt.Errorf("analysis: decoding vocal track: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("analysis: %w: empty vocal track", audio.ErrEmptyAudio)
	}

	reportProgress(progress, 15)

	stft := NewSTFT(FFTSize, Hop)
	mag := stft.Magnitudes(samples)
	nFrames := len(mag)
	frameTimes := FrameTimes(nFrames, Hop, AnalysisSampleRate)

	reportProgress(progress, 25)

	plan, err := bandplan.New(bandCount, AnalysisSampleRate)
	if err != nil {
		return nil, err
	}
	groups := plan.BinGroups(FFTSize, AnalysisSampleRate)

	intensity := matrix.New(bandCount, nFrames)
	for b, bins := range groups {
		if len(bins) == 0 {
			continue
		}
		row := intensity.Row(b)
		var bandMax float64
		for f := 0; f < nFrames; f++ {
			v := bandRMS(mag[f], bins)
			row[f] = v
			if v > bandMax {
				bandMax = v
			}
		}
		if bandMax > 0 {
			for f := range row {
				row[f] /= bandMax
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reportProgress(progress, 25+int(50*float64(b+1)/float64(bandCount)))
	}

	threshold := 0.70 - float64(sensitivity-1)*0.07
	for i, v := range intensity.Data {
		if v < threshold {
			intensity.Data[i] = 0
		}
	}

	reportProgress(progress, 80)

	for b := 0; b < bandCount; b++ {
		filtered := medianFilter1D(intensity.Row(b), 5)
		copy(intensity.Row(b), filtered)
	}
	intensity.Clip(0, 1)

	reportProgress(progress, 90)

	return &VocalResult{Intensity: intensity, FrameTimes: frameTimes, Plan: plan}, nil
}
