package analysis

import (
	"context"
	"fmt"

	"github.com/karenhance/restored/internal/audio"
	"github.com/karenhance/restored/internal/bandplan"
	"github.com/karenhance/restored/internal/matrix"
)

// MaxGain caps the mix-mode gain ratio at +20dB.
const MaxGain = 10.0

// eps avoids division by zero when an instrumental band carries no energy.
const eps = 1e-10

// MixResult is the output of the Mix Analyzer: per-band gain ratios rather
// than a normalized intensity curve.
type MixResult struct {
	GainRatio  *matrix.Matrix
	FrameTimes []float64
	Plan       *bandplan.Plan
}

// AnalyzeMix compares the original mix against the devocalized instrumental
// to compute the exact per-band gain needed to restore the instrumental's
// energy to match the mix. No sensitivity parameter: the ratio is
// deterministic. bandCount in [6,32].
func AnalyzeMix(ctx context.Context, dec *audio.Decoder, mixPath, instrumentalPath string, bandCount int, progress ProgressFunc) (*MixResult, error) {
	if bandCount < 6 || bandCount > 32 {
		return nil, fmt.Errorf("analysis: band count %d out of range [6,32]", bandCount)
	}

	reportProgress(progress, 5)

	mix, err := dec.DecodeMono(ctx, mixPath, AnalysisSampleRate)
	if err != nil {
		return nil, fmt.Errorf("analysis: decoding mix reference: %w", err)
	}

	reportProgress(progress, 10)

	inst, err := dec.DecodeMono(ctx, instrumentalPath, AnalysisSampleRate)
	if err != nil {
		return nil, fmt.Errorf("analysis: decoding instrumental: %w", err)
	}

	reportProgress(progress, 15)

	if len(mix) == 0 || len(inst) == 0 {
		return nil, fmt.Errorf("analysis: %w", audio.ErrEmptyAudio)
	}

	// Zero-pad the shorter signal so both STFTs produce the same frame
	// count. This can bias the ratio estimate near the tail if the two
	// recordings have drifted out of alignment — a known, unresolved
	// tradeoff rather than a bug.
	if len(mix) > len(inst) {
		inst = padTo(inst, len(mix))
	} else if len(inst) > len(mix) {
		mix = padTo(mix, len(inst))
	}

	stft := NewSTFT(FFTSize, Hop)
	magMix := stft.Magnitudes(mix)

	reportProgress(progress, 25)

	magInst := stft.Magnitudes(inst)

	reportProgress(progress, 35)

	nFrames := len(magMix)
	frameTimes := FrameTimes(nFrames, Hop, AnalysisSampleRate)

	plan, err := bandplan.New(bandCount, AnalysisSampleRate)
	if err != nil {
		return nil, err
	}
	groups := plan.BinGroups(FFTSize, AnalysisSampleRate)

	gainRatio := matrix.Fill(bandCount, nFrames, 1.0)
	for b, bins := range groups {
		if len(bins) == 0 {
			continue
		}
		row := gainRatio.Row(b)
		for f := 0; f < nFrames; f++ {
			mixRMS := bandRMS(magMix[f], bins)
			instRMS := bandRMS(magInst[f], bins)
			ratio := mixRMS / (instRMS + eps)
			row[f] = clip(ratio, 1.0, MaxGain)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reportProgress(progress, 35+int(45*float64(b+1)/float64(bandCount)))
	}

	reportProgress(progress, 85)

	for b := 0; b < bandCount; b++ {
		filtered := medianFilter1D(gainRatio.Row(b), 3)
		copy(gainRatio.Row(b), filtered)
	}

	reportProgress(progress, 90)

	return &MixResult{GainRatio: gainRatio, FrameTimes: frameTimes, Plan: plan}, nil
}

func padTo(x []float64, n int) []float64 {
	if len(x) >= n {
		return x
	}
	out := make([]float64, n)
	copy(out, x)
	return out
}
