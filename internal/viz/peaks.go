package viz

import (
	"context"
	"fmt"

	"github.com/karenhance/restored/internal/audio"
)

// peakSampleRate is coarse on purpose: waveform peaks are a visual
// summary, not an analysis input.
const peakSampleRate = 8000

// WaveformPeaks decodes path and reduces it to numPeaks max-magnitude
// values for a frontend waveform display. Reuses the module's own ffmpeg
// decode path rather than shelling out to ffprobe separately, since the
// module already owns a decoder.
func WaveformPeaks(ctx context.Context, dec *audio.Decoder, path string, numPeaks int) ([]float64, error) {
	if numPeaks <= 0 {
		return nil, fmt.Errorf("viz: numPeaks must be positive")
	}
	samples, err := dec.DecodeMono(ctx, path, peakSampleRate)
	if err != nil {
		return nil, fmt.Errorf("viz: decoding for waveform peaks: %w", err)
	}
	if len(samples) == 0 {
		return make([]float64, numPeaks), nil
	}

	peaks := make([]float64, numPeaks)
	step := float64(len(samples)) / float64(numPeaks)
	for i := 0; i < numPeaks; i++ {
		start := int(float64(i) * step)
		end := int(float64(i+1) * step)
		if end > len(samples) {
			end = len(samples)
		}
		if end <= start {
			end = start + 1
			if end > len(samples) {
				break
			}
		}
		var peak float64
		for _, v := range samples[start:end] {
			if a := abs(v); a > peak {
				peak = a
			}
		}
		if peak > 1.0 {
			peak = 1.0
		}
		peaks[i] = peak
	}
	return peaks, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
