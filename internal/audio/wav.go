package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV interleaves per-channel float64 sample slices into a 32-bit
// float PCM WAV file, the lossless intermediate the Spectral Processor hands to
// EncodeTo. Uses go-audio/wav + go-audio/audio rather than a hand-rolled
// RIFF writer, matching the WAV I/O library the rest of the retrieved pack
// reaches for. Samples are written as raw IEEE-754 float32 bit patterns
// (WAV format tag 3) rather than quantized to integer PCM, so the
// intermediate never clips or rounds a value already within range.
func WriteWAV(path string, channels [][]float64, sampleRate int) error {
	if len(channels) == 0 {
		return fmt.Errorf("audio: WriteWAV: no channels")
	}
	nch := len(channels)
	n := len(channels[0])
	for _, c := range channels {
		if len(c) != n {
			return fmt.Errorf("audio: WriteWAV: channel length mismatch")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: WriteWAV: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 32, nch, 3) // format tag 3 = IEEE float

	ib := &audio.IntBuffer{
		SourceBitDepth: 32,
		Format:         &audio.Format{NumChannels: nch, SampleRate: sampleRate},
		Data:           make([]int, n*nch),
	}
	for i := 0; i < n; i++ {
		for c := 0; c < nch; c++ {
			bits := math.Float32bits(float32(channels[c][i]))
			ib.Data[i*nch+c] = int(int32(bits))
		}
	}

	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("audio: WriteWAV: encoding: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: WriteWAV: closing: %w", err)
	}
	return nil
}
