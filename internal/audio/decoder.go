// Package audio wraps ffmpeg/ffprobe subprocesses for decode, metadata
// probing, and output encoding, plus a WAV writer for the lossless
// intermediate the Spectral Processor produces before final encode.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
)

// Decoder shells out to ffmpeg/ffprobe for decode, producing float32 PCM
// at a caller-chosen sample rate and channel count.
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
}

// NewDecoder locates ffmpeg and ffprobe in PATH, or at the given override
// paths when non-empty.
func NewDecoder(ffmpegPath, ffprobePath string) (*Decoder, error) {
	if ffmpegPath == "" {
		p, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("audio: ffmpeg not found in PATH: %w", err)
		}
		ffmpegPath = p
	}
	if ffprobePath == "" {
		p, err := exec.LookPath("ffprobe")
		if err != nil {
			return nil, fmt.Errorf("audio: ffprobe not found in PATH: %w", err)
		}
		ffprobePath = p
	}
	return &Decoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}, nil
}

// DecodeMono decodes path to a single-channel slice at the given sample
// rate. Used by the analyzers, which always work in mono at the fixed
// analysis sample rate.
func (d *Decoder) DecodeMono(ctx context.Context, path string, sampleRate int) ([]float64, error) {
	raw, err := d.decodeRaw(ctx, path, 1, sampleRate)
	if err != nil {
		return nil, err
	}
	return bytesToFloat64(raw), nil
}

// DecodeMulti decodes path preserving its native channel count and sample
// rate, for the Spectral Processor's instrumental load. Returns one
// []float64 slice per channel, deinterleaved.
func (d *Decoder) DecodeMulti(ctx context.Context, path string) (channelsOut [][]float64, sampleRate int, err error) {
	meta, err := d.Metadata(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	nch := meta.Channels
	if nch <= 0 {
		nch = 2
	}
	sr := meta.SampleRate
	if sr <= 0 {
		sr = 44100
	}
	raw, err := d.decodeRaw(ctx, path, nch, sr)
	if err != nil {
		return nil, 0, err
	}
	interleaved := bytesToFloat64(raw)
	channelsOut = make([][]float64, nch)
	n := len(interleaved) / nch
	for c := range channelsOut {
		channelsOut[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < nch; c++ {
			channelsOut[c][i] = interleaved[i*nch+c]
		}
	}
	return channelsOut, sr, nil
}

// decodeRaw runs ffmpeg producing little-endian 32-bit float PCM at the
// requested channel count/sample rate and returns the raw byte stream.
// Collects into a buffer rather than streaming, since analysis and
// processing both need the whole signal before doing anything with it.
func (d *Decoder) decodeRaw(ctx context.Context, path string, channels, sampleRate int) ([]byte, error) {
	args := []string{
		"-i", path,
		"-f", "f32le",
		"-ac", fmt.Sprintf("%d", channels),
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-",
	}
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting ffmpeg: %v", ErrDecodeFailed, err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}()

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

func bytesToFloat64(raw []byte) []float64 {
	n := len(raw) / 4
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		out[i] = float64(math.Float32frombits(bits))
	}
	return out
}
