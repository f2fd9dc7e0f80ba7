package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Metadata describes the probed properties of an audio file: sample rate,
// channel count, and bitrate alongside duration, for the decode and encode
// paths.
type Metadata struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitrateBps int
	Tags       map[string]string
}

// Metadata probes path with ffprobe for duration, stream layout, and tags.
func (d *Decoder) Metadata(ctx context.Context, path string) (*Metadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	cmd := exec.CommandContext(ctx, d.ffprobePath, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("audio: ffprobe failed: %w", err)
	}

	var probe struct {
		Format struct {
			Duration string            `json:"duration"`
			Tags     map[string]string `json:"tags"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("audio: parsing ffprobe output: %w", err)
	}

	meta := &Metadata{Tags: map[string]string{}}
	for k, v := range probe.Format.Tags {
		meta.Tags[strings.ToLower(k)] = v
	}
	if probe.Format.Duration != "" {
		if sec, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			meta.Duration = time.Duration(sec * float64(time.Second))
		}
	}
	for _, s := range probe.Streams {
		if s.CodecType != "audio" {
			continue
		}
		if sr, err := strconv.Atoi(s.SampleRate); err == nil {
			meta.SampleRate = sr
		}
		meta.Channels = s.Channels
		if br, err := strconv.Atoi(s.BitRate); err == nil {
			meta.BitrateBps = br
		}
		break
	}
	return meta, nil
}

// Duration returns just the probed duration, for callers that don't need
// the full Metadata.
func (d *Decoder) Duration(ctx context.Context, path string) (time.Duration, error) {
	meta, err := d.Metadata(ctx, path)
	if err != nil {
		return 0, err
	}
	return meta.Duration, nil
}

// Bitrate returns the probed audio stream bitrate in bits/sec, defaulting
// to 192000 when ffprobe can't report one, for codecs (e.g. MP3 inheriting
// the source bitrate) that need a concrete number to pass to ffmpeg.
func (d *Decoder) Bitrate(ctx context.Context, path string) int {
	meta, err := d.Metadata(ctx, path)
	if err != nil || meta.BitrateBps <= 0 {
		return 192000
	}
	return meta.BitrateBps
}
