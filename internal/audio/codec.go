package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CodecSpec describes how to encode the lossless WAV intermediate into a
// given output extension.
type CodecSpec struct {
	// Codec is the ffmpeg -c:a value. Empty means "inherit bitrate": no
	// explicit codec, just -b:a (MP3).
	Codec string
}

// CodecTable holds one entry per supported output extension.
var CodecTable = map[string]CodecSpec{
	".mp3":  {Codec: ""},
	".flac": {Codec: "flac"},
	".wav":  {Codec: "pcm_s16le"},
	".opus": {Codec: "libopus"},
	".ogg":  {Codec: "libvorbis"},
	".m4a":  {Codec: "aac"},
	".aac":  {Codec: "aac"},
}

// ErrUnsupportedExtension is returned by EncodeTo for an extension absent
// from CodecTable.
var ErrUnsupportedExtension = fmt.Errorf("audio: unsupported output extension")

// EncodeTo hands the WAV intermediate at wavPath to ffmpeg, producing
// outputPath in the format named by ext (including the leading dot).
// Inherits the source bitrate via Bitrate(sourcePath) when the codec entry
// has no explicit codec (MP3).
func (d *Decoder) EncodeTo(ctx context.Context, wavPath, outputPath, ext, sourcePath string) error {
	spec, ok := CodecTable[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}

	args := []string{"-y", "-i", wavPath}
	if spec.Codec == "" {
		args = append(args, "-b:a", fmt.Sprintf("%d", d.Bitrate(ctx, sourcePath)))
	} else {
		args = append(args, "-c:a", spec.Codec)
	}
	args = append(args, outputPath)

	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%w: %s: %v", ErrEncodeFailed, stderr.String(), err)
	}
	return nil
}
