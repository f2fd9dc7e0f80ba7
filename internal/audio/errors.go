package audio

import "errors"

var (
	ErrDecodeFailed = errors.New("audio: decode failed")
	ErrEmptyAudio   = errors.New("audio: empty audio")
	ErrEncodeFailed = errors.New("audio: encode failed")
)
