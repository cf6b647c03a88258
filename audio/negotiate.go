package audio

import (
	"errors"

	"dictate/encoder"
)

var (
	ErrDeviceUnavailable   = errors.New("audio input device unavailable")
	ErrNoSupportedEncoding = errors.New("no supported audio encoding")
	ErrAlreadyRecording    = errors.New("capture already in progress")
)

// DefaultPreferences is the encoding order tried when settings name none.
var DefaultPreferences = []encoder.Format{
	encoder.WebM,
	encoder.Ogg,
	encoder.MP3,
	encoder.MP4,
	encoder.FLAC,
	encoder.WAV,
}

// Negotiate returns the first entry of prefs that supported accepts.
func Negotiate(prefs []encoder.Format, supported func(encoder.Format) bool) (encoder.Format, error) {
	for _, f := range prefs {
		if supported(f) {
			return f, nil
		}
	}
	return "", ErrNoSupportedEncoding
}
