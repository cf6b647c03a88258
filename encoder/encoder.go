package encoder

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Format names an audio encoding by its MIME subtype.
type Format string

const (
	WebM Format = "webm"
	Ogg  Format = "ogg"
	MP3  Format = "mp3"
	MP4  Format = "mp4"
	FLAC Format = "flac"
	WAV  Format = "wav"
)

func (f Format) MimeType() string  { return "audio/" + string(f) }
func (f Format) Extension() string { return string(f) }

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
}

// Supported reports whether New can produce f in this build.
func Supported(f Format) bool {
	switch f {
	case FLAC, WAV:
		return true
	}
	return false
}

func New(f Format) (Encoder, error) {
	switch f {
	case FLAC:
		return NewFlac()
	case WAV:
		return NewWav()
	}
	return nil, fmt.Errorf("unsupported encoding %q", f)
}

// Samples decodes little-endian 16-bit PCM. A trailing odd byte is dropped.
func Samples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// EncodeAll feeds pcm to enc in BlockSize blocks and closes it.
func EncodeAll(enc Encoder, pcm []byte) error {
	samples := Samples(pcm)
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		start := time.Now()
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return fmt.Errorf("encoding block at %d: %w", i, err)
		}
		enc.AddEncodeTime(time.Since(start))
	}
	return enc.Close()
}

// stats carries the frame and timing counters shared by every encoder.
type stats struct {
	mu          sync.Mutex
	totalFrames uint64
	encodeTime  time.Duration
}

func (s *stats) addFrames(n int) {
	s.mu.Lock()
	s.totalFrames += uint64(n)
	s.mu.Unlock()
}

func (s *stats) TotalFrames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalFrames
}

func (s *stats) AddEncodeTime(d time.Duration) {
	s.mu.Lock()
	s.encodeTime += d
	s.mu.Unlock()
}

func (s *stats) EncodeTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encodeTime
}
