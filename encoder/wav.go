package encoder

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type WavEncoder struct {
	stats
	mu     sync.Mutex
	buf    *seekBuffer
	enc    *wav.Encoder
	format *audio.Format
	wrote  bool
}

func NewWav() (*WavEncoder, error) {
	buf := &seekBuffer{}
	return &WavEncoder{
		buf:    buf,
		enc:    wav.NewEncoder(buf, SampleRate, BitsPerSample, Channels, 1),
		format: &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
	}, nil
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data := make([]int, len(block))
	for i, s := range block {
		data[i] = int(s)
	}
	if err := e.enc.Write(&audio.IntBuffer{Format: e.format, Data: data, SourceBitDepth: BitsPerSample}); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	e.wrote = true
	e.addFrames(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// header and data chunk are only emitted on the first write
	if !e.wrote {
		if err := e.enc.Write(&audio.IntBuffer{Format: e.format, SourceBitDepth: BitsPerSample}); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
		e.wrote = true
	}
	return e.enc.Close()
}

func (e *WavEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.data
}

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back
// to patch chunk sizes on Close.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		b.data = append(b.data, make([]byte, need-len(b.data))...)
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("seek: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("seek: negative position")
	}
	b.pos = int(abs)
	return abs, nil
}
