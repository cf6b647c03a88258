package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"dictate/encoder"
)

const ChunkInterval = 100 * time.Millisecond

type RecorderConfig struct {
	Device        *DeviceInfo // nil selects the system default
	Capture       CaptureConfig
	Preferences   []encoder.Format
	Supported     func(encoder.Format) bool
	ChunkInterval time.Duration
}

// Recorder owns at most one capture stream at a time and turns what it
// hears into a single encoded Payload.
type Recorder struct {
	backend Context
	cfg     RecorderConfig

	mu     sync.Mutex
	dev    CaptureDevice
	format encoder.Format
	stop   chan struct{}
	done   chan struct{}

	bufMu   sync.Mutex
	pending []byte
	chunks  [][]byte
	frames  uint64
}

func NewRecorder(backend Context, cfg RecorderConfig) *Recorder {
	if cfg.Capture == (CaptureConfig{}) {
		cfg.Capture = DefaultCaptureConfig()
	}
	if cfg.Supported == nil {
		cfg.Supported = encoder.Supported
	}
	if cfg.ChunkInterval <= 0 {
		cfg.ChunkInterval = ChunkInterval
	}
	return &Recorder{backend: backend, cfg: cfg}
}

// SetPreferences replaces the encoding order used by the next Start.
func (r *Recorder) SetPreferences(prefs []encoder.Format) {
	r.mu.Lock()
	r.cfg.Preferences = prefs
	r.mu.Unlock()
}

func (r *Recorder) recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dev != nil
}

// Format is the encoding negotiated for the active capture.
func (r *Recorder) Format() encoder.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

func (r *Recorder) DeviceName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dev == nil {
		return ""
	}
	return r.dev.DeviceName()
}

func (r *Recorder) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dev != nil {
		return ErrAlreadyRecording
	}

	dev, err := r.backend.NewCapture(r.cfg.Device, r.cfg.Capture)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	r.resetBuffer()
	dev.SetCallback(r.onData)
	if err := dev.Start(); err != nil {
		release(dev)
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	prefs := r.cfg.Preferences
	if len(prefs) == 0 {
		prefs = DefaultPreferences
	}
	format, err := Negotiate(prefs, r.cfg.Supported)
	if err != nil {
		release(dev)
		r.resetBuffer()
		return err
	}

	r.dev = dev
	r.format = format
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.cutLoop(r.cfg.ChunkInterval, r.stop, r.done)
	return nil
}

// Stop releases the input and encodes everything captured since Start.
// Without an active capture it returns an empty Payload.
func (r *Recorder) Stop() (Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dev == nil {
		return Payload{}, nil
	}

	dev, format := r.dev, r.format
	close(r.stop)
	<-r.done
	defer func() {
		r.dev = nil
		r.format = ""
		r.stop, r.done = nil, nil
		r.resetBuffer()
	}()

	release(dev)
	r.cut()

	r.bufMu.Lock()
	pcm := bytes.Join(r.chunks, nil)
	frames := r.frames
	r.bufMu.Unlock()

	enc, err := encoder.New(format)
	if err != nil {
		return Payload{}, err
	}
	if err := encoder.EncodeAll(enc, pcm); err != nil {
		return Payload{}, fmt.Errorf("encoding %s: %w", format, err)
	}
	return Payload{Data: bytes.Clone(enc.Bytes()), Format: format, Frames: frames, EncodeTime: enc.EncodeTime()}, nil
}

func release(dev CaptureDevice) {
	dev.Stop()
	dev.ClearCallback()
	dev.Close()
}

func (r *Recorder) onData(data []byte, frameCount uint32) {
	r.bufMu.Lock()
	r.pending = append(r.pending, data...)
	r.frames += uint64(frameCount)
	r.bufMu.Unlock()
}

func (r *Recorder) cutLoop(interval time.Duration, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.cut()
		}
	}
}

// cut moves pending PCM into a new chunk.
func (r *Recorder) cut() {
	r.bufMu.Lock()
	defer r.bufMu.Unlock()
	if len(r.pending) == 0 {
		return
	}
	r.chunks = append(r.chunks, r.pending)
	r.pending = nil
}

func (r *Recorder) chunkCount() int {
	r.bufMu.Lock()
	defer r.bufMu.Unlock()
	return len(r.chunks)
}

func (r *Recorder) resetBuffer() {
	r.bufMu.Lock()
	r.pending = nil
	r.chunks = nil
	r.frames = 0
	r.bufMu.Unlock()
}
