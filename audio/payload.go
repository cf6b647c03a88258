package audio

import (
	"time"

	"dictate/encoder"
)

// Payload is one finished recording: the encoded bytes and the encoding
// they were produced with. It is not modified after Recorder.Stop returns it.
type Payload struct {
	Data   []byte
	Format encoder.Format
	Frames uint64

	EncodeTime time.Duration
}

func (p Payload) Len() int    { return len(p.Data) }
func (p Payload) Empty() bool { return len(p.Data) == 0 }

func (p Payload) Extension() string {
	if p.Format == "" {
		return "bin"
	}
	return p.Format.Extension()
}

func (p Payload) MimeType() string {
	if p.Format == "" {
		return "application/octet-stream"
	}
	return p.Format.MimeType()
}

func (p Payload) Duration() time.Duration {
	return time.Duration(p.Frames) * time.Second / encoder.SampleRate
}
