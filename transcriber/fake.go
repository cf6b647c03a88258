package transcriber

import (
	"context"
	"sync"
	"time"

	"dictate/audio"
)

type Call struct {
	Payload audio.Payload
	Options Options
}

// Fake answers every request with a fixed text or error. It validates the
// credential the same way the real client does.
type Fake struct {
	text string
	err  error

	mu    sync.Mutex
	calls []Call
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, payload audio.Payload, opts Options) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Payload: payload, Options: opts})
	f.mu.Unlock()

	if err := Validate(opts); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, &RemoteError{Detail: err.Error(), Err: err}
	}
	if f.err != nil {
		return Result{}, &RemoteError{Detail: f.err.Error(), Err: f.err}
	}
	return Result{
		Text:    trimText(f.text),
		Metrics: &NetworkMetrics{Total: 10 * time.Millisecond},
	}, nil
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
