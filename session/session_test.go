package session

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"dictate/audio"
	"dictate/config"
	"dictate/encoder"
	"dictate/indicator"
	"dictate/surface"
	"dictate/target"
	"dictate/transcriber"
)

type fixedSettings struct{ s config.Settings }

func (f fixedSettings) Current() config.Settings { return f.s }

type recorder struct {
	mu       sync.Mutex
	statuses []Status
	notices  []string
}

func (r *recorder) StatusChanged(s Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
}

func (r *recorder) Notice(msg string) {
	r.mu.Lock()
	r.notices = append(r.notices, msg)
	r.mu.Unlock()
}

func (r *recorder) Statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.statuses)
}

func (r *recorder) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notices)
}

func pcm(samples int) []byte {
	b := make([]byte, samples*2)
	for i := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(int16(i%200-100)))
	}
	return b
}

type harness struct {
	ctl       *Controller
	backend   *audio.FakeContext
	fake      *transcriber.Fake
	ws        *surface.Workspace
	doc       *surface.Document
	field     *surface.Field
	indicator *indicator.Indicator
	events    *recorder
	fallback  []string
}

func newHarness(t *testing.T, settings config.Settings, tr Transcriber) *harness {
	t.Helper()
	h := &harness{
		backend: audio.NewFakeContext(pcm(4000), false),
		ws:      surface.NewWorkspace(surface.DefaultMetrics),
		events:  &recorder{},
	}
	h.doc = h.ws.NewDocument("notes")
	h.field = h.doc.AddField("title", surface.Point{X: 0, Y: 0}, false)
	h.ws.Focus(h.field)
	h.indicator = indicator.New(h.ws)

	if tr == nil {
		h.fake = transcriber.NewFake("hello world\n", nil)
		tr = h.fake
	}
	h.ctl = New(Deps{
		Capture:     audio.NewRecorder(h.backend, audio.RecorderConfig{}),
		Transcriber: tr,
		Inserter:    target.NewResolver(h.ws),
		Indicator:   h.indicator,
		Settings:    fixedSettings{settings},
		Status:      h.events,
		Notifier:    h.events,
		Fallback:    func(text string) { h.fallback = append(h.fallback, text) },
		Now:         func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 123e6, time.UTC) },
	})
	return h
}

func validSettings() config.Settings {
	s := config.Defaults()
	s.APIKey = "sk-test"
	return s
}

func TestCycleInsertsIntoFocusedField(t *testing.T) {
	h := newHarness(t, validSettings(), nil)
	ctx := context.Background()

	if err := h.ctl.Toggle(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := h.ctl.Status(); got != Recording {
		t.Fatalf("status = %v, want Recording", got)
	}
	if kind, ok := h.indicator.Visible(); !ok || kind != indicator.Recording {
		t.Fatalf("indicator = %v/%v, want recording overlay", kind, ok)
	}

	if err := h.ctl.Toggle(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if got := h.ctl.Status(); got != Idle {
		t.Fatalf("status = %v, want Idle", got)
	}
	if _, ok := h.indicator.Visible(); ok {
		t.Error("indicator still visible after cycle")
	}
	if got := h.field.Value(); got != "hello world" {
		t.Errorf("field = %q, want %q", got, "hello world")
	}
	if got := h.ctl.Completed(); got != 1 {
		t.Errorf("Completed() = %d, want 1", got)
	}

	want := []Status{Recording, Processing, Idle}
	if got := h.events.Statuses(); !slices.Equal(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if n := len(h.events.Notices()); n != 0 {
		t.Errorf("got %d notices outside debug mode: %v", n, h.events.Notices())
	}
	if h.backend.Open() != 1 || h.backend.Released() != 1 {
		t.Errorf("open/released = %d/%d, want 1/1", h.backend.Open(), h.backend.Released())
	}

	calls := h.fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("transcriber calls = %d, want 1", len(calls))
	}
	if got := calls[0].Options.Filename; got != "2024-03-05T14-07-09-123Z.flac" {
		t.Errorf("filename = %q", got)
	}
	if calls[0].Payload.Format != encoder.FLAC || calls[0].Payload.Empty() {
		t.Errorf("payload = %s (%d bytes)", calls[0].Payload.Format, calls[0].Payload.Len())
	}
}

func TestMissingCredentialReturnsToIdle(t *testing.T) {
	h := newHarness(t, config.Defaults(), nil)
	ctx := context.Background()

	if err := h.ctl.Toggle(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := h.ctl.Toggle(ctx)
	if !errors.Is(err, transcriber.ErrAuthenticationMissing) {
		t.Fatalf("err = %v, want ErrAuthenticationMissing", err)
	}
	if got := h.ctl.Status(); got != Idle {
		t.Errorf("status = %v, want Idle", got)
	}
	want := []string{"OpenAI client is not initialized. Please check your API key."}
	if got := h.events.Notices(); !slices.Equal(got, want) {
		t.Errorf("notices = %q, want %q", got, want)
	}
	if h.field.Value() != "" {
		t.Errorf("field modified: %q", h.field.Value())
	}
	if _, ok := h.indicator.Visible(); ok {
		t.Error("indicator still visible")
	}
}

func TestNoTargetUsesFallback(t *testing.T) {
	h := newHarness(t, validSettings(), nil)
	h.ws.Blur()
	ctx := context.Background()

	_ = h.ctl.Toggle(ctx)
	err := h.ctl.Toggle(ctx)
	if !errors.Is(err, target.ErrNoInsertionTarget) {
		t.Fatalf("err = %v, want ErrNoInsertionTarget", err)
	}
	if got := h.events.Notices(); !slices.Equal(got, []string{"No text input found."}) {
		t.Errorf("notices = %q", got)
	}
	if !slices.Equal(h.fallback, []string{"hello world"}) {
		t.Errorf("fallback = %q", h.fallback)
	}
	if h.ctl.Completed() != 0 {
		t.Error("failed cycle counted as completed")
	}
	if got := h.ctl.Status(); got != Idle {
		t.Errorf("status = %v, want Idle", got)
	}
}

func TestDeviceFailureStaysIdle(t *testing.T) {
	h := newHarness(t, validSettings(), nil)
	h.backend.OpenErr = errors.New("no microphone")

	err := h.ctl.Toggle(context.Background())
	if !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Fatalf("err = %v, want ErrDeviceUnavailable", err)
	}
	if got := h.ctl.Status(); got != Idle {
		t.Errorf("status = %v, want Idle", got)
	}
	if got := h.events.Statuses(); len(got) != 0 {
		t.Errorf("statuses = %v, want none", got)
	}
	notices := h.events.Notices()
	if len(notices) != 1 || !strings.HasPrefix(notices[0], "Error initializing recorder: ") {
		t.Errorf("notices = %q", notices)
	}
	if _, ok := h.indicator.Visible(); ok {
		t.Error("indicator shown for failed start")
	}
}

func TestEncodingPreferenceFromSettings(t *testing.T) {
	s := validSettings()
	s.Encodings = []string{"webm", "WAV"}
	h := newHarness(t, s, nil)
	ctx := context.Background()

	_ = h.ctl.Toggle(ctx)
	if err := h.ctl.Toggle(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	calls := h.fake.Calls()
	if len(calls) != 1 || calls[0].Payload.Format != encoder.WAV {
		t.Fatalf("calls = %+v, want one wav payload", calls)
	}
	if got := calls[0].Options.Filename; !strings.HasSuffix(got, ".wav") {
		t.Errorf("filename = %q", got)
	}
}

func TestRemoteErrorNotice(t *testing.T) {
	h := newHarness(t, validSettings(), transcriber.NewFake("", errors.New("Invalid file format.")))
	ctx := context.Background()

	_ = h.ctl.Toggle(ctx)
	err := h.ctl.Toggle(ctx)
	var remote *transcriber.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if got := h.events.Notices(); !slices.Equal(got, []string{"Error parsing audio: Invalid file format."}) {
		t.Errorf("notices = %q", got)
	}
}

type blockingTranscriber struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, _ audio.Payload, _ transcriber.Options) (transcriber.Result, error) {
	close(b.entered)
	<-b.release
	return transcriber.Result{Text: "late"}, nil
}

func TestToggleWhileProcessingIsBusy(t *testing.T) {
	bt := &blockingTranscriber{entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, validSettings(), bt)
	ctx := context.Background()

	_ = h.ctl.Toggle(ctx)
	done := make(chan error, 1)
	go func() { done <- h.ctl.Toggle(ctx) }()
	<-bt.entered

	if got := h.ctl.Status(); got != Processing {
		t.Errorf("status = %v, want Processing", got)
	}
	if kind, ok := h.indicator.Visible(); !ok || kind != indicator.Processing {
		t.Errorf("indicator = %v/%v, want processing overlay", kind, ok)
	}
	if err := h.ctl.Toggle(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent toggle err = %v, want ErrBusy", err)
	}

	close(bt.release)
	if err := <-done; err != nil {
		t.Fatalf("finish: %v", err)
	}
	if got := h.field.Value(); got != "late" {
		t.Errorf("field = %q, want %q", got, "late")
	}
	if h.backend.Open() != 1 {
		t.Errorf("busy toggle opened a capture: open = %d", h.backend.Open())
	}
}

func TestDebugNoticesAndArchive(t *testing.T) {
	s := validSettings()
	s.DebugMode = true
	s.ArchiveDir = filepath.Join(t.TempDir(), "archive")
	h := newHarness(t, s, nil)
	ctx := context.Background()

	_ = h.ctl.Toggle(ctx)
	if err := h.ctl.Toggle(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}

	notices := h.events.Notices()
	if len(notices) != 3 {
		t.Fatalf("notices = %q, want 3", notices)
	}
	if !strings.HasPrefix(notices[0], "Sending audio data size: ") {
		t.Errorf("notices[0] = %q", notices[0])
	}
	if notices[1] != "Parsing audio data: 2024-03-05T14-07-09-123Z.flac" {
		t.Errorf("notices[1] = %q", notices[1])
	}
	if notices[2] != "Inserted transcription into text field" {
		t.Errorf("notices[2] = %q", notices[2])
	}

	data, err := os.ReadFile(filepath.Join(s.ArchiveDir, "2024-03-05T14-07-09-123Z.flac"))
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if string(data[:4]) != "fLaC" {
		t.Errorf("archived file header = %q", data[:4])
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 123e6, time.UTC)
	if got := Filename(ts, "flac"); got != "2024-03-05T14-07-09-123Z.flac" {
		t.Errorf("Filename = %q", got)
	}
	local := ts.In(time.FixedZone("CET", 3600))
	if got := Filename(local, "wav"); got != "2024-03-05T14-07-09-123Z.wav" {
		t.Errorf("Filename(local) = %q", got)
	}
}

func TestNotice(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{transcriber.ErrAuthenticationMissing, "OpenAI client is not initialized. Please check your API key."},
		{&transcriber.RemoteError{StatusCode: 400, Detail: "bad audio"}, "Error parsing audio: bad audio"},
		{target.ErrNoInsertionTarget, "No text input found."},
		{audio.ErrNoSupportedEncoding, "Error initializing recorder: " + audio.ErrNoSupportedEncoding.Error()},
		{errors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		if got := Notice(tt.err); got != tt.want {
			t.Errorf("Notice(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
	if got := Notice(transcriber.ErrClientInit); !strings.HasPrefix(got, "Error initializing OpenAI client: ") {
		t.Errorf("Notice(ErrClientInit) = %q", got)
	}
}

func TestStatusText(t *testing.T) {
	for s, want := range map[Status]string{
		Idle:       "Dictation Idle",
		Recording:  "Recording...",
		Processing: "Processing audio...",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
