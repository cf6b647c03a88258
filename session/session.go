package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"dictate/audio"
	"dictate/config"
	"dictate/encoder"
	"dictate/indicator"
	"dictate/log"
	"dictate/target"
	"dictate/transcriber"
)

type Status int

const (
	Idle Status = iota
	Recording
	Processing
)

// String is the status bar text.
func (s Status) String() string {
	switch s {
	case Recording:
		return "Recording..."
	case Processing:
		return "Processing audio..."
	}
	return "Dictation Idle"
}

func (s Status) name() string {
	switch s {
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	}
	return "idle"
}

var ErrBusy = errors.New("dictation toggle already in progress")

type Capture interface {
	Start(ctx context.Context) error
	Stop() (audio.Payload, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, payload audio.Payload, opts transcriber.Options) (transcriber.Result, error)
}

type Inserter interface {
	ResolveAndInsert(text string) (target.Outcome, error)
}

type Indicator interface {
	Show(kind indicator.Kind)
	Hide()
}

type Settings interface {
	Current() config.Settings
}

// StatusSink is told about every transition before Toggle returns.
type StatusSink interface {
	StatusChanged(Status)
}

// Notifier shows a short user-facing message.
type Notifier interface {
	Notice(msg string)
}

type Deps struct {
	Capture     Capture
	Transcriber Transcriber
	Inserter    Inserter
	Indicator   Indicator
	Settings    Settings
	Status      StatusSink
	Notifier    Notifier

	// Fallback receives the text when there is nowhere to insert it.
	Fallback func(text string)
	Now      func() time.Time
}

// Controller runs the Idle -> Recording -> Processing -> Idle cycle. It is
// driven only through Toggle.
type Controller struct {
	deps Deps

	inFlight atomic.Bool

	mu     sync.Mutex
	status Status
	cycle  *cycle
	count  int
}

type cycle struct {
	id       string
	settings config.Settings
	started  time.Time
}

func New(deps Deps) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{deps: deps}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Completed reports how many cycles inserted text.
func (c *Controller) Completed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Toggle starts recording when idle and finishes the cycle when recording.
// A toggle arriving while another is still running returns ErrBusy.
func (c *Controller) Toggle(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		log.Info("toggle ignored: busy")
		return ErrBusy
	}
	defer c.inFlight.Store(false)

	switch c.Status() {
	case Idle:
		return c.start(ctx)
	case Recording:
		return c.finish(ctx)
	}
	return ErrBusy
}

func (c *Controller) start(ctx context.Context) error {
	settings := c.deps.Settings.Current()
	cy := &cycle{id: uuid.NewString()[:8], settings: settings, started: c.deps.Now()}
	if p, ok := c.deps.Capture.(interface{ SetPreferences([]encoder.Format) }); ok {
		p.SetPreferences(settings.Preferences())
	}

	if err := c.deps.Capture.Start(ctx); err != nil {
		c.fail(cy, "start", err)
		return err
	}

	c.mu.Lock()
	c.cycle = cy
	c.mu.Unlock()
	c.setStatus(cy, Recording)
	c.deps.Indicator.Show(indicator.Recording)
	return nil
}

func (c *Controller) finish(ctx context.Context) error {
	c.mu.Lock()
	cy := c.cycle
	c.mu.Unlock()

	payload, stopErr := c.deps.Capture.Stop()
	c.setStatus(cy, Processing)
	c.deps.Indicator.Show(indicator.Processing)
	defer func() {
		c.mu.Lock()
		c.cycle = nil
		c.mu.Unlock()
		c.setStatus(cy, Idle)
		c.deps.Indicator.Hide()
	}()

	if stopErr != nil {
		c.fail(cy, "stop", stopErr)
		return stopErr
	}

	name := Filename(c.deps.Now(), payload.Extension())
	log.Capture(cy.id, log.CaptureStats{
		Format:     string(payload.Format),
		Bytes:      payload.Len(),
		Frames:     payload.Frames,
		AudioS:     payload.Duration().Seconds(),
		RecordedMs: float64(c.deps.Now().Sub(cy.started).Milliseconds()),
		EncodeMs:   float64(payload.EncodeTime.Microseconds()) / 1000,
	})
	c.debug(cy, fmt.Sprintf("Sending audio data size: %s", humanize.Bytes(uint64(payload.Len()))))
	c.archive(cy, name, payload)

	c.debug(cy, "Parsing audio data: "+name)
	res, err := c.deps.Transcriber.Transcribe(ctx, payload, cy.settings.Options(name))
	if err != nil {
		c.fail(cy, "transcribe", err)
		return err
	}
	logTranscription(cy, res)

	out, err := c.deps.Inserter.ResolveAndInsert(res.Text)
	if err != nil {
		c.fail(cy, "insert", err)
		if errors.Is(err, target.ErrNoInsertionTarget) && c.deps.Fallback != nil {
			c.deps.Fallback(res.Text)
		}
		return err
	}
	log.Insertion(cy.id, out.Kind.String(), out.Element, out.Inserted)
	log.TranscriptionText(res.Text)
	c.debug(cy, "Inserted transcription into "+out.Kind.String())

	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	return nil
}

func (c *Controller) setStatus(cy *cycle, s Status) {
	c.mu.Lock()
	prev := c.status
	c.status = s
	c.mu.Unlock()
	if prev == s {
		return
	}
	log.Transition(cy.id, prev.name(), s.name())
	if c.deps.Status != nil {
		c.deps.Status.StatusChanged(s)
	}
}

func (c *Controller) fail(cy *cycle, step string, err error) {
	log.Failure(cy.id, step, err)
	if c.deps.Notifier == nil {
		return
	}
	msg := Notice(err)
	switch step {
	case "start":
		msg = "Error initializing recorder: " + err.Error()
	case "stop":
		msg = "Error finalizing recording: " + err.Error()
	}
	c.deps.Notifier.Notice(msg)
}

func (c *Controller) debug(cy *cycle, msg string) {
	if !cy.settings.DebugMode || c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.Notice(msg)
}

// archive keeps a copy of the payload when an archive directory is set.
// Failing to archive does not affect the cycle.
func (c *Controller) archive(cy *cycle, name string, p audio.Payload) {
	dir := cy.settings.ArchiveDir
	if dir == "" {
		return
	}
	path := filepath.Join(dir, name)
	err := os.MkdirAll(dir, 0o755)
	if err == nil {
		err = os.WriteFile(path, p.Data, 0o600)
	}
	if err != nil {
		log.Warnf("archive %s: %v", path, err)
		c.debug(cy, "Could not archive audio: "+err.Error())
		return
	}
	log.Info("archived " + path)
}

func logTranscription(cy *cycle, res transcriber.Result) {
	stats := log.TranscriptionStats{
		Model:     cy.settings.Model,
		Chars:     len(res.Text),
		RateLimit: res.RateLimit,
	}
	if m := res.Metrics; m != nil {
		ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
		stats.DNSTimeMs = ms(m.DNS)
		stats.TLSTimeMs = ms(m.TLS)
		stats.TTFBMs = ms(m.TTFB)
		stats.TotalTimeMs = ms(m.Total)
		stats.NetworkMs = ms(m.Sum())
		stats.ConnReused = m.ConnReused
		stats.TLSProtocol = m.TLSProtocol
	}
	log.Transcription(cy.id, stats)
}

var isoSeparators = strings.NewReplacer(":", "-", ".", "-")

// Filename is the name a payload is sent and archived under: the UTC
// timestamp in ISO-8601 with ':' and '.' replaced by '-'.
func Filename(t time.Time, ext string) string {
	return isoSeparators.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z")) + "." + ext
}

// Notice is the message shown for an error ending a cycle.
func Notice(err error) string {
	var remote *transcriber.RemoteError
	switch {
	case errors.Is(err, audio.ErrNoSupportedEncoding),
		errors.Is(err, audio.ErrDeviceUnavailable):
		return "Error initializing recorder: " + err.Error()
	case errors.Is(err, transcriber.ErrAuthenticationMissing):
		return "OpenAI client is not initialized. Please check your API key."
	case errors.Is(err, transcriber.ErrClientInit):
		return "Error initializing OpenAI client: " + err.Error()
	case errors.As(err, &remote):
		return "Error parsing audio: " + remote.Detail
	case errors.Is(err, target.ErrNoInsertionTarget):
		return "No text input found."
	}
	return "Error: " + err.Error()
}
