package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"dictate/audio"
	"dictate/clipboard"
	"dictate/config"
	"dictate/hotkey"
	"dictate/shutdown"
	"dictate/transcriber"
)

type Transcriber interface {
	Transcribe(ctx context.Context, payload audio.Payload, opts transcriber.Options) (transcriber.Result, error)
}

// Env is everything the checks touch. A nil Hotkey skips the hotkey check.
type Env struct {
	Audio       audio.Context
	Settings    config.Settings
	Transcriber Transcriber
	Hotkey      hotkey.Hotkey
	Combo       hotkey.Combo
	Record      time.Duration

	// Confirm asks the user whether the transcription is right.
	Confirm bool
	In      io.Reader
	Out     io.Writer
}

type runner struct {
	env     Env
	in      *bufio.Reader
	payload audio.Payload
}

type check struct {
	title string
	run   func(*runner) bool
}

var checks = []check{
	{"Hotkey detection", (*runner).checkHotkey},
	{"Settings", (*runner).checkSettings},
	{"Microphone and encoding", (*runner).checkMicrophone},
	{"Transcription", (*runner).checkTranscription},
	{"Clipboard fallback", (*runner).checkClipboard},
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		resetTerminal()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	}()
}

// Run executes the diagnostic checks in order and returns an exit code
// (0=all pass, 1=any fail). A failing check stops the run.
func Run(env Env) int {
	resetTerminal()
	setupInterruptHandler()

	r := &runner{env: env, in: bufio.NewReader(env.In)}
	r.printf("dictate doctor - interactive system diagnostics\n")
	r.printf("===============================================\n")

	allPass := true
	for i, c := range checks {
		r.printf("\n[%d/%d] %s\n", i+1, len(checks), c.title)
		if !c.run(r) {
			allPass = false
			break
		}
	}

	r.printf("\n")
	if allPass {
		r.printf("All checks passed!\n")
		return 0
	}
	r.printf("Some checks failed. See details above.\n")
	return 1
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.env.Out, format, args...)
}

func (r *runner) pass(format string, args ...any) bool {
	r.printf("  PASS: "+format+"\n", args...)
	return true
}

func (r *runner) fail(format string, args ...any) bool {
	r.printf("  FAIL: "+format+"\n", args...)
	return false
}

func (r *runner) checkHotkey() bool {
	hk := r.env.Hotkey
	if hk == nil {
		r.printf("  SKIP: no hotkey configured\n")
		return true
	}
	msg, err := hotkey.Diagnose()
	if err != nil {
		return r.fail("%v", err)
	}
	r.printf("  %s\n", msg)
	r.printf("Press %s...\n", r.env.Combo)

	if err := hk.Register(); err != nil {
		return r.fail("could not register hotkey: %v", err)
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// the hotkey may leave the terminal in raw mode
		resetTerminal()
		return r.pass("hotkey detected")
	case <-time.After(10 * time.Second):
		return r.fail("timeout waiting for hotkey")
	}
}

func (r *runner) checkSettings() bool {
	s := r.env.Settings
	if err := transcriber.Validate(s.Options("")); err != nil {
		return r.fail("%v", err)
	}
	return r.pass("model %s, language %s", s.Model, firstNonEmpty(s.Language, "auto"))
}

func (r *runner) checkMicrophone() bool {
	ctx := r.env.Audio
	if ctx == nil {
		return r.fail("no audio backend")
	}
	devices, err := ctx.Devices()
	if err != nil {
		return r.fail("cannot list devices: %v", err)
	}
	if len(devices) == 0 {
		return r.fail("no capture devices found")
	}
	device, err := audio.FindDevice(ctx, r.env.Settings.Device)
	if err != nil {
		return r.fail("%v", err)
	}

	rec := audio.NewRecorder(ctx, audio.RecorderConfig{
		Device:      device,
		Preferences: r.env.Settings.Preferences(),
	})
	if err := rec.Start(context.Background()); err != nil {
		return r.fail("%v", err)
	}
	r.printf("  Recording from %s (%s)", rec.DeviceName(), rec.Format())
	if r.env.Record > 0 {
		ticker := time.NewTicker(500 * time.Millisecond)
		deadline := time.After(r.env.Record)
	wait:
		for {
			select {
			case <-ticker.C:
				r.printf(".")
			case <-deadline:
				break wait
			}
		}
		ticker.Stop()
	}
	r.printf(" done\n")

	payload, err := rec.Stop()
	if err != nil {
		return r.fail("recording error: %v", err)
	}
	if payload.Frames == 0 {
		return r.fail("no audio captured")
	}
	r.payload = payload
	return r.pass("%s of %s audio, %s", payload.Format, payload.Duration().Round(10*time.Millisecond), humanize.Bytes(uint64(payload.Len())))
}

func (r *runner) checkTranscription() bool {
	opts := r.env.Settings.Options("doctor." + r.payload.Extension())
	res, err := r.env.Transcriber.Transcribe(context.Background(), r.payload, opts)
	if err != nil {
		return r.fail("transcription error: %v", err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		text = "(no speech detected)"
	}
	r.printf("\n  Transcribed text: %s\n", text)
	if m := res.Metrics; m != nil {
		r.printf("  Request took %s\n", m.Total.Round(time.Millisecond))
	}
	if !r.env.Confirm {
		return r.pass("transcription received")
	}

	r.printf("\nIs this correct? [y/n]: ")
	answer, _ := r.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "y" || answer == "yes" {
		return r.pass("transcription verified by user")
	}
	return r.fail("transcription not confirmed")
}

func (r *runner) checkClipboard() bool {
	if !clipboard.Available() {
		return r.fail("%v", clipboard.ErrUnavailable)
	}
	prev, _ := clipboard.Read()
	defer clipboard.Copy(prev)

	sentinel := "dictate-doctor-test"
	if err := clipboard.Copy(sentinel); err != nil {
		return r.fail("clipboard copy failed: %v", err)
	}
	got, err := clipboard.Read()
	if err != nil {
		return r.fail("could not read clipboard: %v", err)
	}
	if got != sentinel {
		return r.fail("clipboard round trip got %q, want %q", got, sentinel)
	}
	return r.pass("clipboard available for text with no input to go to")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
