package doctor

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"dictate/audio"
	"dictate/config"
	"dictate/transcriber"
)

func testEnv(in string) (Env, *bytes.Buffer) {
	settings := config.Defaults()
	settings.APIKey = "sk-test"
	out := &bytes.Buffer{}
	return Env{
		Audio:       audio.NewFakeContext(make([]byte, 3200), false),
		Settings:    settings,
		Transcriber: transcriber.NewFake("testing one two\n", nil),
		In:          strings.NewReader(in),
		Out:         out,
	}, out
}

func TestCheckSettings(t *testing.T) {
	env, out := testEnv("")
	r := &runner{env: env}
	if !r.checkSettings() {
		t.Fatalf("settings check failed: %s", out)
	}

	env.Settings.APIKey = ""
	r = &runner{env: env}
	if r.checkSettings() {
		t.Error("missing key passed")
	}
	if !strings.Contains(out.String(), transcriber.ErrAuthenticationMissing.Error()) {
		t.Errorf("output = %q", out)
	}
}

func TestMicrophoneThenTranscription(t *testing.T) {
	env, out := testEnv("y\n")
	env.Confirm = true
	r := &runner{env: env, in: bufioReader(env)}

	if !r.checkMicrophone() {
		t.Fatalf("microphone check failed: %s", out)
	}
	if r.payload.Frames != 1600 {
		t.Errorf("frames = %d, want 1600", r.payload.Frames)
	}
	if !r.checkTranscription() {
		t.Fatalf("transcription check failed: %s", out)
	}
	if !strings.Contains(out.String(), "Transcribed text: testing one two") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out.String(), "verified by user") {
		t.Errorf("output = %q", out)
	}
}

func TestTranscriptionRejected(t *testing.T) {
	env, _ := testEnv("n\n")
	env.Confirm = true
	r := &runner{env: env, in: bufioReader(env)}
	if !r.checkMicrophone() {
		t.Fatal("microphone check failed")
	}
	if r.checkTranscription() {
		t.Error("unconfirmed transcription passed")
	}
}

func TestMicrophoneUnavailable(t *testing.T) {
	env, out := testEnv("")
	fake := audio.NewFakeContext(nil, false)
	fake.OpenErr = errors.New("busy")
	env.Audio = fake
	r := &runner{env: env}
	if r.checkMicrophone() {
		t.Fatal("unavailable microphone passed")
	}
	if !strings.Contains(out.String(), "FAIL") {
		t.Errorf("output = %q", out)
	}
}

func TestMicrophoneNoAudio(t *testing.T) {
	env, _ := testEnv("")
	env.Audio = audio.NewFakeContext(nil, false)
	r := &runner{env: env}
	if r.checkMicrophone() {
		t.Error("silent capture passed")
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	env, out := testEnv("")
	env.Settings.APIKey = ""
	if code := Run(env); code != 1 {
		t.Errorf("Run() = %d, want 1", code)
	}
	s := out.String()
	if !strings.Contains(s, "SKIP: no hotkey configured") {
		t.Errorf("hotkey check not skipped: %q", s)
	}
	if strings.Contains(s, "[3/5]") {
		t.Errorf("run continued past failing check: %q", s)
	}
}

func bufioReader(env Env) *bufio.Reader { return bufio.NewReader(env.In) }
