// Package beep plays short audible cues for dictation state changes.
package beep

import (
	"math"
	"sync/atomic"
)

type Cue int

const (
	Start Cue = iota
	Stop
	Error
)

func (c Cue) String() string {
	switch c {
	case Stop:
		return "stop"
	case Error:
		return "error"
	}
	return "start"
}

var disabled atomic.Bool

// Disable silences every cue for the rest of the process.
func Disable() { disabled.Store(true) }

const sampleRate = 44100

type tone struct {
	freq     float64
	volume   float64
	decay    float64
	duration float64 // seconds per beep
	gap      float64 // seconds between repeats
	repeat   int
}

var tones = map[Cue]tone{
	// high pitch, short
	Start: {freq: 1200, volume: 0.5, decay: 60, duration: 0.12, repeat: 1},
	// medium pitch, slightly longer
	Stop: {freq: 900, volume: 0.5, decay: 40, duration: 0.15, repeat: 1},
	// low pitch double beep
	Error: {freq: 350, volume: 0.6, decay: 30, duration: 0.08, gap: 0.05, repeat: 2},
}

// samples renders a cue as mono 16-bit PCM at sampleRate.
func samples(c Cue) []int16 {
	t := tones[c]
	n := int(sampleRate * t.duration)
	gap := int(sampleRate * t.gap)
	out := make([]int16, 0, t.repeat*n+(t.repeat-1)*gap)
	for r := range t.repeat {
		if r > 0 {
			out = append(out, make([]int16, gap)...)
		}
		for i := range n {
			ts := float64(i) / sampleRate
			envelope := math.Exp(-ts * t.decay)
			out = append(out, int16(math.Sin(2*math.Pi*t.freq*ts)*32767*t.volume*envelope))
		}
	}
	return out
}

// Play starts the cue and returns without waiting for it to finish.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	play(c)
}
