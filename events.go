package main

import (
	"sync"

	"dictate/beep"
	"dictate/log"
	"dictate/session"
)

// display is the presentation layer: the TUI, or stdout in test mode.
// Its methods may be called from any goroutine.
type display interface {
	Status(session.Status)
	Notice(msg string)
	Redraw()
}

// hostSink receives session events and fans them out to the display,
// the audible cues and the log.
type hostSink struct {
	display   display
	completed func() int
	device    func() string

	mu     sync.Mutex
	before int // completed cycles when recording started
}

func newHostSink(d display) *hostSink {
	return &hostSink{display: d}
}

func (h *hostSink) StatusChanged(s session.Status) {
	switch s {
	case session.Recording:
		h.mu.Lock()
		h.before = h.count()
		h.mu.Unlock()
		if h.device != nil {
			if name := h.device(); name != "" {
				log.Info("recording_device: " + name)
			}
		}
		beep.Play(beep.Start)
	case session.Idle:
		h.mu.Lock()
		ok := h.count() > h.before
		h.mu.Unlock()
		if ok {
			beep.Play(beep.Stop)
		} else {
			beep.Play(beep.Error)
		}
	}
	h.display.Status(s)
}

func (h *hostSink) Notice(msg string) {
	log.Info("notice: " + msg)
	h.display.Notice(msg)
}

func (h *hostSink) changed() {
	h.display.Redraw()
}

func (h *hostSink) count() int {
	if h.completed == nil {
		return 0
	}
	return h.completed()
}
