//go:build !linux

package hotkey

import (
	"fmt"

	"golang.design/x/hotkey"
)

var keys = map[string]hotkey.Key{
	"space": hotkey.KeySpace,
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

type xHotkey struct {
	combo   Combo
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
}

func New(c Combo) Hotkey {
	h := &xHotkey{
		combo:   c,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
	if key, ok := keys[c.Key]; ok {
		var mods []hotkey.Modifier
		if c.Ctrl {
			mods = append(mods, hotkey.ModCtrl)
		}
		if c.Shift {
			mods = append(mods, hotkey.ModShift)
		}
		if c.Alt {
			mods = append(mods, modAlt)
		}
		h.hk = hotkey.New(mods, key)
	}
	return h
}

func (h *xHotkey) Register() error {
	if h.hk == nil {
		return fmt.Errorf("%w: %s", ErrInvalidCombo, h.combo)
	}
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for range h.hk.Keydown() {
			select {
			case h.keydown <- struct{}{}:
			default:
			}
		}
	}()
	go func() {
		for range h.hk.Keyup() {
			select {
			case h.keyup <- struct{}{}:
			default:
			}
		}
	}()
	return nil
}

func (h *xHotkey) Unregister() {
	if h.hk != nil {
		h.hk.Unregister()
	}
}

func (h *xHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *xHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func Diagnose() (string, error) {
	return "global hotkey support available", nil
}
