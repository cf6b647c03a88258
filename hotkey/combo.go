package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCombo = errors.New("invalid hotkey")

// Combo is a key pressed together with a set of modifiers.
type Combo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Key   string // lower case: a-z, 0-9, f1-f12 or space
}

var Default = Combo{Ctrl: true, Shift: true, Key: "space"}

// Parse reads combos like "ctrl+shift+space" or "Alt+D". An empty string
// yields Default.
func Parse(s string) (Combo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	var c Combo
	for _, part := range strings.Split(strings.ToLower(s), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		default:
			if c.Key != "" {
				return Combo{}, fmt.Errorf("%w %q: more than one key", ErrInvalidCombo, s)
			}
			if !validKey(part) {
				return Combo{}, fmt.Errorf("%w %q: unknown key %q", ErrInvalidCombo, s, part)
			}
			c.Key = part
		}
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("%w %q: no key", ErrInvalidCombo, s)
	}
	if !c.Ctrl && !c.Shift && !c.Alt {
		return Combo{}, fmt.Errorf("%w %q: needs a modifier", ErrInvalidCombo, s)
	}
	return c, nil
}

func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if c.Shift {
		parts = append(parts, "Shift")
	}
	if c.Alt {
		parts = append(parts, "Alt")
	}
	key := strings.ToUpper(c.Key)
	if c.Key == "space" {
		key = "Space"
	}
	return strings.Join(append(parts, key), "+")
}

// matches reports whether exactly the combo's modifiers are held.
func (c Combo) matches(ctrl, shift, alt bool) bool {
	return c.Ctrl == ctrl && c.Shift == shift && c.Alt == alt
}

func validKey(k string) bool {
	switch {
	case k == "space":
		return true
	case len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9'):
		return true
	case len(k) >= 2 && k[0] == 'f':
		var n int
		if _, err := fmt.Sscanf(k[1:], "%d", &n); err != nil || fmt.Sprint(n) != k[1:] {
			return false
		}
		return n >= 1 && n <= 12
	}
	return false
}
