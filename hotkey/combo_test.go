package hotkey

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Combo
	}{
		{"", Default},
		{"ctrl+shift+space", Combo{Ctrl: true, Shift: true, Key: "space"}},
		{"Alt+D", Combo{Alt: true, Key: "d"}},
		{" control + option + 7 ", Combo{Ctrl: true, Alt: true, Key: "7"}},
		{"shift+F12", Combo{Shift: true, Key: "f12"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"space", "ctrl+shift", "ctrl+a+b", "ctrl+f13", "ctrl+f01", "ctrl+enter"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidCombo) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidCombo", in, err)
		}
	}
}

func TestComboString(t *testing.T) {
	if got := Default.String(); got != "Ctrl+Shift+Space" {
		t.Errorf("Default.String() = %q", got)
	}
	c, _ := Parse("alt+shift+k")
	if got := c.String(); got != "Shift+Alt+K" {
		t.Errorf("String() = %q", got)
	}
	again, err := Parse(c.String())
	if err != nil || again != c {
		t.Errorf("Parse(String()) = %+v, %v", again, err)
	}
}

func TestMatchesExactModifiers(t *testing.T) {
	if !Default.matches(true, true, false) {
		t.Error("ctrl+shift should match default")
	}
	if Default.matches(true, true, true) {
		t.Error("extra alt should not match default")
	}
	if Default.matches(true, false, false) {
		t.Error("missing shift should not match default")
	}
}

func TestFakeHotkey(t *testing.T) {
	hk := NewFake()
	if err := hk.Register(); err != nil {
		t.Fatal(err)
	}
	hk.SimKeydown()
	select {
	case <-hk.Keydown():
	default:
		t.Fatal("no keydown delivered")
	}
}
