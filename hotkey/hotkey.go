package hotkey

// Hotkey delivers a keydown for every press of its combo and a keyup when
// the key is let go.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
