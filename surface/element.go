package surface

// Element is one of *Field, *RichRegion or *Editor.
type Element interface {
	ID() string
	Document() *Document
	Origin() Point
	Text() string
	OnInput(fn func()) func()
	DispatchInput()

	base() *container
	caretLocked() (Range, bool)
	rememberLocked(r Range)
}
