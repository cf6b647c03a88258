package indicator

import (
	"sync"

	"dictate/surface"
)

const (
	Size = 24.0
	Gap  = 6.0
)

type Kind int

const (
	Recording Kind = iota
	Processing
)

func (k Kind) String() string {
	if k == Processing {
		return "processing"
	}
	return "recording"
}

// Host supplies the document that currently owns the caret.
type Host interface {
	ActiveDocument() *surface.Document
}

// Indicator keeps one overlay above the caret while dictation is active.
type Indicator struct {
	host Host

	mu          sync.Mutex
	doc         *surface.Document
	overlay     *surface.Overlay
	kind        Kind
	unsubscribe func()
	onStop      func()
}

func New(host Host) *Indicator {
	return &Indicator{host: host}
}

// OnStop sets the action run when the overlay is clicked while recording.
func (i *Indicator) OnStop(fn func()) {
	i.mu.Lock()
	i.onStop = fn
	i.mu.Unlock()
}

// Show displays the overlay in the given kind. An existing overlay changes
// kind in place and stays in the document it was created in.
func (i *Indicator) Show(kind Kind) {
	i.mu.Lock()
	if i.overlay != nil {
		if i.kind != kind {
			i.kind = kind
			i.overlay.SetContent(kind.String())
		}
		i.mu.Unlock()
		return
	}

	doc := i.host.ActiveDocument()
	if doc == nil {
		i.mu.Unlock()
		return
	}
	i.doc = doc
	i.kind = kind
	i.overlay = doc.AddOverlay(kind.String(), Size)
	i.overlay.SetOnClick(i.clicked)
	i.unsubscribe = doc.OnSelectionChange(i.reposition)
	i.mu.Unlock()

	i.reposition()
}

// Hide removes the overlay. It does nothing when none is shown.
func (i *Indicator) Hide() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.overlay == nil {
		return
	}
	i.unsubscribe()
	i.overlay.SetOnClick(nil)
	i.doc.RemoveOverlay(i.overlay)
	i.doc, i.overlay, i.unsubscribe = nil, nil, nil
}

// Visible reports whether an overlay is shown and in which kind.
func (i *Indicator) Visible() (Kind, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.kind, i.overlay != nil
}

// Overlay returns the overlay currently shown, or nil.
func (i *Indicator) Overlay() *surface.Overlay {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.overlay
}

// reposition centers the overlay horizontally on the caret and puts it
// just above it. Without a caret the overlay stays where it is.
func (i *Indicator) reposition() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.overlay == nil {
		return
	}
	rect, ok := i.doc.CaretRect()
	if !ok {
		return
	}
	scroll := i.doc.Scroll()
	i.overlay.MoveTo(Position(rect, scroll))
}

// Position is the overlay origin for a caret rect in viewport coordinates.
func Position(caret surface.Rect, scroll surface.Point) surface.Point {
	return surface.Point{
		X: caret.X + scroll.X + caret.Width/2 - Size/2,
		Y: caret.Y + scroll.Y - Size - Gap,
	}
}

func (i *Indicator) clicked() {
	i.mu.Lock()
	fn := i.onStop
	recording := i.overlay != nil && i.kind == Recording
	i.mu.Unlock()
	if recording && fn != nil {
		fn()
	}
}
