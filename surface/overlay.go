package surface

import "slices"

// Overlay is a square floating over a document at an absolute position.
type Overlay struct {
	doc     *Document
	content string
	pos     Point
	size    float64
	onClick func()
}

func (d *Document) AddOverlay(content string, size float64) *Overlay {
	o := &Overlay{doc: d, content: content, size: size}
	d.mu.Lock()
	d.overlays = append(d.overlays, o)
	d.mu.Unlock()
	return o
}

func (d *Document) RemoveOverlay(o *Overlay) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := slices.Index(d.overlays, o); i >= 0 {
		d.overlays = slices.Delete(d.overlays, i, i+1)
	}
}

func (d *Document) Overlays() []*Overlay {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.overlays)
}

// Click delivers a pointer press at p to the topmost overlay under it. The
// handler runs outside the document lock.
func (d *Document) Click(p Point) bool {
	d.mu.Lock()
	var handler func()
	for i := len(d.overlays) - 1; i >= 0; i-- {
		o := d.overlays[i]
		if o.boundsLocked().Contains(p) {
			handler = o.onClick
			break
		}
	}
	d.mu.Unlock()
	if handler == nil {
		return false
	}
	handler()
	return true
}

func (o *Overlay) Content() string {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	return o.content
}

func (o *Overlay) SetContent(s string) {
	o.doc.mu.Lock()
	o.content = s
	o.doc.mu.Unlock()
}

func (o *Overlay) Position() Point {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	return o.pos
}

func (o *Overlay) MoveTo(p Point) {
	o.doc.mu.Lock()
	o.pos = p
	o.doc.mu.Unlock()
}

func (o *Overlay) Bounds() Rect {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	return o.boundsLocked()
}

func (o *Overlay) boundsLocked() Rect {
	return Rect{X: o.pos.X, Y: o.pos.Y, Width: o.size, Height: o.size}
}

// SetOnClick installs the click handler; nil detaches it.
func (o *Overlay) SetOnClick(fn func()) {
	o.doc.mu.Lock()
	o.onClick = fn
	o.doc.mu.Unlock()
}
