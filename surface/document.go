package surface

import (
	"slices"
	"sync"
)

// Document is one editable page: its elements, the single selection, the
// scroll offset and any overlays floating over it.
type Document struct {
	name    string
	metrics Metrics

	mu        sync.Mutex
	elements  []Element
	active    Element
	sel       Range
	hasSel    bool
	scroll    Point
	selection listeners
	overlays  []*Overlay
}

func NewDocument(name string, m Metrics) *Document {
	return &Document{name: name, metrics: m}
}

func (d *Document) Name() string     { return d.name }
func (d *Document) Metrics() Metrics { return d.metrics }

func (d *Document) Elements() []Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.elements)
}

func (d *Document) ActiveElement() Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *Document) AddField(id string, origin Point, multiline bool) *Field {
	f := &Field{multiline: multiline}
	f.nodes = []*Node{f.newNode("")}
	d.attach(&f.container, f, id, origin)
	return f
}

func (d *Document) AddRichRegion(id string, origin Point, editable bool) *RichRegion {
	r := &RichRegion{editable: editable}
	r.nodes = []*Node{r.newNode("")}
	d.attach(&r.container, r, id, origin)
	return r
}

func (d *Document) AddEditor(id string, origin Point) *Editor {
	e := &Editor{}
	e.nodes = []*Node{{lineStart: true, owner: &e.container}}
	d.attach(&e.container, e, id, origin)
	return e
}

func (d *Document) attach(c *container, el Element, id string, origin Point) {
	c.doc, c.id, c.origin = d, id, origin
	d.mu.Lock()
	d.elements = append(d.elements, el)
	d.mu.Unlock()
}

// Selection returns the current range; ok is false when nothing is selected.
func (d *Document) Selection() (r Range, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel, d.hasSel
}

// SetSelection replaces the selection. Boundaries outside this document
// are ignored.
func (d *Document) SetSelection(r Range) {
	d.mutate(func() bool {
		if !d.ownsLocked(r.Start) || !d.ownsLocked(r.End) {
			return false
		}
		d.sel, d.hasSel = r, true
		d.rememberLocked(r)
		return true
	})
}

func (d *Document) ClearSelection() {
	d.mutate(func() bool {
		if !d.hasSel {
			return false
		}
		d.sel, d.hasSel = Range{}, false
		return true
	})
}

// OnSelectionChange registers fn to run after every selection change. The
// returned func unregisters it.
func (d *Document) OnSelectionChange(fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.selection.add(fn)
	return func() {
		d.mu.Lock()
		d.selection.remove(id)
		d.mu.Unlock()
	}
}

// SelectionListeners reports how many selection listeners are registered.
func (d *Document) SelectionListeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection.len()
}

func (d *Document) Scroll() Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scroll
}

func (d *Document) SetScroll(p Point) {
	d.mu.Lock()
	d.scroll = p
	d.mu.Unlock()
}

// CaretRect returns the viewport rectangle of the selection. A collapsed
// selection has no extent of its own, so a zero-width probe node is placed
// at the caret and measured instead; the probe is gone again before this
// returns and the selection is left exactly as it was.
func (d *Document) CaretRect() (Rect, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasSel || !d.ownsLocked(d.sel.Start) || !d.ownsLocked(d.sel.End) {
		return Rect{}, false
	}
	// content may have shrunk under a selection its element did not own
	start, end := clampBoundary(d.sel.Start), clampBoundary(d.sel.End)
	c := start.Node.owner
	if start != end {
		return d.viewport(c.span(start, end)), true
	}

	probe, release := d.insertProbe(start)
	defer release()
	at := Boundary{Node: probe}
	return d.viewport(c.span(at, at)), true
}

// insertProbe splits the caret's node and puts a probe between the halves.
// release removes the probe, merges the halves back into the original node
// and restores the saved selection without notifying anyone.
func (d *Document) insertProbe(at Boundary) (*Node, func()) {
	saved := d.sel
	c := at.Node.owner
	head := at.Node
	tail := &Node{text: slices.Clone(head.text[at.Offset:]), owner: c}
	head.text = slices.Clone(head.text[:at.Offset])
	probe := &Node{probe: true, owner: c}
	i := c.indexOf(head)
	c.nodes = slices.Insert(c.nodes, i+1, probe, tail)
	d.sel = caret(Boundary{Node: probe})

	return probe, func() {
		j := c.indexOf(probe)
		c.nodes = slices.Delete(c.nodes, j, j+2)
		head.text = append(head.text, tail.text...)
		d.sel = saved
	}
}

func clampBoundary(b Boundary) Boundary {
	b.Offset = min(max(b.Offset, 0), len(b.Node.text))
	return b
}

func (d *Document) viewport(r Rect) Rect {
	r.X -= d.scroll.X
	r.Y -= d.scroll.Y
	return r
}

func (d *Document) ownsLocked(b Boundary) bool {
	return b.Node != nil && b.Node.owner.doc == d && slices.Contains(b.Node.owner.nodes, b.Node)
}

// mutate runs fn under the lock and, when fn reports a selection change,
// calls the selection listeners after unlocking.
func (d *Document) mutate(fn func() bool) {
	d.mu.Lock()
	var fns []func()
	if fn() {
		fns = d.selection.snapshot()
	}
	d.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

// syncLocked mirrors el's caret into the document selection when el has focus.
func (d *Document) syncLocked(el Element) bool {
	if d.active == nil || d.active.base() != el.base() {
		return false
	}
	r, ok := el.caretLocked()
	if !ok {
		return false
	}
	d.sel, d.hasSel = r, true
	return true
}

// rememberLocked lets the element owning r keep it as its caret.
func (d *Document) rememberLocked(r Range) {
	for _, el := range d.elements {
		if el.base() == r.Start.Node.owner {
			el.rememberLocked(r)
			return
		}
	}
}

func (d *Document) focus(el Element) {
	d.mutate(func() bool {
		d.active = el
		r, ok := el.caretLocked()
		if !ok {
			return false
		}
		d.sel, d.hasSel = r, true
		return true
	})
}

func (d *Document) blur() {
	d.mutate(func() bool {
		d.active = nil
		changed := d.hasSel
		d.sel, d.hasSel = Range{}, false
		return changed
	})
}
