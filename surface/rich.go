package surface

import "slices"

// RichRegion is free-form content made of any number of text nodes. Its
// selection is the document selection.
type RichRegion struct {
	container
	editable   bool
	start, end int // last selection inside the region, as flat offsets
}

func (r *RichRegion) SetEditable(v bool) {
	r.doc.mu.Lock()
	r.editable = v
	r.doc.mu.Unlock()
}

// Nodes reports how many text nodes the region holds.
func (r *RichRegion) Nodes() int {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	return len(r.nodes)
}

// SetText replaces the content with a single node.
func (r *RichRegion) SetText(s string) {
	r.doc.mutate(func() bool {
		inside := r.doc.hasSel && r.owns(r.doc.sel.Start)
		r.nodes = []*Node{r.newNode(s)}
		r.start, r.end = r.length(), r.length()
		if inside {
			r.doc.sel = caret(r.boundary(r.end))
			return true
		}
		return false
	})
}

// AppendNode adds s as a new text node at the end.
func (r *RichRegion) AppendNode(s string) {
	r.doc.mu.Lock()
	r.nodes = append(r.nodes, r.newNode(s))
	r.doc.mu.Unlock()
}

// Select sets the document selection to the flat rune range [start, end).
func (r *RichRegion) Select(start, end int) {
	r.doc.mutate(func() bool {
		r.clampLocked(start, end)
		r.doc.sel, r.doc.hasSel = Range{Start: r.boundary(r.start), End: r.boundary(r.end)}, true
		return true
	})
}

// Selection returns the document selection as flat offsets when it lies
// inside the region.
func (r *RichRegion) Selection() (start, end int, ok bool) {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	if !r.selectedLocked() {
		return 0, 0, false
	}
	a, b := r.offset(r.doc.sel.Start), r.offset(r.doc.sel.End)
	return min(a, b), max(a, b), true
}

func (r *RichRegion) selectedLocked() bool {
	return r.doc.hasSel && r.owns(r.doc.sel.Start) && r.owns(r.doc.sel.End)
}

// ReplaceSelection deletes the selected content, inserts text as a single
// new node and collapses the selection right after it. It reports false
// when the region is not editable or the selection is elsewhere.
func (r *RichRegion) ReplaceSelection(text string) bool {
	var ok bool
	r.doc.mutate(func() bool {
		if !r.editable || !r.selectedLocked() {
			return false
		}
		at := r.deleteLocked(r.doc.sel)
		n := r.insertLocked(at, text)
		end := Boundary{Node: n, Offset: len(n.text)}
		r.doc.sel = caret(end)
		r.start = r.offset(end)
		r.end = r.start
		ok = true
		return true
	})
	return ok
}

// Backspace deletes the selection, or the rune before a collapsed caret.
func (r *RichRegion) Backspace() {
	r.doc.mutate(func() bool {
		if !r.editable || !r.selectedLocked() {
			return false
		}
		sel := r.doc.sel
		if sel.Collapsed() {
			off := r.offset(sel.Start)
			if off == 0 {
				return false
			}
			sel.Start = r.boundary(off - 1)
		}
		at := r.deleteLocked(sel)
		r.doc.sel = caret(at)
		r.start = r.offset(at)
		r.end = r.start
		return true
	})
}

// MoveCaret collapses the selection and moves it by delta runes.
func (r *RichRegion) MoveCaret(delta int) {
	r.doc.mutate(func() bool {
		if !r.selectedLocked() {
			return false
		}
		pos := r.offset(r.doc.sel.End) + delta
		r.clampLocked(pos, pos)
		r.doc.sel = caret(r.boundary(r.end))
		return true
	})
}

func (r *RichRegion) clampLocked(start, end int) {
	size := r.length()
	start, end = min(start, end), max(start, end)
	r.start = min(max(start, 0), size)
	r.end = min(max(end, 0), size)
}

// deleteLocked removes the content of sel and returns where it started.
func (r *RichRegion) deleteLocked(sel Range) Boundary {
	s, e := sel.Start, sel.End
	if r.offset(e) < r.offset(s) {
		s, e = e, s
	}
	if s.Node == e.Node {
		s.Node.text = slices.Concat(s.Node.text[:s.Offset], s.Node.text[e.Offset:])
		return s
	}
	si, ei := r.indexOf(s.Node), r.indexOf(e.Node)
	s.Node.text = slices.Clone(s.Node.text[:s.Offset])
	e.Node.text = slices.Clone(e.Node.text[e.Offset:])
	r.nodes = slices.Delete(r.nodes, si+1, ei)
	return s
}

// insertLocked splits at's node and puts a new node holding text between
// the halves.
func (r *RichRegion) insertLocked(at Boundary, text string) *Node {
	n := r.newNode(text)
	i := r.indexOf(at.Node)
	tail := at.Node.text[at.Offset:]
	if len(tail) == 0 {
		r.nodes = slices.Insert(r.nodes, i+1, n)
		return n
	}
	rest := r.newNode(string(tail))
	at.Node.text = slices.Clone(at.Node.text[:at.Offset])
	r.nodes = slices.Insert(r.nodes, i+1, n, rest)
	return n
}

func (r *RichRegion) caretLocked() (Range, bool) {
	if len(r.nodes) == 0 {
		return Range{}, false
	}
	r.clampLocked(r.start, r.end)
	return Range{Start: r.boundary(r.start), End: r.boundary(r.end)}, true
}

func (r *RichRegion) rememberLocked(sel Range) {
	r.clampLocked(r.offset(sel.Start), r.offset(sel.End))
}
