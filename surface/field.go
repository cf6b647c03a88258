package surface

import (
	"slices"
	"strings"
)

// Field is a plain text input. Single-line fields drop newlines.
type Field struct {
	container
	multiline  bool
	start, end int
}

func (f *Field) node() *Node { return f.nodes[0] }

func (f *Field) Value() string { return f.Text() }

func (f *Field) clean(s string) string {
	if f.multiline {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// SetValue replaces the content and puts the caret at the end.
func (f *Field) SetValue(v string) {
	f.doc.mutate(func() bool {
		n := f.node()
		n.text = []rune(f.clean(v))
		f.start, f.end = len(n.text), len(n.text)
		return f.doc.syncLocked(f)
	})
}

// Selection returns the selected rune range; start == end is a caret.
func (f *Field) Selection() (start, end int) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return f.start, f.end
}

func (f *Field) SetSelectionRange(start, end int) {
	f.doc.mutate(func() bool {
		f.setLocked(start, end)
		return f.doc.syncLocked(f)
	})
}

func (f *Field) setLocked(start, end int) {
	size := len(f.node().text)
	f.end = min(max(end, 0), size)
	f.start = min(max(start, 0), f.end)
}

// ReplaceSelection splices text over the selection and leaves a caret
// right after it. It returns the new caret offset.
func (f *Field) ReplaceSelection(text string) int {
	var pos int
	f.doc.mutate(func() bool {
		n := f.node()
		ins := []rune(f.clean(text))
		n.text = slices.Concat(n.text[:f.start], ins, n.text[f.end:])
		pos = f.start + len(ins)
		f.start, f.end = pos, pos
		return f.doc.syncLocked(f)
	})
	return pos
}

// Backspace deletes the selection, or the rune before the caret.
func (f *Field) Backspace() {
	f.doc.mutate(func() bool {
		n := f.node()
		start := f.start
		if start == f.end {
			if start == 0 {
				return false
			}
			start--
		}
		n.text = slices.Concat(n.text[:start], n.text[f.end:])
		f.start, f.end = start, start
		return f.doc.syncLocked(f)
	})
}

// MoveCaret collapses the selection and moves the caret by delta runes.
func (f *Field) MoveCaret(delta int) {
	f.doc.mutate(func() bool {
		pos := f.end + delta
		f.setLocked(pos, pos)
		return f.doc.syncLocked(f)
	})
}

func (f *Field) caretLocked() (Range, bool) {
	n := f.node()
	return Range{Start: Boundary{n, f.start}, End: Boundary{n, f.end}}, true
}

func (f *Field) rememberLocked(r Range) {
	f.setLocked(min(r.Start.Offset, r.End.Offset), max(r.Start.Offset, r.End.Offset))
}
