package surface

import (
	"slices"
	"strings"
)

// Position addresses a rune in the editor by line and column.
type Position struct {
	Line, Ch int
}

// Editor is a line-oriented document editor with a single cursor. Each
// line is one node.
type Editor struct {
	container
	cursor Position
}

func (e *Editor) SetValue(s string) {
	e.doc.mutate(func() bool {
		lines := strings.Split(s, "\n")
		e.nodes = e.nodes[:0]
		for _, l := range lines {
			e.nodes = append(e.nodes, &Node{text: []rune(l), lineStart: true, owner: &e.container})
		}
		e.cursor = e.clampLocked(e.cursor)
		return e.doc.syncLocked(e)
	})
}

func (e *Editor) Value() string { return e.Text() }

func (e *Editor) LineCount() int {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return len(e.nodes)
}

func (e *Editor) Line(i int) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if i < 0 || i >= len(e.nodes) {
		return ""
	}
	return string(e.nodes[i].text)
}

func (e *Editor) Cursor() Position {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.cursor
}

// SetCursor moves the cursor, clamping it into the document.
func (e *Editor) SetCursor(p Position) {
	e.doc.mutate(func() bool {
		e.cursor = e.clampLocked(p)
		return e.doc.syncLocked(e)
	})
}

// ReplaceRange inserts text at p. Newlines in text split the line. The
// cursor is not moved.
func (e *Editor) ReplaceRange(text string, p Position) {
	e.doc.mutate(func() bool {
		p = e.clampLocked(p)
		line := e.nodes[p.Line]
		parts := strings.Split(text, "\n")
		if len(parts) == 1 {
			line.text = slices.Concat(line.text[:p.Ch], []rune(text), line.text[p.Ch:])
		} else {
			tail := slices.Concat([]rune(parts[len(parts)-1]), line.text[p.Ch:])
			line.text = slices.Concat(line.text[:p.Ch], []rune(parts[0]))
			added := make([]*Node, 0, len(parts)-1)
			for _, part := range parts[1 : len(parts)-1] {
				added = append(added, &Node{text: []rune(part), lineStart: true, owner: &e.container})
			}
			added = append(added, &Node{text: tail, lineStart: true, owner: &e.container})
			e.nodes = slices.Insert(e.nodes, p.Line+1, added...)
		}
		e.cursor = e.clampLocked(e.cursor)
		return e.doc.syncLocked(e)
	})
}

// Backspace deletes the rune before the cursor, joining lines at column 0.
func (e *Editor) Backspace() {
	e.doc.mutate(func() bool {
		c := e.cursor
		switch {
		case c.Ch > 0:
			line := e.nodes[c.Line]
			line.text = slices.Delete(slices.Clone(line.text), c.Ch-1, c.Ch)
			e.cursor.Ch--
		case c.Line > 0:
			prev := e.nodes[c.Line-1]
			ch := len(prev.text)
			prev.text = append(prev.text, e.nodes[c.Line].text...)
			e.nodes = slices.Delete(e.nodes, c.Line, c.Line+1)
			e.cursor = Position{Line: c.Line - 1, Ch: ch}
		default:
			return false
		}
		return e.doc.syncLocked(e)
	})
}

// MoveCursor shifts the cursor by lines and columns, clamped.
func (e *Editor) MoveCursor(lines, chs int) {
	e.doc.mutate(func() bool {
		e.cursor = e.clampLocked(Position{Line: e.cursor.Line + lines, Ch: e.cursor.Ch + chs})
		return e.doc.syncLocked(e)
	})
}

func (e *Editor) clampLocked(p Position) Position {
	p.Line = min(max(p.Line, 0), len(e.nodes)-1)
	p.Ch = min(max(p.Ch, 0), len(e.nodes[p.Line].text))
	return p
}

func (e *Editor) caretLocked() (Range, bool) {
	c := e.clampLocked(e.cursor)
	return caret(Boundary{Node: e.nodes[c.Line], Offset: c.Ch}), true
}

func (e *Editor) rememberLocked(r Range) {
	line := slices.Index(e.nodes, r.End.Node)
	if line < 0 {
		return
	}
	e.cursor = e.clampLocked(Position{Line: line, Ch: r.End.Offset})
}
