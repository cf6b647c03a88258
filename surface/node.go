package surface

import "slices"

// Node is a run of text inside one element. Probe nodes carry no text and
// take no width.
type Node struct {
	text      []rune
	lineStart bool
	probe     bool
	owner     *container
}

func (n *Node) Text() string {
	n.owner.doc.mu.Lock()
	defer n.owner.doc.mu.Unlock()
	return string(n.text)
}

// Boundary is a position between two runes of a node.
type Boundary struct {
	Node   *Node
	Offset int
}

type Range struct {
	Start, End Boundary
}

func (r Range) Collapsed() bool { return r.Start == r.End }

func caret(b Boundary) Range { return Range{Start: b, End: b} }

// container is the node flow shared by every element kind. All fields are
// guarded by doc.mu.
type container struct {
	doc    *Document
	id     string
	origin Point
	nodes  []*Node
	inputs listeners
}

func (c *container) ID() string            { return c.id }
func (c *container) Document() *Document   { return c.doc }
func (c *container) Origin() Point         { return c.origin }
func (c *container) base() *container      { return c }
func (c *container) owns(b Boundary) bool  { return b.Node != nil && b.Node.owner == c }
func (c *container) indexOf(n *Node) int   { return slices.Index(c.nodes, n) }
func (c *container) newNode(s string) *Node { return &Node{text: []rune(s), owner: c} }

// OnInput registers fn to run after every content change made through an
// insertion. The returned func unregisters it.
func (c *container) OnInput(fn func()) func() {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	id := c.inputs.add(fn)
	return func() {
		c.doc.mu.Lock()
		c.inputs.remove(id)
		c.doc.mu.Unlock()
	}
}

// DispatchInput runs the input listeners outside the document lock.
func (c *container) DispatchInput() {
	c.doc.mu.Lock()
	fns := c.inputs.snapshot()
	c.doc.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *container) Text() string {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.textLocked()
}

func (c *container) textLocked() string {
	var out []rune
	for i, n := range c.nodes {
		if i > 0 && n.lineStart {
			out = append(out, '\n')
		}
		out = append(out, n.text...)
	}
	return string(out)
}

// offset flattens b into a rune offset over the element text.
func (c *container) offset(b Boundary) int {
	off := 0
	for i, n := range c.nodes {
		if i > 0 && n.lineStart {
			off++
		}
		if n == b.Node {
			return off + b.Offset
		}
		off += len(n.text)
	}
	return off
}

// boundary is the inverse of offset. Positions on a node edge resolve to
// the earlier node.
func (c *container) boundary(off int) Boundary {
	pos := 0
	for i, n := range c.nodes {
		if i > 0 && n.lineStart {
			pos++
		}
		if off <= pos+len(n.text) {
			return Boundary{Node: n, Offset: max(off-pos, 0)}
		}
		pos += len(n.text)
	}
	last := c.nodes[len(c.nodes)-1]
	return Boundary{Node: last, Offset: len(last.text)}
}

func (c *container) length() int {
	n := 0
	for i, node := range c.nodes {
		if i > 0 && node.lineStart {
			n++
		}
		n += len(node.text)
	}
	return n
}

// locate returns the line and column b falls on.
func (c *container) locate(b Boundary) (line, col int) {
	for i, n := range c.nodes {
		if i > 0 && n.lineStart {
			line++
			col = 0
		}
		end := len(n.text)
		if n == b.Node {
			end = b.Offset
		}
		for _, r := range n.text[:end] {
			if r == '\n' {
				line++
				col = 0
			} else {
				col++
			}
		}
		if n == b.Node {
			return line, col
		}
	}
	return line, col
}

func (c *container) widest() int {
	widest, col := 0, 0
	for i, n := range c.nodes {
		if i > 0 && n.lineStart {
			col = 0
		}
		for _, r := range n.text {
			if r == '\n' {
				col = 0
				continue
			}
			col++
			widest = max(widest, col)
		}
	}
	return widest
}

// span is the bounding box of the text between a and b in document
// coordinates.
func (c *container) span(a, b Boundary) Rect {
	m := c.doc.metrics
	l1, c1 := c.locate(a)
	l2, c2 := c.locate(b)
	if l2 < l1 || (l2 == l1 && c2 < c1) {
		l1, c1, l2, c2 = l2, c2, l1, c1
	}
	if l1 == l2 {
		return Rect{
			X:      c.origin.X + float64(c1)*m.CellWidth,
			Y:      c.origin.Y + float64(l1)*m.LineHeight,
			Width:  float64(c2-c1) * m.CellWidth,
			Height: m.LineHeight,
		}
	}
	return Rect{
		X:      c.origin.X,
		Y:      c.origin.Y + float64(l1)*m.LineHeight,
		Width:  float64(c.widest()) * m.CellWidth,
		Height: float64(l2-l1+1) * m.LineHeight,
	}
}

type listeners struct {
	next int
	fns  map[int]func()
}

func (l *listeners) add(fn func()) int {
	if l.fns == nil {
		l.fns = map[int]func(){}
	}
	l.next++
	l.fns[l.next] = fn
	return l.next
}

func (l *listeners) remove(id int) { delete(l.fns, id) }

func (l *listeners) len() int { return len(l.fns) }

func (l *listeners) snapshot() []func() {
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = l.fns[id]
	}
	return fns
}
