package surface

import (
	"testing"
)

func newDoc() (*Workspace, *Document) {
	w := NewWorkspace(Metrics{CellWidth: 10, LineHeight: 20})
	return w, w.NewDocument("note")
}

func TestFieldReplaceSelection(t *testing.T) {
	w, d := newDoc()
	f := d.AddField("title", Point{}, false)
	f.SetValue("hello world")
	w.Focus(f)
	f.SetSelectionRange(5, 5)

	inputs := 0
	f.OnInput(func() { inputs++ })

	pos := f.ReplaceSelection(" there")
	f.DispatchInput()

	if got := f.Value(); got != "hello there world" {
		t.Errorf("Value = %q", got)
	}
	if start, end := f.Selection(); start != 11 || end != 11 || pos != 11 {
		t.Errorf("selection = [%d,%d], pos %d; want [11,11]", start, end, pos)
	}
	if inputs != 1 {
		t.Errorf("input events = %d, want 1", inputs)
	}
	sel, ok := d.Selection()
	if !ok || !sel.Collapsed() || sel.Start.Offset != 11 {
		t.Errorf("document selection = %+v, %v", sel, ok)
	}
}

func TestFieldReplacesSelectedText(t *testing.T) {
	_, d := newDoc()
	f := d.AddField("title", Point{}, false)
	f.SetValue("one two three")
	f.SetSelectionRange(4, 7)
	f.ReplaceSelection("2\n")

	if got := f.Value(); got != "one 2  three" {
		t.Errorf("Value = %q, newline should become a space", got)
	}
}

func TestFieldSelectionClamped(t *testing.T) {
	_, d := newDoc()
	f := d.AddField("body", Point{}, true)
	f.SetValue("abc")
	f.SetSelectionRange(-4, 99)
	if s, e := f.Selection(); s != 0 || e != 3 {
		t.Errorf("selection = [%d,%d], want [0,3]", s, e)
	}
	f.Backspace()
	if f.Value() != "" {
		t.Errorf("Value = %q after deleting selection", f.Value())
	}
}

func TestRichRegionReplaceSelection(t *testing.T) {
	w, d := newDoc()
	r := d.AddRichRegion("notes", Point{}, true)
	r.SetText("hello ")
	r.AppendNode("world")
	w.Focus(r)
	r.Select(6, 11)

	if !r.ReplaceSelection("there") {
		t.Fatal("ReplaceSelection = false")
	}
	if got := r.Text(); got != "hello there" {
		t.Errorf("Text = %q", got)
	}
	start, end, ok := r.Selection()
	if !ok || start != 11 || end != 11 {
		t.Errorf("selection = [%d,%d] %v, want collapsed at 11", start, end, ok)
	}
	sel, _ := d.Selection()
	if sel.Start.Node.Text() != "there" {
		t.Errorf("caret node = %q, want the inserted node", sel.Start.Node.Text())
	}
}

func TestRichRegionInsertSplitsNode(t *testing.T) {
	_, d := newDoc()
	r := d.AddRichRegion("notes", Point{}, true)
	r.SetText("ab")
	r.Select(1, 1)
	r.ReplaceSelection("X")
	if got := r.Text(); got != "aXb" {
		t.Errorf("Text = %q", got)
	}
	if r.Nodes() != 3 {
		t.Errorf("Nodes = %d, want 3", r.Nodes())
	}
}

func TestRichRegionRequiresSelectionInside(t *testing.T) {
	_, d := newDoc()
	r := d.AddRichRegion("notes", Point{}, true)
	other := d.AddField("title", Point{}, false)
	other.SetValue("x")
	r.SetText("keep")

	if r.ReplaceSelection("nope") {
		t.Error("inserted without any selection")
	}
	d.SetSelection(Range{Start: Boundary{other.node(), 0}, End: Boundary{other.node(), 0}})
	if r.ReplaceSelection("nope") {
		t.Error("inserted with the selection in another element")
	}

	r.SetEditable(false)
	r.Select(0, 0)
	if r.ReplaceSelection("nope") {
		t.Error("inserted into a read-only region")
	}
	if r.Text() != "keep" {
		t.Errorf("Text = %q", r.Text())
	}
}

func TestEditorReplaceRange(t *testing.T) {
	w, d := newDoc()
	e := d.AddEditor("doc", Point{})
	e.SetValue("first\nsecond")
	w.Focus(e)
	e.SetCursor(Position{Line: 1, Ch: 3})

	e.ReplaceRange("ABC", e.Cursor())
	e.SetCursor(Position{Line: 1, Ch: 6})
	if got := e.Value(); got != "first\nsecABCond" {
		t.Errorf("Value = %q", got)
	}
	if c := e.Cursor(); c != (Position{Line: 1, Ch: 6}) {
		t.Errorf("Cursor = %+v", c)
	}

	e.ReplaceRange("x\ny", Position{Line: 0, Ch: 5})
	if got := e.Value(); got != "firstx\ny\nsecABCond" {
		t.Errorf("Value = %q", got)
	}

	e.SetCursor(Position{Line: 9, Ch: 99})
	if c := e.Cursor(); c != (Position{Line: 2, Ch: 9}) {
		t.Errorf("clamped Cursor = %+v", c)
	}
}

func TestEditorBackspaceJoinsLines(t *testing.T) {
	_, d := newDoc()
	e := d.AddEditor("doc", Point{})
	e.SetValue("ab\ncd")
	e.SetCursor(Position{Line: 1})
	e.Backspace()
	if got := e.Value(); got != "abcd" {
		t.Errorf("Value = %q", got)
	}
	if c := e.Cursor(); c != (Position{Line: 0, Ch: 2}) {
		t.Errorf("Cursor = %+v", c)
	}
}

func TestCaretRectCollapsedLeavesSelectionIntact(t *testing.T) {
	w, d := newDoc()
	r := d.AddRichRegion("notes", Point{X: 100, Y: 40}, true)
	r.SetText("hello\nworld")
	w.Focus(r)
	r.Select(8, 8)

	before, _ := d.Selection()
	nodes := r.Nodes()
	notified := 0
	d.OnSelectionChange(func() { notified++ })

	rect, ok := d.CaretRect()
	if !ok {
		t.Fatal("CaretRect ok = false")
	}
	want := Rect{X: 100 + 2*10, Y: 40 + 20, Width: 0, Height: 20}
	if rect != want {
		t.Errorf("rect = %+v, want %+v", rect, want)
	}

	after, _ := d.Selection()
	if after != before {
		t.Errorf("selection changed: %+v -> %+v", before, after)
	}
	if r.Nodes() != nodes || r.Text() != "hello\nworld" {
		t.Errorf("content changed: %d nodes, %q", r.Nodes(), r.Text())
	}
	if before.Start.Node.Text() != "hello\nworld" {
		t.Errorf("caret node text = %q, halves not merged", before.Start.Node.Text())
	}
	if notified != 0 {
		t.Errorf("selection listeners fired %d times during measurement", notified)
	}
}

func TestCaretRectAfterUnfocusedContentShrinks(t *testing.T) {
	_, d := newDoc()
	f := d.AddField("title", Point{X: 30, Y: 0}, false)
	f.SetValue("hello world")
	d.SetSelection(caret(Boundary{Node: f.node(), Offset: 5}))
	f.SetValue("")

	rect, ok := d.CaretRect()
	if !ok {
		t.Fatal("CaretRect ok = false")
	}
	if rect.X != 30 || rect.Width != 0 {
		t.Errorf("rect = %+v, want a caret at the field start", rect)
	}
	if f.Value() != "" {
		t.Errorf("Value = %q", f.Value())
	}

	e := d.AddEditor("doc", Point{})
	e.SetValue("one\ntwo")
	d.SetSelection(Range{Start: Boundary{Node: e.nodes[0], Offset: 1}, End: Boundary{Node: e.nodes[1], Offset: 3}})
	e.SetValue("x")
	if _, ok := d.CaretRect(); ok {
		t.Error("CaretRect ok = true for a selection on removed lines")
	}
}

func TestCaretRectEditorAndScroll(t *testing.T) {
	w, d := newDoc()
	e := d.AddEditor("doc", Point{X: 0, Y: 0})
	e.SetValue("one\ntwo three")
	w.Focus(e)
	e.SetCursor(Position{Line: 1, Ch: 4})
	d.SetScroll(Point{X: 0, Y: 10})

	rect, ok := d.CaretRect()
	if !ok {
		t.Fatal("CaretRect ok = false")
	}
	if want := (Rect{X: 40, Y: 20 - 10, Height: 20}); rect != want {
		t.Errorf("rect = %+v, want %+v", rect, want)
	}
	if e.LineCount() != 2 || e.Line(1) != "two three" {
		t.Errorf("editor lines changed: %d %q", e.LineCount(), e.Line(1))
	}
}

func TestCaretRectRange(t *testing.T) {
	w, d := newDoc()
	f := d.AddField("title", Point{X: 5, Y: 5}, false)
	f.SetValue("abcdef")
	w.Focus(f)
	f.SetSelectionRange(1, 4)

	rect, ok := d.CaretRect()
	if !ok {
		t.Fatal("CaretRect ok = false")
	}
	if want := (Rect{X: 15, Y: 5, Width: 30, Height: 20}); rect != want {
		t.Errorf("rect = %+v, want %+v", rect, want)
	}

	d.ClearSelection()
	if _, ok := d.CaretRect(); ok {
		t.Error("CaretRect ok = true without a selection")
	}
}

func TestSelectionListeners(t *testing.T) {
	w, d := newDoc()
	f := d.AddField("title", Point{}, false)
	calls := 0
	cancel := d.OnSelectionChange(func() { calls++ })

	w.Focus(f)
	f.ReplaceSelection("abc")
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	cancel()
	f.MoveCaret(-1)
	if calls != 2 || d.SelectionListeners() != 0 {
		t.Errorf("listener still attached: calls %d, listeners %d", calls, d.SelectionListeners())
	}
}

func TestActiveDocument(t *testing.T) {
	w := NewWorkspace(DefaultMetrics)
	if w.ActiveDocument() != nil {
		t.Fatal("empty workspace has an active document")
	}
	first := w.NewDocument("first")
	second := w.NewDocument("second")
	if w.ActiveDocument() != first {
		t.Error("want first document by default")
	}

	e := second.AddEditor("doc", Point{})
	w.SetActiveEditor(e)
	if w.ActiveDocument() != second {
		t.Error("want active editor's document")
	}

	f := first.AddField("title", Point{}, false)
	w.Focus(f)
	if w.ActiveDocument() != first || w.Focused() != Element(f) {
		t.Error("want focused element's document")
	}
	if w.ActiveEditor() != e {
		t.Error("focusing a field changed the active editor")
	}

	w.Focus(e)
	if _, ok := first.Selection(); ok {
		t.Error("blurred document kept its selection")
	}
}

func TestOverlayClick(t *testing.T) {
	_, d := newDoc()
	o := d.AddOverlay("recording", 24)
	o.MoveTo(Point{X: 100, Y: 50})
	clicks := 0
	o.SetOnClick(func() { clicks++ })

	if d.Click(Point{X: 10, Y: 10}) {
		t.Error("click outside hit the overlay")
	}
	if !d.Click(Point{X: 110, Y: 60}) || clicks != 1 {
		t.Errorf("click inside: clicks = %d", clicks)
	}

	o.SetOnClick(nil)
	d.Click(Point{X: 110, Y: 60})
	d.RemoveOverlay(o)
	if clicks != 1 || len(d.Overlays()) != 0 {
		t.Errorf("clicks = %d, overlays = %d", clicks, len(d.Overlays()))
	}
}
