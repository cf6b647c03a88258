package surface

import "sync"

// Workspace holds the open documents, the process-wide focus and the
// editor that was used last.
type Workspace struct {
	metrics Metrics

	mu      sync.Mutex
	docs    []*Document
	focused Element
	editor  *Editor
}

func NewWorkspace(m Metrics) *Workspace {
	return &Workspace{metrics: m}
}

func (w *Workspace) NewDocument(name string) *Document {
	d := NewDocument(name, w.metrics)
	w.mu.Lock()
	w.docs = append(w.docs, d)
	w.mu.Unlock()
	return d
}

// Focus moves keyboard focus to el. Focusing an editor also makes it the
// active editor.
func (w *Workspace) Focus(el Element) {
	if el == nil {
		w.Blur()
		return
	}
	w.mu.Lock()
	prev := w.focused
	w.focused = el
	if ed, ok := el.(*Editor); ok {
		w.editor = ed
	}
	w.mu.Unlock()

	if prev != nil && prev.Document() != el.Document() {
		prev.Document().blur()
	}
	el.Document().focus(el)
}

func (w *Workspace) Blur() {
	w.mu.Lock()
	prev := w.focused
	w.focused = nil
	w.mu.Unlock()
	if prev != nil {
		prev.Document().blur()
	}
}

// Focused returns the element with keyboard focus, or nil.
func (w *Workspace) Focused() Element {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *Workspace) SetActiveEditor(e *Editor) {
	w.mu.Lock()
	w.editor = e
	w.mu.Unlock()
}

// ActiveEditor returns the editor that last had focus, or nil.
func (w *Workspace) ActiveEditor() *Editor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editor
}

// ActiveDocument is the document owning the caret: the focused element's,
// else the active editor's, else the first one opened.
func (w *Workspace) ActiveDocument() *Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.focused != nil:
		return w.focused.Document()
	case w.editor != nil:
		return w.editor.Document()
	case len(w.docs) > 0:
		return w.docs[0]
	}
	return nil
}
