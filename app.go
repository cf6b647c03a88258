package main

import (
	"context"
	"errors"

	"dictate/audio"
	"dictate/clipboard"
	"dictate/indicator"
	"dictate/log"
	"dictate/session"
	"dictate/surface"
	"dictate/target"
)

// Notepad layout in cells. Each element's label sits on the row above it,
// and the rows above the title leave room for the indicator.
const (
	marginCol = 2
	titleRow  = 3
	notesRow  = 7
	editorRow = 13
)

func cell(col, row int) surface.Point {
	m := surface.DefaultMetrics
	return surface.Point{X: float64(col) * m.CellWidth, Y: float64(row) * m.LineHeight}
}

// app is the dictation host: a notepad document with one element of each
// kind, and the session wired to it.
type app struct {
	ctx context.Context

	ws     *surface.Workspace
	doc    *surface.Document
	title  *surface.Field
	notes  *surface.RichRegion
	editor *surface.Editor

	indicator *indicator.Indicator
	ctl       *session.Controller
	sink      *hostSink
}

type appConfig struct {
	Capture     session.Capture
	Transcriber session.Transcriber
	Settings    session.Settings
	Display     display
}

func newApp(ctx context.Context, cfg appConfig) *app {
	a := &app{ctx: ctx, ws: surface.NewWorkspace(surface.DefaultMetrics)}
	a.doc = a.ws.NewDocument("notepad")
	a.title = a.doc.AddField("title", cell(marginCol, titleRow), false)
	a.notes = a.doc.AddRichRegion("notes", cell(marginCol, notesRow), true)
	a.editor = a.doc.AddEditor("editor", cell(marginCol, editorRow))
	a.ws.SetActiveEditor(a.editor)

	a.indicator = indicator.New(a.ws)
	a.sink = newHostSink(cfg.Display)
	a.ctl = session.New(session.Deps{
		Capture:     cfg.Capture,
		Transcriber: cfg.Transcriber,
		Inserter:    target.NewResolver(a.ws),
		Indicator:   a.indicator,
		Settings:    cfg.Settings,
		Status:      a.sink,
		Notifier:    a.sink,
		Fallback:    a.fallback,
	})
	a.sink.completed = a.ctl.Completed
	a.sink.device = func() string { return recorderName(cfg.Capture) }
	a.indicator.OnStop(func() { go a.toggle() })

	for _, el := range a.doc.Elements() {
		el.OnInput(a.sink.changed)
	}
	a.doc.OnSelectionChange(a.sink.changed)
	return a
}

// toggle is what the hotkey and the in-app command both run.
func (a *app) toggle() {
	err := a.ctl.Toggle(a.ctx)
	if errors.Is(err, session.ErrBusy) {
		return
	}
	a.sink.changed()
}

// fallback keeps text that had nowhere to go on the clipboard.
func (a *app) fallback(text string) {
	if err := clipboard.Copy(text); err != nil {
		log.Warnf("clipboard fallback: %v", err)
		return
	}
	a.sink.Notice("Transcription copied to clipboard.")
}

// elements in tab order.
func (a *app) elements() []surface.Element {
	return []surface.Element{a.title, a.notes, a.editor}
}

func (a *app) element(id string) surface.Element {
	for _, el := range a.elements() {
		if el.ID() == id {
			return el
		}
	}
	return nil
}

// focus gives el keyboard focus and puts its caret at the end.
func (a *app) focus(el surface.Element) {
	a.ws.Focus(el)
	switch el := el.(type) {
	case *surface.Field:
		n := len([]rune(el.Value()))
		el.SetSelectionRange(n, n)
	case *surface.RichRegion:
		n := len([]rune(el.Text()))
		el.Select(n, n)
	case *surface.Editor:
		last := el.LineCount() - 1
		el.SetCursor(surface.Position{Line: last, Ch: len([]rune(el.Line(last)))})
	}
	a.sink.changed()
}

func (a *app) focusNext() {
	els := a.elements()
	next := els[0]
	if cur := a.ws.Focused(); cur != nil {
		for i, el := range els {
			if el == cur {
				next = els[(i+1)%len(els)]
			}
		}
	}
	a.focus(next)
}

func (a *app) blur() {
	a.ws.Blur()
	a.sink.changed()
}

// typeText inserts what the user typed into the focused element.
func (a *app) typeText(s string) {
	switch el := a.ws.Focused().(type) {
	case *surface.Field:
		el.ReplaceSelection(s)
	case *surface.RichRegion:
		el.ReplaceSelection(s)
	case *surface.Editor:
		cur := el.Cursor()
		el.ReplaceRange(s, cur)
		if s == "\n" {
			el.SetCursor(surface.Position{Line: cur.Line + 1})
		} else {
			el.SetCursor(surface.Position{Line: cur.Line, Ch: cur.Ch + len([]rune(s))})
		}
	default:
		return
	}
	a.sink.changed()
}

func (a *app) backspace() {
	switch el := a.ws.Focused().(type) {
	case *surface.Field:
		el.Backspace()
	case *surface.RichRegion:
		el.Backspace()
	case *surface.Editor:
		el.Backspace()
	}
	a.sink.changed()
}

func (a *app) moveCaret(lines, cols int) {
	switch el := a.ws.Focused().(type) {
	case *surface.Field:
		el.MoveCaret(cols)
	case *surface.RichRegion:
		el.MoveCaret(cols)
	case *surface.Editor:
		el.MoveCursor(lines, cols)
	}
	a.sink.changed()
}

// click handles a pointer press at p: the indicator first, then whichever
// element's rows contain p.
func (a *app) click(p surface.Point) {
	if a.doc.Click(p) {
		return
	}
	m := surface.DefaultMetrics
	row := int(p.Y / m.LineHeight)
	switch {
	case row >= editorRow:
		a.focus(a.editor)
	case row >= notesRow:
		a.focus(a.notes)
	case row >= titleRow:
		a.focus(a.title)
	default:
		a.blur()
	}
}

// recorderName reports the active input, if the capture exposes one.
func recorderName(c session.Capture) string {
	if r, ok := c.(*audio.Recorder); ok {
		return r.DeviceName()
	}
	return ""
}
