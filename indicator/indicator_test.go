package indicator

import (
	"testing"

	"dictate/surface"
)

func setup() (*surface.Workspace, *surface.Document, *surface.Field) {
	w := surface.NewWorkspace(surface.Metrics{CellWidth: 10, LineHeight: 20})
	d := w.NewDocument("note")
	f := d.AddField("title", surface.Point{X: 100, Y: 200}, false)
	f.SetValue("hello")
	w.Focus(f)
	f.SetSelectionRange(2, 2)
	return w, d, f
}

func TestShowPositionsAboveCaret(t *testing.T) {
	w, d, _ := setup()
	ind := New(w)
	ind.Show(Recording)

	overlays := d.Overlays()
	if len(overlays) != 1 {
		t.Fatalf("overlays = %d, want 1", len(overlays))
	}
	want := surface.Point{X: 120 - Size/2, Y: 200 - Size - Gap}
	if got := overlays[0].Position(); got != want {
		t.Errorf("position = %+v, want %+v", got, want)
	}
	if overlays[0].Content() != "recording" {
		t.Errorf("content = %q", overlays[0].Content())
	}
}

func TestShowTwiceKeepsOneOverlay(t *testing.T) {
	w, d, _ := setup()
	ind := New(w)
	ind.Show(Recording)
	first := ind.Overlay()
	ind.Show(Recording)
	ind.Show(Processing)

	if len(d.Overlays()) != 1 || ind.Overlay() != first {
		t.Fatalf("overlays = %d, overlay replaced = %v", len(d.Overlays()), ind.Overlay() != first)
	}
	if kind, ok := ind.Visible(); !ok || kind != Processing || first.Content() != "processing" {
		t.Errorf("kind = %v visible %v content %q", kind, ok, first.Content())
	}
	if d.SelectionListeners() != 1 {
		t.Errorf("selection listeners = %d, want 1", d.SelectionListeners())
	}
}

func TestFollowsCaret(t *testing.T) {
	w, d, f := setup()
	ind := New(w)
	ind.Show(Recording)

	f.SetSelectionRange(5, 5)
	want := surface.Point{X: 150 - Size/2, Y: 200 - Size - Gap}
	if got := ind.Overlay().Position(); got != want {
		t.Errorf("position = %+v, want %+v", got, want)
	}

	d.SetScroll(surface.Point{Y: 50})
	f.SetSelectionRange(0, 0)
	// viewport rect moves up by the scroll and the scroll is added back
	want = surface.Point{X: 100 - Size/2, Y: 200 - Size - Gap}
	if got := ind.Overlay().Position(); got != want {
		t.Errorf("scrolled position = %+v, want %+v", got, want)
	}
}

func TestHide(t *testing.T) {
	w, d, f := setup()
	ind := New(w)
	ind.Hide()

	ind.Show(Recording)
	o := ind.Overlay()
	ind.Hide()
	ind.Hide()

	if len(d.Overlays()) != 0 || d.SelectionListeners() != 0 {
		t.Errorf("overlays = %d, listeners = %d", len(d.Overlays()), d.SelectionListeners())
	}
	if _, ok := ind.Visible(); ok {
		t.Error("still visible after Hide")
	}
	before := o.Position()
	f.SetSelectionRange(4, 4)
	if o.Position() != before {
		t.Error("hidden overlay still follows the caret")
	}
}

func TestClickStopsOnlyWhileRecording(t *testing.T) {
	w, d, _ := setup()
	ind := New(w)
	stops := 0
	ind.OnStop(func() { stops++ })

	ind.Show(Recording)
	hit := ind.Overlay().Bounds()
	at := surface.Point{X: hit.X + 1, Y: hit.Y + 1}
	if !d.Click(at) || stops != 1 {
		t.Fatalf("click while recording: stops = %d", stops)
	}

	ind.Show(Processing)
	d.Click(at)
	if stops != 1 {
		t.Errorf("click while processing stopped: stops = %d", stops)
	}

	ind.Hide()
	if d.Click(at) || stops != 1 {
		t.Errorf("click after hide: stops = %d", stops)
	}
}

func TestShowWithoutDocument(t *testing.T) {
	ind := New(surface.NewWorkspace(surface.DefaultMetrics))
	ind.Show(Recording)
	if _, ok := ind.Visible(); ok {
		t.Error("visible without any document")
	}
	ind.Hide()
}

func TestShowWithoutCaret(t *testing.T) {
	w := surface.NewWorkspace(surface.DefaultMetrics)
	d := w.NewDocument("empty")
	ind := New(w)
	ind.Show(Recording)
	if len(d.Overlays()) != 1 {
		t.Fatalf("overlays = %d", len(d.Overlays()))
	}
	if got := ind.Overlay().Position(); got != (surface.Point{}) {
		t.Errorf("position = %+v, want origin", got)
	}
}
