// Package surface models the editable documents dictation inserts into:
// plain text fields, free-form rich regions and a line-based editor,
// together with a document selection, a fixed-cell layout and overlays.
package surface

type Point struct{ X, Y float64 }

type Rect struct{ X, Y, Width, Height float64 }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Metrics is the fixed cell grid every element lays text out on.
type Metrics struct {
	CellWidth  float64
	LineHeight float64
}

var DefaultMetrics = Metrics{CellWidth: 8, LineHeight: 16}
