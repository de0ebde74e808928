package canvas

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Kind names an annotation variant on the wire.
type Kind string

const (
	KindFreehand  Kind = "freehand"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindText      Kind = "text"
)

const (
	// EraserThreshold is how close, in pixels, the eraser must land.
	EraserThreshold = 20.0
	// MinDragDistance is the drag a shape needs on either axis to be kept.
	MinDragDistance = 5.0
	// A text label is hit when the point is less than textHitWidth away
	// from its anchor horizontally and less than textHitHeight vertically,
	// on either side.
	textHitWidth  = 50.0
	textHitHeight = 20.0
	// TextSize is the label font size used for bounds and rendering.
	TextSize = 16.0
)

// Annotation is one mark on the canvas. The set of implementations is
// closed: Freehand, Rectangle, Circle and Text.
type Annotation interface {
	Kind() Kind
	// ContainsPoint reports whether an eraser at p within threshold hits.
	ContainsPoint(p Point, threshold float64) bool
	// Committable reports whether the mark has enough extent to be kept.
	Committable() bool
	// Bounds is the normalized box the mark occupies.
	Bounds() Rect
	Stroke() string

	clone() Annotation
}

// Freehand is a polyline through sampled pointer positions.
type Freehand struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
}

func (f Freehand) Kind() Kind        { return KindFreehand }
func (f Freehand) Stroke() string    { return f.Color }
func (f Freehand) Committable() bool { return len(f.Points) >= 2 }

func (f Freehand) ContainsPoint(p Point, threshold float64) bool {
	for _, pt := range f.Points {
		if math.Abs(pt.X-p.X) < threshold && math.Abs(pt.Y-p.Y) < threshold {
			return true
		}
	}
	return false
}

func (f Freehand) Bounds() Rect {
	if len(f.Points) == 0 {
		return Rect{}
	}
	minX, minY := f.Points[0].X, f.Points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range f.Points[1:] {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (f Freehand) clone() Annotation {
	f.Points = append([]Point(nil), f.Points...)
	return f
}

// box is the geometry shared by Rectangle and Circle.
type box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color"`
}

func (b box) rect() Rect { return Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height} }

func (b box) committable() bool {
	return math.Abs(b.Width) > MinDragDistance || math.Abs(b.Height) > MinDragDistance
}

// hit tests p against the centre of the box, allowing at least threshold
// on each axis so thin shapes stay erasable.
func (b box) hit(p Point, threshold float64) bool {
	c := b.rect().Center()
	return math.Abs(p.X-c.X) < math.Max(math.Abs(b.Width)/2, threshold) &&
		math.Abs(p.Y-c.Y) < math.Max(math.Abs(b.Height)/2, threshold)
}

// Rectangle is a box anchored at the drag origin.
type Rectangle box

func (r Rectangle) Kind() Kind        { return KindRectangle }
func (r Rectangle) Stroke() string    { return r.Color }
func (r Rectangle) Committable() bool { return box(r).committable() }
func (r Rectangle) clone() Annotation { return r }

func (r Rectangle) ContainsPoint(p Point, threshold float64) bool {
	return box(r).hit(p, threshold)
}

func (r Rectangle) Bounds() Rect {
	return box(r).rect().Normalize()
}

// Circle is an ellipse inscribed in the dragged box.
type Circle box

func (c Circle) Kind() Kind        { return KindCircle }
func (c Circle) Stroke() string    { return c.Color }
func (c Circle) Committable() bool { return box(c).committable() }
func (c Circle) clone() Annotation { return c }

func (c Circle) ContainsPoint(p Point, threshold float64) bool {
	return box(c).hit(p, threshold)
}

func (c Circle) Bounds() Rect {
	return box(c).rect().Normalize()
}

// Text is a label whose baseline starts at (X, Y).
type Text struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
}

func (t Text) Kind() Kind        { return KindText }
func (t Text) Stroke() string    { return t.Color }
func (t Text) Committable() bool { return strings.TrimSpace(t.Text) != "" }
func (t Text) clone() Annotation { return t }

// ContainsPoint reports whether p is strictly within 50 px horizontally and
// 20 px vertically of the anchor, on either side: a 100×40 box centred on
// (X, Y). The eraser threshold does not apply to labels.
func (t Text) ContainsPoint(p Point, _ float64) bool {
	return math.Abs(p.X-t.X) < textHitWidth && math.Abs(p.Y-t.Y) < textHitHeight
}

func (t Text) Bounds() Rect {
	w := float64(utf8.RuneCountInString(t.Text)) * TextSize * 0.6
	return Rect{X: t.X, Y: t.Y - TextSize, Width: w, Height: TextSize * 1.25}
}

// wire is the tagged JSON form shared by every variant.
type wire struct {
	Type   Kind    `json:"type"`
	Points []Point `json:"points,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Text   string  `json:"text,omitempty"`
	Color  string  `json:"color"`
}

func (f Freehand) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindFreehand, Points: f.Points, Color: f.Color})
}

func (r Rectangle) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindRectangle, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Color: r.Color})
}

func (c Circle) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindCircle, X: c.X, Y: c.Y, Width: c.Width, Height: c.Height, Color: c.Color})
}

func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindText, X: t.X, Y: t.Y, Text: t.Text, Color: t.Color})
}

func (w wire) annotation() (Annotation, error) {
	switch w.Type {
	case KindFreehand:
		return Freehand{Points: w.Points, Color: w.Color}, nil
	case KindRectangle:
		return Rectangle{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height, Color: w.Color}, nil
	case KindCircle:
		return Circle{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height, Color: w.Color}, nil
	case KindText:
		return Text{X: w.X, Y: w.Y, Text: w.Text, Color: w.Color}, nil
	default:
		return nil, fmt.Errorf("unknown annotation type %q", w.Type)
	}
}

// List is an ordered annotation set that round-trips through JSON.
type List []Annotation

func (l *List) UnmarshalJSON(data []byte) error {
	var wires []wire
	if err := json.Unmarshal(data, &wires); err != nil {
		return err
	}
	out := make(List, 0, len(wires))
	for i, w := range wires {
		a, err := w.annotation()
		if err != nil {
			return fmt.Errorf("annotation %d: %w", i, err)
		}
		out = append(out, a)
	}
	*l = out
	return nil
}

// Bounds is the union of every annotation's bounds.
func (l List) Bounds() Rect {
	var r Rect
	for _, a := range l {
		r = r.Union(a.Bounds())
	}
	return r
}

func (l List) clone() List {
	if l == nil {
		return List{}
	}
	out := make(List, len(l))
	for i, a := range l {
		out[i] = a.clone()
	}
	return out
}
