// Package render lays out the visible part of a mind map and rasterizes it,
// together with its annotation overlay, into PNG, JPEG or PDF exports.
package render

import (
	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

// Layout metrics in canvas pixels.
const (
	NodeWidth  = 180.0
	NodeHeight = 56.0
	HGap       = 24.0
	VGap       = 64.0
	Margin     = 40.0
)

// Box is one laid-out node.
type Box struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Depth int     `json:"depth"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Rect returns the area the box covers.
func (b Box) Rect() canvas.Rect {
	return canvas.Rect{X: b.X, Y: b.Y, Width: NodeWidth, Height: NodeHeight}
}

// Edge connects the bottom of a parent box to the top of a child box.
type Edge struct {
	From canvas.Point `json:"from"`
	To   canvas.Point `json:"to"`
}

// Scene is everything an export draws.
type Scene struct {
	Title       string      `json:"title"`
	Boxes       []Box       `json:"boxes"`
	Edges       []Edge      `json:"edges"`
	Annotations canvas.List `json:"annotations"`
	Selected    int         `json:"selected"`
}

// Layout places every visible node of root top-down. Each parent is
// centred over the span of its children; collapsed branches take the room
// of a single node.
func Layout(root *tree.Node) Scene {
	s := Scene{Selected: -1}
	if root == nil {
		return s
	}
	s.Title = root.Name
	widths := make(map[*tree.Node]float64)
	measure(root, widths)
	s.place(root, Margin, widths)
	return s
}

func measure(n *tree.Node, widths map[*tree.Node]float64) float64 {
	w := NodeWidth
	if n.Visible() {
		sum := 0.0
		for i, child := range n.Children {
			if i > 0 {
				sum += HGap
			}
			sum += measure(child, widths)
		}
		if sum > w {
			w = sum
		}
	}
	widths[n] = w
	return w
}

func (s *Scene) place(n *tree.Node, left float64, widths map[*tree.Node]float64) Box {
	span := widths[n]
	b := Box{
		ID:    n.ID,
		Name:  n.Name,
		Depth: n.Depth,
		Color: tree.Color(n.Depth),
		X:     left + (span-NodeWidth)/2,
		Y:     Margin + float64(n.Depth)*(NodeHeight+VGap),
	}
	s.Boxes = append(s.Boxes, b)
	if !n.Visible() {
		return b
	}

	childrenWidth := -HGap
	for _, child := range n.Children {
		childrenWidth += widths[child] + HGap
	}
	x := left + (span-childrenWidth)/2
	for _, child := range n.Children {
		cb := s.place(child, x, widths)
		s.Edges = append(s.Edges, Edge{
			From: canvas.Point{X: b.X + NodeWidth/2, Y: b.Y + NodeHeight},
			To:   canvas.Point{X: cb.X + NodeWidth/2, Y: cb.Y},
		})
		x += widths[child] + HGap
	}
	return b
}

// Extent is the full area of the scene, including annotations drawn
// outside the tree, with a margin on every side. It never depends on what
// the viewport currently shows.
func (s Scene) Extent() canvas.Rect {
	var r canvas.Rect
	for _, b := range s.Boxes {
		r = r.Union(b.Rect())
	}
	r = r.Union(s.Annotations.Bounds())
	if r.Empty() {
		return canvas.Rect{Width: 2 * Margin, Height: 2 * Margin}
	}
	return canvas.Rect{
		X:      r.X - Margin,
		Y:      r.Y - Margin,
		Width:  r.Width + 2*Margin,
		Height: r.Height + 2*Margin,
	}
}

// Center returns the middle of node id's box.
func (s Scene) Center(id string) (canvas.Point, bool) {
	for _, b := range s.Boxes {
		if b.ID == id {
			return b.Rect().Center(), true
		}
	}
	return canvas.Point{}, false
}
