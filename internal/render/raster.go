package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ziadkadry99/mindmap/internal/canvas"
)

// PixelDensity is the fixed number of bitmap pixels per canvas pixel.
const PixelDensity = 2.0

// Bitmap limits. A scene whose extent would exceed them is refused with
// ErrExportTooLarge before any pixels are allocated.
const (
	MaxBitmapSide   = 16384
	MaxBitmapPixels = 1 << 26
)

// ErrExportTooLarge rejects scenes whose bitmap would exceed the limits.
var ErrExportTooLarge = errors.New("export too large")

const (
	labelSize      = 13.0
	strokeWidth    = 2.0
	selectedWidth  = 4.0
	selectedStroke = "#2563eb"
	edgeColor      = "#94a3b8"
	maxLabelLines  = 2
)

var parseFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

func fontFace(size float64) (font.Face, error) {
	f, err := parseFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// painter draws scene coordinates onto a context, shifted so the extent
// starts at the origin and multiplied by the pixel density.
type painter struct {
	dc     *gg.Context
	origin canvas.Point
	scale  float64
}

func (p painter) pt(v canvas.Point) (float64, float64) {
	return (v.X - p.origin.X) * p.scale, (v.Y - p.origin.Y) * p.scale
}

func (p painter) size(v float64) float64 { return v * p.scale }

// BitmapSize returns the pixel dimensions Rasterize would allocate for s.
func BitmapSize(s Scene) (width, height int, err error) {
	ext := s.Extent()
	w := math.Ceil(ext.Width * PixelDensity)
	h := math.Ceil(ext.Height * PixelDensity)
	if math.IsNaN(w) || math.IsNaN(h) || w > MaxBitmapSide || h > MaxBitmapSide || w*h > MaxBitmapPixels {
		return 0, 0, fmt.Errorf("%w: %.0fx%.0f px exceeds %dx%d or %d pixels",
			ErrExportTooLarge, w, h, MaxBitmapSide, MaxBitmapSide, MaxBitmapPixels)
	}
	return int(w), int(h), nil
}

// Rasterize draws the whole scene at PixelDensity: edges, node boxes,
// labels, then the annotation overlay.
func Rasterize(s Scene) (image.Image, error) {
	width, height, err := BitmapSize(s)
	if err != nil {
		return nil, err
	}
	ext := s.Extent()
	scale := PixelDensity

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	labels, err := fontFace(labelSize * scale)
	if err != nil {
		return nil, err
	}
	annotationFace, err := fontFace(canvas.TextSize * scale)
	if err != nil {
		return nil, err
	}

	p := painter{dc: dc, origin: canvas.Point{X: ext.X, Y: ext.Y}, scale: scale}

	// Edges first so boxes cover their ends.
	dc.SetHexColor(edgeColor)
	dc.SetLineWidth(p.size(strokeWidth))
	for _, e := range s.Edges {
		x1, y1 := p.pt(e.From)
		x2, y2 := p.pt(e.To)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	dc.SetFontFace(labels)
	for _, b := range s.Boxes {
		p.drawBox(b)
	}

	dc.SetFontFace(annotationFace)
	for i, a := range s.Annotations {
		p.drawAnnotation(a, i == s.Selected)
	}
	return dc.Image(), nil
}

func (p painter) drawBox(b Box) {
	dc := p.dc
	x, y := p.pt(canvas.Point{X: b.X, Y: b.Y})
	w, h := p.size(NodeWidth), p.size(NodeHeight)

	dc.SetHexColor(b.Color)
	dc.DrawRoundedRectangle(x, y, w, h, p.size(8))
	dc.Fill()

	dc.SetColor(color.White)
	pad := p.size(10)
	lines := dc.WordWrap(b.Name, w-2*pad)
	if len(lines) > maxLabelLines {
		lines = lines[:maxLabelLines]
		lines[maxLabelLines-1] += "…"
	}
	lineHeight := dc.FontHeight() * 1.2
	top := y + h/2 - lineHeight*float64(len(lines))/2
	for i, line := range lines {
		dc.DrawStringAnchored(line, x+w/2, top+lineHeight*(float64(i)+0.5), 0.5, 0.35)
	}
}

func (p painter) drawAnnotation(a canvas.Annotation, selected bool) {
	dc := p.dc
	dc.SetHexColor(a.Stroke())
	dc.SetLineWidth(p.size(strokeWidth))
	if selected {
		dc.SetHexColor(selectedStroke)
		dc.SetLineWidth(p.size(selectedWidth))
	}

	switch v := a.(type) {
	case canvas.Freehand:
		for i, pt := range v.Points {
			x, y := p.pt(pt)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	case canvas.Rectangle:
		r := v.Bounds()
		x, y := p.pt(canvas.Point{X: r.X, Y: r.Y})
		dc.DrawRectangle(x, y, p.size(r.Width), p.size(r.Height))
		dc.Stroke()
	case canvas.Circle:
		r := v.Bounds()
		x, y := p.pt(r.Center())
		dc.DrawEllipse(x, y, p.size(r.Width/2), p.size(r.Height/2))
		dc.Stroke()
	case canvas.Text:
		x, y := p.pt(canvas.Point{X: v.X, Y: v.Y})
		dc.DrawString(v.Text, x, y)
	}
}
