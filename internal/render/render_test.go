package render

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

func node(id string, depth int, children ...*tree.Node) *tree.Node {
	n := &tree.Node{ID: id, Name: "Topic " + id, Depth: depth, State: tree.NotFetched}
	if children != nil {
		n.Children = children
		n.State = tree.Fetched
		n.Expanded = true
	}
	return n
}

func wideTree(n int) *tree.Node {
	var children []*tree.Node
	for i := 0; i < n; i++ {
		children = append(children, node(fmt.Sprintf("c%d", i), 1))
	}
	return node("root", 0, children...)
}

func TestLayoutCentresParentOverChildren(t *testing.T) {
	root := node("root", 0, node("a", 1), node("b", 1))
	s := Layout(root)

	require.Len(t, s.Boxes, 3)
	require.Len(t, s.Edges, 2)
	assert.Equal(t, "Topic root", s.Title)

	a, _ := s.Center("a")
	b, _ := s.Center("b")
	r, _ := s.Center("root")
	assert.InDelta(t, (a.X+b.X)/2, r.X, 0.001)
	assert.Greater(t, a.Y, r.Y)
	assert.Equal(t, NodeWidth+HGap, b.X-a.X)
	assert.Equal(t, tree.Color(1), s.Boxes[1].Color)
}

func TestLayoutSkipsCollapsedBranches(t *testing.T) {
	hidden := node("a", 1, node("a1", 2), node("a2", 2))
	hidden.Expanded = false
	s := Layout(node("root", 0, hidden, node("b", 1)))

	assert.Len(t, s.Boxes, 3)
	_, ok := s.Center("a1")
	assert.False(t, ok)
}

func TestExtentCoversAnnotationsOutsideTree(t *testing.T) {
	s := Layout(node("root", 0))
	before := s.Extent()

	s.Annotations = canvas.List{canvas.Rectangle{X: -300, Y: 500, Width: 50, Height: 50}}
	after := s.Extent()
	assert.Less(t, after.X, before.X)
	assert.Greater(t, after.Height, before.Height)
}

func TestRasterizeCoversFullExtent(t *testing.T) {
	s := Layout(wideTree(10))
	ext := s.Extent()
	require.Greater(t, ext.Width, 10*NodeWidth)

	img, err := Rasterize(s)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, float64(img.Bounds().Dx()), PixelDensity*ext.Width)
	assert.GreaterOrEqual(t, float64(img.Bounds().Dy()), PixelDensity*ext.Height)
}

func TestRasterizeDrawsAnnotations(t *testing.T) {
	s := Layout(node("root", 0))
	s.Annotations = canvas.List{
		canvas.Freehand{Points: []canvas.Point{{X: 0, Y: 200}, {X: 100, Y: 220}}, Color: "#000000"},
		canvas.Circle{X: 10, Y: 10, Width: -40, Height: 30, Color: "#ff0000"},
		canvas.Text{X: 20, Y: 180, Text: "note", Color: "#00ff00"},
	}
	s.Selected = 1
	img, err := Rasterize(s)
	require.NoError(t, err)
	assert.NotZero(t, img.Bounds().Dx())
}

func TestRasterizeRefusesOversizedScene(t *testing.T) {
	tests := []struct {
		name string
		far  canvas.Point
	}{
		{"moderate", canvas.Point{X: 40000, Y: 40000}},
		{"one side", canvas.Point{X: 20000, Y: 0}},
		{"extreme", canvas.Point{X: 1e12, Y: 1e12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Layout(node("root", 0))
			s.Annotations = canvas.List{
				canvas.Text{X: 0, Y: 0, Text: "here"},
				canvas.Text{X: tt.far.X, Y: tt.far.Y, Text: "there"},
			}
			_, _, err := BitmapSize(s)
			assert.ErrorIs(t, err, ErrExportTooLarge)

			img, err := Rasterize(s)
			assert.ErrorIs(t, err, ErrExportTooLarge)
			assert.Nil(t, img)
		})
	}
}

func TestBitmapSizeAtLimit(t *testing.T) {
	s := Layout(node("root", 0))
	// Extent adds a margin on both sides of the annotation bounds.
	side := MaxBitmapSide/PixelDensity - 2*Margin
	s.Annotations = canvas.List{canvas.Rectangle{X: 0, Y: 0, Width: side, Height: 10}}
	w, h, err := BitmapSize(s)
	require.NoError(t, err)
	assert.LessOrEqual(t, w, MaxBitmapSide)
	assert.Less(t, h, MaxBitmapSide)
}

type recorded struct {
	format string
	err    error
}

type fakeRecorder struct{ calls []recorded }

func (f *fakeRecorder) ObserveExport(format string, _ time.Duration, err error) {
	f.calls = append(f.calls, recorded{format, err})
}

func TestExportFormats(t *testing.T) {
	rec := &fakeRecorder{}
	e := NewExporter(zaptest.NewLogger(t), WithExportRecorder(rec))
	s := Layout(wideTree(3))
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, e.Export(ctx, s, FormatPNG, &buf))
	_, err := png.Decode(&buf)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, e.Export(ctx, s, FormatJPEG, &buf))
	_, err = jpeg.Decode(&buf)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, e.Export(ctx, s, FormatPDF, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	require.Len(t, rec.calls, 3)
	assert.Equal(t, "pdf", rec.calls[2].format)
	assert.False(t, e.Busy())
}

func TestExportUsesFixedDensity(t *testing.T) {
	s := Layout(wideTree(3))
	ext := s.Extent()

	var buf bytes.Buffer
	require.NoError(t, NewExporter(nil).Export(context.Background(), s, FormatPNG, &buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, int(math.Ceil(ext.Width*2)), img.Bounds().Dx())
	assert.Equal(t, int(math.Ceil(ext.Height*2)), img.Bounds().Dy())
}

func TestExportBusy(t *testing.T) {
	e := NewExporter(nil)
	e.busy.Store(true)

	var buf bytes.Buffer
	err := e.Export(context.Background(), Layout(node("root", 0)), FormatPNG, &buf)
	assert.ErrorIs(t, err, ErrExportBusy)
	assert.Zero(t, buf.Len())
}

func TestExportFailureWritesNothing(t *testing.T) {
	rec := &fakeRecorder{}
	e := NewExporter(zaptest.NewLogger(t), WithExportRecorder(rec))
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gif")

	err := e.WriteFile(context.Background(), Layout(node("root", 0)), Format("gif"), path)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.Len(t, rec.calls, 1)
	assert.Error(t, rec.calls[0].err)
	assert.False(t, e.Busy())
}

func TestExportOversizedSceneFails(t *testing.T) {
	rec := &fakeRecorder{}
	e := NewExporter(zaptest.NewLogger(t), WithExportRecorder(rec))
	s := Layout(node("root", 0))
	s.Annotations = canvas.List{
		canvas.Text{X: 0, Y: 0, Text: "a"},
		canvas.Text{X: 1e12, Y: 1e12, Text: "b"},
	}

	var buf bytes.Buffer
	var err error
	require.NotPanics(t, func() {
		err = e.Export(context.Background(), s, FormatPNG, &buf)
	})
	assert.ErrorIs(t, err, ErrExportTooLarge)
	assert.Zero(t, buf.Len())
	require.Len(t, rec.calls, 1)
	assert.ErrorIs(t, rec.calls[0].err, ErrExportTooLarge)
	assert.False(t, e.Busy())
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := NewExporter(nil).Export(ctx, Layout(node("root", 0)), FormatPNG, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName("Geography", FormatPDF))
	e := NewExporter(nil)
	require.NoError(t, e.WriteFile(context.Background(), Layout(wideTree(2)), FormatPDF, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "mindmap-Geography.png", FileName("Geography", FormatPNG))
	assert.Equal(t, "mindmap-export.jpg", FileName("  ", FormatJPEG))
	assert.Equal(t, "mindmap-AC-DC.pdf", FileName("AC/DC", FormatPDF))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JPG")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)
	assert.Equal(t, "image/jpeg", f.ContentType())

	_, err = ParseFormat("svg")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFitRect(t *testing.T) {
	// A4 landscape: 297×210 mm.
	x, y, w, h := FitRect(2000, 500, 297, 210, PageMargin)
	assert.InDelta(t, 277, w, 0.001)
	assert.InDelta(t, 69.25, h, 0.001)
	assert.InDelta(t, 10, x, 0.001)
	assert.InDelta(t, (210-69.25)/2, y, 0.001)

	_, _, w, h = FitRect(500, 2000, 297, 210, PageMargin)
	assert.InDelta(t, 190, h, 0.001)
	assert.InDelta(t, 47.5, w, 0.001)
}
