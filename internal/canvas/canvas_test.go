package canvas

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drag(e *Engine, from Point, to ...Point) bool {
	e.PointerDown(from)
	for _, p := range to {
		e.PointerMove(p)
	}
	return e.PointerUp()
}

func TestRectangleUndoRedo(t *testing.T) {
	e := NewEngine("#000000")
	e.SetTool(ToolRectangle)

	require.True(t, drag(e, Point{50, 50}, Point{100, 80}, Point{150, 120}))

	want := List{Rectangle{X: 50, Y: 50, Width: 100, Height: 70, Color: "#000000"}}
	if diff := cmp.Diff(want, e.Annotations()); diff != "" {
		t.Fatalf("annotations mismatch (-want +got):\n%s", diff)
	}

	require.True(t, e.Undo())
	assert.Empty(t, e.Annotations())
	assert.Equal(t, -1, e.State().HistoryIndex)

	require.True(t, e.Redo())
	if diff := cmp.Diff(want, e.Annotations()); diff != "" {
		t.Fatalf("redo mismatch (-want +got):\n%s", diff)
	}
}

func TestEraserRemovesWholeStroke(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolFreehand)
	require.True(t, drag(e, Point{100, 100}, Point{120, 110}, Point{140, 120}, Point{160, 130}))
	require.Len(t, e.Annotations(), 1)

	e.SetTool(ToolEraser)
	e.PointerDown(Point{130, 110})
	e.PointerUp()

	assert.Empty(t, e.Annotations())
	assert.True(t, e.State().CanUndo)

	require.True(t, e.Undo())
	assert.Len(t, e.Annotations(), 1)
}

func TestEraserMissLeavesHistoryAlone(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolFreehand)
	drag(e, Point{0, 0}, Point{10, 0})
	before := e.State()

	e.SetTool(ToolEraser)
	e.PointerDown(Point{0, 25})
	e.PointerUp()

	after := e.State()
	assert.Len(t, after.Annotations, 1)
	assert.Equal(t, before.HistoryLen, after.HistoryLen)
}

func TestFreehandContainsPoint(t *testing.T) {
	f := Freehand{Points: []Point{{100, 100}, {200, 200}}}
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{110, 110}, true},
		{Point{119.9, 80.1}, true},
		{Point{120, 100}, false},
		{Point{100, 121}, false},
		{Point{150, 150}, false},
		{Point{195, 210}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.ContainsPoint(tt.p, EraserThreshold), "%v", tt.p)
	}
}

func TestShapeAndTextHits(t *testing.T) {
	r := Rectangle{X: 0, Y: 0, Width: 200, Height: 100}
	assert.True(t, r.ContainsPoint(Point{190, 90}, EraserThreshold))
	assert.False(t, r.ContainsPoint(Point{205, 50}, EraserThreshold))

	// Dragged up and left: same box.
	flipped := Circle{X: 200, Y: 100, Width: -200, Height: -100}
	assert.True(t, flipped.ContainsPoint(Point{10, 10}, EraserThreshold))
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 200, Height: 100}, flipped.Bounds())

	// Thin shapes stay erasable within the threshold of their centre.
	thin := Rectangle{X: 0, Y: 0, Width: 100, Height: 2}
	assert.True(t, thin.ContainsPoint(Point{50, 15}, EraserThreshold))

	label := Text{X: 10, Y: 10, Text: "note"}
	assert.True(t, label.ContainsPoint(Point{55, 25}, EraserThreshold))
	assert.False(t, label.ContainsPoint(Point{10, 31}, EraserThreshold))
}

func TestTextHitBoxIsCentredOnAnchor(t *testing.T) {
	label := Text{X: 100, Y: 100, Text: "note"}
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{140, 100}, true},
		{Point{60, 100}, true},
		{Point{100, 119}, true},
		{Point{100, 81}, true},
		{Point{150, 100}, false},
		{Point{50, 100}, false},
		{Point{100, 120}, false},
		{Point{140, 119}, true},
		{Point{140, 121}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, label.ContainsPoint(tt.p, EraserThreshold), "%v", tt.p)
	}
}

func TestEraserRemovesLabelFortyPixelsAway(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolText)
	e.PointerDown(Point{100, 100})
	require.True(t, e.SubmitText("Delta"))

	e.SetTool(ToolEraser)
	e.PointerDown(Point{140, 100})
	e.PointerUp()
	assert.Empty(t, e.Annotations())
}

func TestGesturesBelowThresholdAreDiscarded(t *testing.T) {
	e := NewEngine("")

	e.SetTool(ToolRectangle)
	assert.False(t, drag(e, Point{10, 10}, Point{15, 14}))

	e.SetTool(ToolCircle)
	assert.False(t, drag(e, Point{10, 10}, Point{5, 5}))
	assert.True(t, drag(e, Point{10, 10}, Point{10, 16}))

	e.SetTool(ToolFreehand)
	assert.False(t, drag(e, Point{10, 10}))

	e.SetTool(ToolText)
	e.PointerDown(Point{40, 40})
	assert.False(t, e.SubmitText("   "))
	assert.Nil(t, e.State().PendingText)

	s := e.State()
	assert.Len(t, s.Annotations, 1)
	assert.Equal(t, 1, s.HistoryLen)
}

func TestTextSubmit(t *testing.T) {
	e := NewEngine("#123456")
	e.SetTool(ToolText)
	e.PointerDown(Point{40, 60})
	require.NotNil(t, e.State().PendingText)

	require.True(t, e.SubmitText("Capitals"))
	assert.Equal(t, List{Text{X: 40, Y: 60, Text: "Capitals", Color: "#123456"}}, e.Annotations())

	// No anchor, no label.
	assert.False(t, e.SubmitText("again"))

	e.PointerDown(Point{0, 0})
	e.CancelText()
	assert.Nil(t, e.State().PendingText)
	assert.Len(t, e.Annotations(), 1)
}

func TestUndoAllReturnsToEmpty(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolFreehand)
	const n = 5
	for i := 0; i < n; i++ {
		y := float64(i * 50)
		require.True(t, drag(e, Point{0, y}, Point{30, y}))
	}
	for i := 0; i < n; i++ {
		require.True(t, e.Undo())
	}
	assert.False(t, e.Undo())
	assert.Empty(t, e.Annotations())
	assert.Equal(t, -1, e.State().HistoryIndex)
}

func TestCommitDiscardsRedoTail(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolRectangle)
	drag(e, Point{0, 0}, Point{20, 20})
	drag(e, Point{100, 0}, Point{120, 20})
	drag(e, Point{200, 0}, Point{220, 20})

	e.Undo()
	e.Undo()
	require.True(t, e.State().CanRedo)

	drag(e, Point{0, 300}, Point{40, 340})
	s := e.State()
	assert.False(t, s.CanRedo)
	assert.Equal(t, 2, s.HistoryLen)
	assert.False(t, e.Redo())
	assert.Len(t, e.Annotations(), 2)
}

func TestClearIsUndoable(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolCircle)
	drag(e, Point{0, 0}, Point{50, 50})

	e.Clear()
	assert.Empty(t, e.Annotations())

	require.True(t, e.Undo())
	assert.Len(t, e.Annotations(), 1)

	// Clearing drops the redo tail.
	drag(e, Point{100, 100}, Point{150, 150})
	e.Undo()
	require.True(t, e.State().CanRedo)
	e.Clear()
	assert.False(t, e.State().CanRedo)

	// Clearing an empty canvas records nothing.
	fresh := NewEngine("")
	fresh.Clear()
	assert.Equal(t, 0, fresh.State().HistoryLen)
}

func TestPanWithSpaceHold(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolRectangle)

	require.True(t, e.HandleKey(KeyEvent{Key: " ", Action: KeyDown}))
	assert.True(t, e.State().PanMode)

	e.PointerDown(Point{100, 100})
	e.PointerMove(Point{130, 90})
	assert.Equal(t, Point{30, -10}, e.State().Pan)
	e.PointerUp()

	// A second pan continues from the current offset.
	e.PointerDown(Point{0, 0})
	e.PointerMove(Point{10, 10})
	e.PointerUp()
	assert.Equal(t, Point{40, 0}, e.State().Pan)

	require.True(t, e.HandleKey(KeyEvent{Key: " ", Action: KeyUp}))
	s := e.State()
	assert.False(t, s.PanMode)
	assert.Equal(t, ToolRectangle, s.Tool)
	assert.Empty(t, s.Annotations)

	// Drawing now lands in canvas coordinates.
	require.True(t, drag(e, Point{40, 0}, Point{60, 20}))
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 20, Height: 20}, e.Annotations()[0].Bounds())
}

func TestSettingToolCancelsPan(t *testing.T) {
	e := NewEngine("")
	e.SetPanHold(true)
	e.PointerDown(Point{0, 0})
	require.True(t, e.State().Panning)

	e.SetTool(ToolEraser)
	s := e.State()
	assert.False(t, s.PanMode)
	assert.False(t, s.Panning)
}

func TestShortcuts(t *testing.T) {
	tests := []struct {
		key  string
		want Tool
	}{
		{"p", ToolFreehand},
		{"T", ToolText},
		{"r", ToolRectangle},
		{"c", ToolCircle},
		{"O", ToolCircle},
		{"e", ToolEraser},
		{"Escape", ToolNone},
	}
	for _, tt := range tests {
		e := NewEngine("")
		e.SetTool(ToolText)
		require.True(t, e.HandleKey(KeyEvent{Key: tt.key, Action: KeyDown}), tt.key)
		assert.Equal(t, tt.want, e.State().Tool, tt.key)
	}

	e := NewEngine("")
	assert.False(t, e.HandleKey(KeyEvent{Key: "r", Action: KeyDown, InputFocused: true}))
	assert.False(t, e.HandleKey(KeyEvent{Key: "x", Action: KeyDown}))
	assert.Equal(t, ToolNone, e.State().Tool)
}

func TestSelectToggles(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolCircle)
	drag(e, Point{0, 0}, Point{50, 50})

	e.SelectAnnotationAt(0)
	assert.Equal(t, 0, e.State().Selected)
	e.SelectAnnotationAt(0)
	assert.Equal(t, -1, e.State().Selected)
	e.SelectAnnotationAt(3)
	assert.Equal(t, -1, e.State().Selected)
}

func TestWorkingAnnotationIsVisible(t *testing.T) {
	e := NewEngine("")
	e.SetTool(ToolFreehand)
	e.PointerDown(Point{1, 1})
	e.PointerMove(Point{2, 2})

	s := e.State()
	require.NotNil(t, s.Working)
	assert.Equal(t, KindFreehand, s.Working.Kind())
	assert.Empty(t, s.Annotations)
}

func TestListJSON(t *testing.T) {
	in := List{
		Freehand{Points: []Point{{1, 2}, {3, 4}}, Color: "#111111"},
		Rectangle{X: 5, Y: 6, Width: -7, Height: 8, Color: "#222222"},
		Circle{X: 1, Y: 1, Width: 10, Height: 10, Color: "#333333"},
		Text{X: 9, Y: 9, Text: "hi", Color: "#444444"},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"rectangle"`)

	var out List
	require.NoError(t, json.Unmarshal(data, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	assert.Error(t, json.Unmarshal([]byte(`[{"type":"triangle"}]`), &out))
}

func TestLoadSeedsHistory(t *testing.T) {
	e := NewEngine("")
	e.Load(List{Text{X: 1, Y: 1, Text: "a"}}, Point{5, 5})
	s := e.State()
	assert.Len(t, s.Annotations, 1)
	assert.Equal(t, 0, s.HistoryIndex)
	assert.Equal(t, Point{5, 5}, s.Pan)
}

func TestPaletteAndParseTool(t *testing.T) {
	p := Palette()
	require.Len(t, p, 6)
	assert.Equal(t, IconSquare, ToolRectangle.Icon())

	tool, err := ParseTool(" Eraser ")
	require.NoError(t, err)
	assert.Equal(t, ToolEraser, tool)

	_, err = ParseTool("lasso")
	assert.Error(t, err)
}
