package canvas

// DefaultColor is the stroke colour new engines start with.
const DefaultColor = "#ef4444"

// Engine turns pointer and keyboard input into annotations and keeps the
// undo/redo history. It is not safe for concurrent use.
type Engine struct {
	tool  Tool
	color string

	annotations List
	history     *History
	selected    int

	// in-progress draw gesture
	working Annotation
	origin  Point

	viewport Viewport
	panHold  bool
	panning  bool
	panStart Point
	// tool to return to when the Space hold is released
	heldTool *Tool

	pendingText *Point
}

// NewEngine returns an empty canvas drawing in color, or DefaultColor.
func NewEngine(color string) *Engine {
	if color == "" {
		color = DefaultColor
	}
	return &Engine{
		tool:        ToolNone,
		color:       color,
		annotations: List{},
		history:     NewHistory(),
		selected:    -1,
	}
}

// Load replaces the canvas with a saved annotation set. A non-empty set
// becomes the first history snapshot.
func (e *Engine) Load(l List, pan Point) {
	e.annotations = l.clone()
	e.history = NewHistory()
	if len(e.annotations) > 0 {
		e.history.Push(e.annotations)
	}
	e.viewport.Pan = pan
	e.selected = -1
	e.working = nil
	e.pendingText = nil
}

// SetTool switches tools. Any tool other than none cancels pan mode.
func (e *Engine) SetTool(t Tool) {
	if t != ToolNone {
		e.panHold = false
		e.panning = false
		e.heldTool = nil
	}
	if t != ToolText {
		e.pendingText = nil
	}
	e.working = nil
	e.tool = t
}

// SetColor sets the colour for annotations drawn from now on.
func (e *Engine) SetColor(color string) {
	if color != "" {
		e.color = color
	}
}

// SetPanHold engages or releases the pan modifier.
func (e *Engine) SetPanHold(on bool) {
	e.panHold = on
	if !on {
		e.panning = false
	}
}

func (e *Engine) panMode() bool {
	return e.tool == ToolNone && e.panHold
}

// PointerDown starts a gesture at screen position screen.
func (e *Engine) PointerDown(screen Point) {
	if e.panMode() {
		e.panning = true
		e.panStart = screen.Sub(e.viewport.Pan)
		return
	}

	p := e.viewport.ToCanvas(screen)
	switch e.tool {
	case ToolText:
		e.pendingText = &p
	case ToolEraser:
		e.eraseAt(p)
	case ToolFreehand:
		e.working = Freehand{Points: []Point{p}, Color: e.color}
		e.origin = p
	case ToolRectangle:
		e.working = Rectangle{X: p.X, Y: p.Y, Color: e.color}
		e.origin = p
	case ToolCircle:
		e.working = Circle{X: p.X, Y: p.Y, Color: e.color}
		e.origin = p
	}
}

// PointerMove continues the active gesture.
func (e *Engine) PointerMove(screen Point) {
	if e.panning {
		e.viewport.Pan = screen.Sub(e.panStart)
		return
	}
	if e.working == nil {
		return
	}

	p := e.viewport.ToCanvas(screen)
	switch w := e.working.(type) {
	case Freehand:
		w.Points = append(w.Points, p)
		e.working = w
	case Rectangle:
		w.Width, w.Height = p.X-e.origin.X, p.Y-e.origin.Y
		e.working = w
	case Circle:
		w.Width, w.Height = p.X-e.origin.X, p.Y-e.origin.Y
		e.working = w
	}
}

// PointerUp ends the gesture, committing the working annotation when it
// has enough extent. It reports whether an annotation was committed.
func (e *Engine) PointerUp() bool {
	if e.panning {
		e.panning = false
		return false
	}
	w := e.working
	e.working = nil
	if w == nil || !w.Committable() {
		return false
	}
	e.commit(w)
	return true
}

// SubmitText places a label at the pending anchor when value is not blank.
// The text entry is closed either way.
func (e *Engine) SubmitText(value string) bool {
	anchor := e.pendingText
	e.pendingText = nil
	if anchor == nil {
		return false
	}
	t := Text{X: anchor.X, Y: anchor.Y, Text: value, Color: e.color}
	if !t.Committable() {
		return false
	}
	e.commit(t)
	return true
}

// CancelText closes the text entry without adding anything.
func (e *Engine) CancelText() {
	e.pendingText = nil
}

func (e *Engine) commit(a Annotation) {
	e.annotations = append(e.annotations, a)
	e.history.Push(e.annotations)
}

// eraseAt removes every annotation that p hits.
func (e *Engine) eraseAt(p Point) {
	kept := make(List, 0, len(e.annotations))
	for _, a := range e.annotations {
		if !a.ContainsPoint(p, EraserThreshold) {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(e.annotations) {
		return
	}
	e.annotations = kept
	e.selected = -1
	e.history.Push(e.annotations)
}

// Undo steps back one snapshot.
func (e *Engine) Undo() bool {
	l, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.annotations = l
	e.selected = -1
	return true
}

// Redo steps forward one snapshot.
func (e *Engine) Redo() bool {
	l, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.annotations = l
	e.selected = -1
	return true
}

// Clear removes every annotation. Unlike a plain reset of the list, the
// empty set is recorded as a history snapshot, so Undo brings the previous
// marks back and any redo tail is discarded. Clearing an empty canvas
// records nothing.
func (e *Engine) Clear() {
	e.working = nil
	e.selected = -1
	if len(e.annotations) == 0 {
		return
	}
	e.annotations = List{}
	e.history.Push(e.annotations)
}

// SelectAnnotationAt toggles the highlight on annotation i.
func (e *Engine) SelectAnnotationAt(i int) {
	if i < 0 || i >= len(e.annotations) || e.selected == i {
		e.selected = -1
		return
	}
	e.selected = i
}

// HandleKey applies the global shortcuts. Space held engages pan mode and
// its release returns to the previous tool.
func (e *Engine) HandleKey(ev KeyEvent) bool {
	if ev.InputFocused {
		return false
	}
	if isSpace(ev.Key) {
		if ev.Action == KeyUp {
			e.SetPanHold(false)
			if e.heldTool != nil {
				prev := *e.heldTool
				e.heldTool = nil
				e.SetTool(prev)
			}
			return true
		}
		if e.panHold {
			return true
		}
		prev := e.tool
		e.heldTool = &prev
		e.SetTool(ToolNone)
		e.SetPanHold(true)
		return true
	}
	if ev.Action == KeyUp {
		return false
	}
	t, ok := shortcutTool(ev.Key)
	if !ok {
		return false
	}
	e.SetTool(t)
	return true
}

// Annotations returns a copy of the committed annotations.
func (e *Engine) Annotations() List { return e.annotations.clone() }

// Viewport returns the current pan.
func (e *Engine) Viewport() Viewport { return e.viewport }

// CenterOn pans so canvas point p sits in the middle of the screen.
func (e *Engine) CenterOn(p Point, screenWidth, screenHeight float64) {
	e.viewport.Pan = CenterOn(p, screenWidth, screenHeight)
}

// State is a read-only view of the engine for rendering and transport.
type State struct {
	Tool         Tool       `json:"tool"`
	Icon         Icon       `json:"icon"`
	Color        string     `json:"color"`
	Annotations  List       `json:"annotations"`
	Working      Annotation `json:"working,omitempty"`
	Selected     int        `json:"selected"`
	Pan          Point      `json:"pan"`
	PanMode      bool       `json:"pan_mode"`
	Panning      bool       `json:"panning"`
	PendingText  *Point     `json:"pending_text,omitempty"`
	HistoryIndex int        `json:"history_index"`
	HistoryLen   int        `json:"history_len"`
	CanUndo      bool       `json:"can_undo"`
	CanRedo      bool       `json:"can_redo"`
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	s := State{
		Tool:         e.tool,
		Icon:         e.tool.Icon(),
		Color:        e.color,
		Annotations:  e.annotations.clone(),
		Selected:     e.selected,
		Pan:          e.viewport.Pan,
		PanMode:      e.panMode(),
		Panning:      e.panning,
		HistoryIndex: e.history.Index(),
		HistoryLen:   e.history.Len(),
		CanUndo:      e.history.CanUndo(),
		CanRedo:      e.history.CanRedo(),
	}
	if e.working != nil {
		s.Working = e.working.clone()
	}
	if e.pendingText != nil {
		p := *e.pendingText
		s.PendingText = &p
	}
	return s
}
