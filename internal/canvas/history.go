package canvas

// History is a linear undo/redo log of annotation snapshots. Index is -1
// before the first snapshot, which stands for the empty canvas.
type History struct {
	snapshots []List
	index     int
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{index: -1}
}

// Push records l as the newest snapshot, dropping anything redoable.
func (h *History) Push(l List) {
	h.snapshots = append(h.snapshots[:h.index+1], l.clone())
	h.index = len(h.snapshots) - 1
}

// Undo moves the cursor back one step and returns the set to show.
func (h *History) Undo() (List, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.index--
	return h.current(), true
}

// Redo moves the cursor forward one step and returns the set to show.
func (h *History) Redo() (List, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.index++
	return h.current(), true
}

func (h *History) current() List {
	if h.index < 0 {
		return List{}
	}
	return h.snapshots[h.index].clone()
}

func (h *History) CanUndo() bool { return h.index >= 0 }
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }
func (h *History) Index() int    { return h.index }
func (h *History) Len() int      { return len(h.snapshots) }
