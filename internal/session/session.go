// Package session ties a knowledge tree to its annotation canvas and keeps
// the open maps of a running server.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/render"
	"github.com/ziadkadry99/mindmap/internal/store"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

// Default screen size used to centre revealed subtrees until the client
// reports its own.
const (
	DefaultScreenWidth  = 1280.0
	DefaultScreenHeight = 800.0
)

// Session is one open map. Canvas input is applied one event at a time
// under the session lock; tree expansion runs outside it so a slow
// subtopic request never blocks drawing.
type Session struct {
	ID      string
	Created time.Time

	tree     *tree.Controller
	exporter *render.Exporter

	mu           sync.Mutex
	engine       *canvas.Engine
	screenWidth  float64
	screenHeight float64
}

func newSession(id string, ctrl *tree.Controller, engine *canvas.Engine, exporter *render.Exporter) *Session {
	return &Session{
		ID:           id,
		Created:      time.Now().UTC(),
		tree:         ctrl,
		exporter:     exporter,
		engine:       engine,
		screenWidth:  DefaultScreenWidth,
		screenHeight: DefaultScreenHeight,
	}
}

// Tree returns the session's tree controller.
func (s *Session) Tree() *tree.Controller { return s.tree }

// Title is the root topic's name.
func (s *Session) Title() string {
	root := s.tree.Root()
	if root == nil {
		return ""
	}
	return root.Name
}

// Expand toggles a node and, when it reveals children, pans the canvas so
// the revealed subtree sits in the middle of the screen.
func (s *Session) Expand(ctx context.Context, nodeID string) (tree.ExpandResult, error) {
	res, err := s.tree.Expand(ctx, nodeID)
	if err != nil || res.Outcome != tree.OutcomeExpanded {
		return res, err
	}

	scene := render.Layout(s.tree.Root())
	if focus, ok := subtreeCenter(scene, res.Node); ok {
		s.mu.Lock()
		s.engine.CenterOn(focus, s.screenWidth, s.screenHeight)
		s.mu.Unlock()
	}
	return res, nil
}

// subtreeCenter is the middle of n and its children, or of n alone when
// the expansion revealed nothing.
func subtreeCenter(scene render.Scene, n *tree.Node) (canvas.Point, bool) {
	if len(n.Children) == 0 {
		return scene.Center(n.ID)
	}
	var area canvas.Rect
	found := false
	ids := map[string]bool{n.ID: true}
	for _, child := range n.Children {
		ids[child.ID] = true
	}
	for _, b := range scene.Boxes {
		if ids[b.ID] {
			area = area.Union(b.Rect())
			found = true
		}
	}
	return area.Center(), found
}

// Canvas applies fn to the engine under the session lock and returns the
// resulting state.
func (s *Session) Canvas(fn func(e *canvas.Engine)) canvas.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		fn(s.engine)
	}
	return s.engine.State()
}

// SetScreen records the client's viewport size.
func (s *Session) SetScreen(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	s.screenWidth, s.screenHeight = width, height
	s.mu.Unlock()
}

// Scene lays out the visible tree with the committed annotations.
func (s *Session) Scene() render.Scene {
	scene := render.Layout(s.tree.Root())
	st := s.Canvas(nil)
	scene.Annotations = st.Annotations
	scene.Selected = st.Selected
	return scene
}

// Export renders the whole map, not just what is on screen, into w. Only
// one export per session runs at a time.
func (s *Session) Export(ctx context.Context, format render.Format, w io.Writer) error {
	return s.exporter.Export(ctx, s.Scene(), format, w)
}

// ExportFile writes an export to path.
func (s *Session) ExportFile(ctx context.Context, format render.Format, path string) error {
	return s.exporter.WriteFile(ctx, s.Scene(), format, path)
}

// FileName is the download name for an export of this map.
func (s *Session) FileName(format render.Format) string {
	return render.FileName(s.Title(), format)
}

// Map returns the persistable form of the session.
func (s *Session) Map() *store.Map {
	snap := s.tree.Snapshot()
	st := s.Canvas(nil)
	title := ""
	if snap.Root != nil {
		title = snap.Root.Name
	}
	return &store.Map{
		ID:          s.ID,
		Query:       snap.Query,
		Title:       title,
		Tree:        snap,
		Annotations: st.Annotations,
		Pan:         st.Pan,
		CreatedAt:   s.Created,
	}
}

// View is the JSON form of a session sent to clients.
type View struct {
	ID     string       `json:"id"`
	Query  string       `json:"query"`
	Title  string       `json:"title"`
	Root   *tree.Node   `json:"root"`
	Focus  string       `json:"focus"`
	Canvas canvas.State `json:"canvas"`
}

// View returns a snapshot for clients.
func (s *Session) View() View {
	root := s.tree.Root()
	v := View{
		ID:     s.ID,
		Query:  s.tree.Query(),
		Root:   root,
		Focus:  s.tree.Focus(),
		Canvas: s.Canvas(nil),
	}
	if root != nil {
		v.Title = root.Name
	}
	return v
}
