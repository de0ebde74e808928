package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/db"
	"github.com/ziadkadry99/mindmap/internal/render"
	"github.com/ziadkadry99/mindmap/internal/store"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

// stubGenerator answers every search with three children and every
// subtopic request with three grandchildren.
type stubGenerator struct {
	fail  bool
	empty bool
}

func (g stubGenerator) Topic(_ context.Context, query string) (tree.Topic, error) {
	if g.fail {
		return tree.Topic{}, errors.New("model offline")
	}
	return tree.Topic{
		Name:        query,
		Description: "About " + query,
		Children: []tree.Topic{
			{Name: query + " A"}, {Name: query + " B"}, {Name: query + " C"},
		},
	}, nil
}

func (g stubGenerator) Subtopics(_ context.Context, name string) ([]tree.Topic, error) {
	if g.empty {
		return []tree.Topic{}, nil
	}
	var out []tree.Topic
	for i := 1; i <= 3; i++ {
		out = append(out, tree.Topic{Name: fmt.Sprintf("%s %d", name, i)})
	}
	return out, nil
}

func newRepo(t *testing.T) *store.Store {
	t.Helper()
	d, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return store.NewStore(d)
}

func TestCreateAndGet(t *testing.T) {
	m := NewManager(stubGenerator{}, zaptest.NewLogger(t))
	ctx := context.Background()

	s, err := m.Create(ctx, "Rivers")
	require.NoError(t, err)
	assert.Equal(t, "Rivers", s.Title())

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFailure(t *testing.T) {
	m := NewManager(stubGenerator{fail: true}, nil)
	_, err := m.Create(context.Background(), "Rivers")
	assert.ErrorIs(t, err, tree.ErrTreeGeneration)
	assert.Equal(t, "generation_failed", tree.ErrorCode(err))
}

func TestExpandCentresRevealedSubtree(t *testing.T) {
	m := NewManager(stubGenerator{}, nil)
	ctx := context.Background()
	s, err := m.Create(ctx, "Rivers")
	require.NoError(t, err)
	s.SetScreen(1000, 600)

	child := s.Tree().Root().Children[2]
	res, err := s.Expand(ctx, child.ID)
	require.NoError(t, err)
	require.Equal(t, tree.OutcomeExpanded, res.Outcome)

	scene := s.Scene()
	centre, ok := subtreeCenter(scene, res.Node)
	require.True(t, ok)
	pan := s.Canvas(nil).Pan
	assert.Equal(t, canvas.Point{X: 500 - centre.X, Y: 300 - centre.Y}, pan)

	// Collapsing leaves the pan alone.
	_, err = s.Expand(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, pan, s.Canvas(nil).Pan)
}

func TestExpandWithoutChildrenCentresNode(t *testing.T) {
	m := NewManager(stubGenerator{empty: true}, nil)
	ctx := context.Background()
	s, err := m.Create(ctx, "Rivers")
	require.NoError(t, err)
	s.SetScreen(800, 400)

	leaf := s.Tree().Root().Children[0]
	res, err := s.Expand(ctx, leaf.ID)
	require.NoError(t, err)
	require.Equal(t, tree.OutcomeExpanded, res.Outcome)
	require.Empty(t, res.Node.Children)

	centre, ok := s.Scene().Center(leaf.ID)
	require.True(t, ok)
	assert.Equal(t, canvas.Point{X: 400 - centre.X, Y: 200 - centre.Y}, s.Canvas(nil).Pan)
}

func TestSaveAndReload(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	m := NewManager(stubGenerator{}, nil, WithRepository(repo), WithDefaultColor("#111111"))
	s, err := m.Create(ctx, "Volcanoes")
	require.NoError(t, err)
	_, err = s.Expand(ctx, s.Tree().Root().Children[0].ID)
	require.NoError(t, err)
	s.Canvas(func(e *canvas.Engine) {
		e.SetTool(canvas.ToolRectangle)
		e.PointerDown(canvas.Point{X: 10, Y: 10})
		e.PointerMove(canvas.Point{X: 60, Y: 40})
		e.PointerUp()
	})
	require.NoError(t, m.Save(ctx, s.ID))

	// A fresh manager loads from the repository.
	m2 := NewManager(stubGenerator{}, nil, WithRepository(repo))
	loaded, err := m2.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Volcanoes", loaded.Title())
	root := loaded.Tree().Root()
	assert.Len(t, root.Children[0].Children, 3)

	st := loaded.Canvas(nil)
	require.Len(t, st.Annotations, 1)
	assert.Equal(t, "#111111", st.Annotations[0].Stroke())
	assert.True(t, st.CanUndo)

	list, err := m2.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)
}

func TestCloseAndDelete(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	m := NewManager(stubGenerator{}, nil, WithRepository(repo))

	s, err := m.Create(ctx, "Deserts")
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, s.ID))

	assert.True(t, m.Close(s.ID))
	// Still saved.
	_, err = m.Get(ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, s.ID))
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, s.ID), ErrNotFound)
}

func TestViewAndMap(t *testing.T) {
	m := NewManager(stubGenerator{}, nil)
	s, err := m.Create(context.Background(), "Glaciers")
	require.NoError(t, err)

	v := s.View()
	assert.Equal(t, "Glaciers", v.Title)
	assert.Equal(t, "Glaciers", v.Query)
	assert.Equal(t, v.Root.ID, v.Focus)
	assert.Equal(t, canvas.ToolNone, v.Canvas.Tool)

	saved := s.Map()
	assert.Equal(t, s.ID, saved.ID)
	assert.Equal(t, "Glaciers", saved.Tree.Root.Name)
}

func TestExport(t *testing.T) {
	m := NewManager(stubGenerator{}, nil, WithExportOptions(render.WithJPEGQuality(80)))
	s, err := m.Create(context.Background(), "Tides")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Export(context.Background(), render.FormatPNG, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
	assert.Equal(t, "mindmap-Tides.pdf", s.FileName(render.FormatPDF))
}
