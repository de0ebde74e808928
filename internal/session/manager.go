package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/render"
	"github.com/ziadkadry99/mindmap/internal/store"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

// ErrNotFound is returned for IDs that are neither open nor saved.
var ErrNotFound = errors.New("session not found")

// Repository persists maps. *store.Store implements it.
type Repository interface {
	Save(ctx context.Context, m *store.Map) error
	Get(ctx context.Context, id string) (*store.Map, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]store.Summary, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithRepository enables saving and loading maps.
func WithRepository(r Repository) Option {
	return func(m *Manager) { m.repo = r }
}

// WithRecorder attaches an expansion recorder to every tree.
func WithRecorder(r tree.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithDefaultColor sets the annotation colour of new canvases.
func WithDefaultColor(color string) Option {
	return func(m *Manager) { m.color = color }
}

// WithExportOptions configures each session's exporter.
func WithExportOptions(opts ...render.ExporterOption) Option {
	return func(m *Manager) { m.exportOpts = append(m.exportOpts, opts...) }
}

// Manager keeps open sessions and moves them to and from the repository.
type Manager struct {
	gen      tree.Generator
	logger   *zap.Logger
	repo     Repository
	recorder tree.Recorder
	color    string

	exportOpts []render.ExporterOption

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager generating trees with gen.
func NewManager(gen tree.Generator, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		gen:      gen,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) treeOptions() []tree.Option {
	opts := []tree.Option{tree.WithLogger(m.logger)}
	if m.recorder != nil {
		opts = append(opts, tree.WithRecorder(m.recorder))
	}
	return opts
}

func (m *Manager) newExporter() *render.Exporter {
	return render.NewExporter(m.logger, m.exportOpts...)
}

// Create runs a search and opens a session on the resulting tree.
func (m *Manager) Create(ctx context.Context, query string) (*Session, error) {
	ctrl, err := tree.Generate(ctx, m.gen, query, m.treeOptions()...)
	if err != nil {
		return nil, err
	}
	s := newSession(uuid.NewString(), ctrl, canvas.NewEngine(m.color), m.newExporter())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("map created", zap.String("id", s.ID), zap.String("query", ctrl.Query()))
	return s, nil
}

// Get returns an open session, loading it from the repository if needed.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}
	if m.repo == nil {
		return nil, ErrNotFound
	}

	saved, err := m.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading map %s: %w", id, err)
	}
	ctrl, err := tree.Restore(m.gen, saved.Tree, m.treeOptions()...)
	if err != nil {
		return nil, fmt.Errorf("restoring map %s: %w", id, err)
	}
	engine := canvas.NewEngine(m.color)
	engine.Load(saved.Annotations, saved.Pan)
	s = newSession(saved.ID, ctrl, engine, m.newExporter())
	s.Created = saved.CreatedAt

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have loaded it meanwhile.
	if existing, ok := m.sessions[id]; ok {
		return existing, nil
	}
	m.sessions[id] = s
	return s, nil
}

// Save writes the session to the repository.
func (m *Manager) Save(ctx context.Context, id string) error {
	if m.repo == nil {
		return errors.New("no repository configured")
	}
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.repo.Save(ctx, s.Map()); err != nil {
		return err
	}
	m.logger.Info("map saved", zap.String("id", id))
	return nil
}

// Close drops an open session, keeping any saved copy. It reports whether
// the session was open.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// Delete closes the session and removes its saved copy.
func (m *Manager) Delete(ctx context.Context, id string) error {
	open := m.Close(id)
	if m.repo == nil {
		if !open {
			return ErrNotFound
		}
		return nil
	}
	err := m.repo.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		if open {
			return nil
		}
		return ErrNotFound
	}
	return err
}

// List returns saved maps, most recent first.
func (m *Manager) List(ctx context.Context) ([]store.Summary, error) {
	if m.repo == nil {
		return nil, nil
	}
	return m.repo.List(ctx, 0)
}
