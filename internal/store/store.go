// Package store persists maps and preferences in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/db"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

// ErrNotFound is returned when no map has the requested ID.
var ErrNotFound = errors.New("map not found")

// Map is a saved mind map: its tree plus the annotation layer.
type Map struct {
	ID          string        `json:"id"`
	Query       string        `json:"query"`
	Title       string        `json:"title"`
	Tree        tree.Snapshot `json:"tree"`
	Annotations canvas.List   `json:"annotations"`
	Pan         canvas.Point  `json:"pan"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Summary is the listing form of a map.
type Summary struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store provides CRUD operations for maps and the preferences row.
type Store struct {
	db *db.DB
}

// NewStore creates a new map store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

func encode(m *Map) (treeJSON, annotationsJSON string, err error) {
	t, err := json.Marshal(m.Tree)
	if err != nil {
		return "", "", fmt.Errorf("marshaling tree: %w", err)
	}
	if m.Annotations == nil {
		m.Annotations = canvas.List{}
	}
	a, err := json.Marshal(m.Annotations)
	if err != nil {
		return "", "", fmt.Errorf("marshaling annotations: %w", err)
	}
	return string(t), string(a), nil
}

// Save inserts m or overwrites the map with the same ID.
func (s *Store) Save(ctx context.Context, m *Map) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	treeJSON, annotationsJSON, err := encode(m)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO maps (id, query, title, tree, annotations, pan_x, pan_y, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   query=excluded.query, title=excluded.title, tree=excluded.tree,
		   annotations=excluded.annotations, pan_x=excluded.pan_x, pan_y=excluded.pan_y,
		   updated_at=excluded.updated_at`,
		m.ID, m.Query, m.Title, treeJSON, annotationsJSON, m.Pan.X, m.Pan.Y, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving map: %w", err)
	}
	return nil
}

// Get retrieves a map by ID.
func (s *Store) Get(ctx context.Context, id string) (*Map, error) {
	m := &Map{}
	var treeJSON, annotationsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, title, tree, annotations, pan_x, pan_y, created_at, updated_at
		 FROM maps WHERE id = ?`, id,
	).Scan(&m.ID, &m.Query, &m.Title, &treeJSON, &annotationsJSON, &m.Pan.X, &m.Pan.Y, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting map: %w", err)
	}
	if err := json.Unmarshal([]byte(treeJSON), &m.Tree); err != nil {
		return nil, fmt.Errorf("unmarshaling tree: %w", err)
	}
	if err := json.Unmarshal([]byte(annotationsJSON), &m.Annotations); err != nil {
		return nil, fmt.Errorf("unmarshaling annotations: %w", err)
	}
	return m, nil
}

// List returns the most recently updated maps first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, title, updated_at FROM maps ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing maps: %w", err)
	}
	defer rows.Close()

	var result []Summary
	for rows.Next() {
		var m Summary
		if err := rows.Scan(&m.ID, &m.Query, &m.Title, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning map: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Delete removes a map.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM maps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting map: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadPreferences returns the stored preferences document, or nil when
// none has been saved.
func (s *Store) LoadPreferences(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM preferences WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	return []byte(data), nil
}

// SavePreferences replaces the preferences document.
func (s *Store) SavePreferences(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (id, data, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
