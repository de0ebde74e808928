// Package prefs holds the UI settings a client restores on start: sidebar
// state, theme, font size and the default annotation colour. Settings are
// passed around explicitly and only touch storage in Load and Save.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/validate"
)

// Preferences are the persisted UI settings.
type Preferences struct {
	SidebarOpen  bool   `json:"sidebar_open"`
	Theme        string `json:"theme" validate:"oneof=light dark system"`
	FontSize     int    `json:"font_size" validate:"min=10,max=32"`
	DefaultColor string `json:"default_color" validate:"hexcolor"`
}

// Defaults returns the settings used before anything is saved.
func Defaults() Preferences {
	return Preferences{
		SidebarOpen:  true,
		Theme:        "system",
		FontSize:     14,
		DefaultColor: canvas.DefaultColor,
	}
}

// Validate checks every field.
func (p Preferences) Validate() error {
	return validate.Struct(p)
}

// Store reads and writes the encoded preferences. LoadPreferences returns
// nil data when nothing has been saved.
type Store interface {
	LoadPreferences(ctx context.Context) ([]byte, error)
	SavePreferences(ctx context.Context, data []byte) error
}

// Load reads preferences from s. Fields missing from the stored document
// keep their defaults; an invalid document is reported, not repaired.
func Load(ctx context.Context, s Store) (Preferences, error) {
	p := Defaults()
	data, err := s.LoadPreferences(ctx)
	if err != nil {
		return p, err
	}
	if data == nil {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("decoding preferences: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Defaults(), fmt.Errorf("stored preferences: %w", err)
	}
	return p, nil
}

// Save validates p and writes it to s.
func Save(ctx context.Context, s Store, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	return s.SavePreferences(ctx, data)
}
