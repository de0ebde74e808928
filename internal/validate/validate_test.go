package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Query string `json:"query" validate:"required,max=10"`
	Theme string `json:"theme" validate:"omitempty,oneof=light dark"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Query: "rivers", Theme: "dark", Color: "#fff"}))

	err := Struct(sample{Theme: "blue", Color: "red"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "query is required")
		assert.Contains(t, err.Error(), "theme must be one of: light dark")
		assert.Contains(t, err.Error(), "color must be a hex colour")
	}

	err = Struct(sample{Query: "a very long query"})
	assert.EqualError(t, err, "query must be at most 10")
}
