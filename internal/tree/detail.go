package tree

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

// Raw HTML in model output is escaped: descriptions are untrusted.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(highlighting.WithStyle("github")),
	),
)

// Detail is what the node detail modal shows.
type Detail struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	DescriptionHTML string     `json:"description_html"`
	Depth           int        `json:"depth"`
	Color           string     `json:"color"`
	State           FetchState `json:"state"`
	ChildCount      int        `json:"child_count"`
}

// NewDetail renders n's Markdown description.
func NewDetail(n *Node) (Detail, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(n.Description), &buf); err != nil {
		return Detail{}, fmt.Errorf("rendering description of %q: %w", n.Name, err)
	}
	return Detail{
		ID:              n.ID,
		Name:            n.Name,
		Description:     n.Description,
		DescriptionHTML: buf.String(),
		Depth:           n.Depth,
		Color:           Color(n.Depth),
		State:           n.State,
		ChildCount:      len(n.Children),
	}, nil
}
