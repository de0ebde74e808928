// Package tree holds the knowledge tree of a mind map and the controller
// that expands and collapses its nodes, fetching subtopics on demand.
package tree

import "strings"

// FetchState records whether a node's children have been loaded.
type FetchState string

const (
	NotFetched FetchState = "not_fetched"
	Fetching   FetchState = "fetching"
	Fetched    FetchState = "fetched"
)

// Node is one concept in the tree. A Fetched node with no children has
// been asked for subtopics and has none; it is never asked again.
type Node struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Depth       int        `json:"depth"`
	State       FetchState `json:"state"`
	Expanded    bool       `json:"expanded"`
	Children    []*Node    `json:"children"`
}

// Visible reports whether n's children are currently shown.
func (n *Node) Visible() bool {
	return n.State == Fetched && n.Expanded && len(n.Children) > 0
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Children = make([]*Node, len(n.Children))
	for i, child := range n.Children {
		c.Children[i] = child.Clone()
	}
	return &c
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Outline renders n as an indented bullet list. Collapsed branches are
// included only when all is true.
func Outline(n *Node, all bool) string {
	var b strings.Builder
	var write func(*Node, int)
	write = func(n *Node, indent int) {
		b.WriteString(strings.Repeat("  ", indent))
		b.WriteString("- ")
		b.WriteString(n.Name)
		if n.Description != "" {
			b.WriteString(": ")
			b.WriteString(firstLine(n.Description))
		}
		b.WriteByte('\n')
		if !all && !n.Expanded {
			return
		}
		for _, child := range n.Children {
			write(child, indent+1)
		}
	}
	if n != nil {
		write(n, 0)
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// palette is indexed by depth; the root uses the first entry.
var palette = []string{
	"#6366f1",
	"#0ea5e9",
	"#10b981",
	"#f59e0b",
	"#ef4444",
	"#8b5cf6",
	"#ec4899",
}

// Color assigns the fill colour of a node at depth. It is pure and safe to
// call from any goroutine.
func Color(depth int) string {
	if depth < 0 {
		depth = 0
	}
	return palette[depth%len(palette)]
}
