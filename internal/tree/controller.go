package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyQuery rejects blank searches before any request is made.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrTreeGeneration wraps failures of the initial search.
	ErrTreeGeneration = errors.New("tree generation failed")
	// ErrSubtopicGeneration wraps failures to fetch a node's children.
	ErrSubtopicGeneration = errors.New("subtopic generation failed")
	// ErrNodeNotFound is returned for unknown node IDs.
	ErrNodeNotFound = errors.New("node not found")
)

// Outcome describes what Expand did to a node.
type Outcome string

const (
	OutcomeExpanded  Outcome = "expanded"
	OutcomeCollapsed Outcome = "collapsed"
	// OutcomeIgnored means a request for the node was already in flight.
	OutcomeIgnored Outcome = "ignored"
	OutcomeFailed  Outcome = "failed"
)

// ErrorCode maps a Generate error to the code shown on the error screen.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery):
		return "invalid_query"
	default:
		return "generation_failed"
	}
}

// Recorder observes expansion outcomes, e.g. for metrics.
type Recorder interface {
	ObserveExpand(outcome Outcome, fetched bool)
}

// ExpandResult reports one Expand call. Node is a copy taken after the
// call; Fetched is true when a subtopic request was made.
type ExpandResult struct {
	Outcome Outcome `json:"outcome"`
	Fetched bool    `json:"fetched"`
	Node    *Node   `json:"node"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder attaches an outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// Controller owns one tree and mediates expansion of its nodes. It is safe
// for concurrent use; requests for different nodes run concurrently while
// each node has at most one request in flight.
type Controller struct {
	gen      Generator
	logger   *zap.Logger
	recorder Recorder

	mu    sync.Mutex
	query string
	root  *Node
	index map[string]*Node
	focus string
}

func newController(gen Generator, opts []Option) *Controller {
	c := &Controller{
		gen:    gen,
		logger: zap.NewNop(),
		index:  make(map[string]*Node),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate runs the top-level search for query and returns a controller
// rooted at the generated topic.
func Generate(ctx context.Context, gen Generator, query string, opts ...Option) (*Controller, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	c := newController(gen, opts)
	topic, err := gen.Topic(ctx, query)
	if err != nil {
		c.logger.Error("tree generation failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTreeGeneration, err)
	}

	root := &Node{
		ID:          uuid.NewString(),
		Name:        topic.Name,
		Description: topic.Description,
		State:       NotFetched,
	}
	if topic.Children != nil {
		root.Children = c.newChildren(topic.Children, 1)
		root.State = Fetched
		root.Expanded = true
	}

	c.query = query
	c.root = root
	c.reindex()
	c.focus = root.ID
	return c, nil
}

// Restore rebuilds a controller from a saved snapshot. Nodes that were
// mid-fetch when saved come back as NotFetched.
func Restore(gen Generator, snap Snapshot, opts ...Option) (*Controller, error) {
	if snap.Root == nil {
		return nil, fmt.Errorf("restoring tree: snapshot has no root")
	}
	c := newController(gen, opts)
	c.query = snap.Query
	c.root = snap.Root.Clone()
	var fix func(n *Node, depth int)
	fix = func(n *Node, depth int) {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		n.Depth = depth
		if n.State == Fetching || n.State == "" {
			n.State = NotFetched
		}
		if n.State == NotFetched {
			n.Children = nil
			n.Expanded = false
		}
		for _, child := range n.Children {
			fix(child, depth+1)
		}
	}
	fix(c.root, 0)
	c.reindex()
	c.focus = c.root.ID
	return c, nil
}

func (c *Controller) newChildren(topics []Topic, depth int) []*Node {
	children := make([]*Node, 0, len(topics))
	for _, t := range topics {
		children = append(children, &Node{
			ID:          uuid.NewString(),
			Name:        t.Name,
			Description: t.Description,
			Depth:       depth,
			State:       NotFetched,
		})
	}
	return children
}

// reindex rebuilds the ID index. Callers hold c.mu or own c exclusively.
func (c *Controller) reindex() {
	c.index = make(map[string]*Node)
	c.root.Walk(func(n *Node) bool {
		c.index[n.ID] = n
		return true
	})
}

// Expand toggles node id:
//   - expanded with fetched children: collapse, keeping the children;
//   - fetched but collapsed: show the cached children;
//   - not fetched: request subtopics once and show them.
//
// A call made while the node's request is in flight is ignored. When the
// request fails the node stays collapsed without children and the error
// wraps ErrSubtopicGeneration.
func (c *Controller) Expand(ctx context.Context, id string) (ExpandResult, error) {
	c.mu.Lock()
	n, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return ExpandResult{}, ErrNodeNotFound
	}

	switch n.State {
	case Fetching:
		res := ExpandResult{Outcome: OutcomeIgnored, Node: n.Clone()}
		c.mu.Unlock()
		c.record(res.Outcome, false)
		return res, nil

	case Fetched:
		n.Expanded = !n.Expanded
		res := ExpandResult{Outcome: OutcomeCollapsed}
		if n.Expanded {
			res.Outcome = OutcomeExpanded
			c.focus = n.ID
		}
		res.Node = n.Clone()
		c.mu.Unlock()
		c.record(res.Outcome, false)
		return res, nil
	}

	n.State = Fetching
	name, depth := n.Name, n.Depth
	c.mu.Unlock()

	topics, err := c.gen.Subtopics(ctx, name)

	c.mu.Lock()
	if err != nil {
		n.State = NotFetched
		n.Expanded = false
		n.Children = nil
		res := ExpandResult{Outcome: OutcomeFailed, Fetched: true, Node: n.Clone()}
		c.mu.Unlock()
		c.logger.Warn("subtopic generation failed", zap.String("node", name), zap.Error(err))
		c.record(res.Outcome, true)
		return res, fmt.Errorf("%w for %q: %v", ErrSubtopicGeneration, name, err)
	}

	n.Children = c.newChildren(topics, depth+1)
	for _, child := range n.Children {
		c.index[child.ID] = child
	}
	n.State = Fetched
	n.Expanded = true
	c.focus = n.ID
	res := ExpandResult{Outcome: OutcomeExpanded, Fetched: true, Node: n.Clone()}
	c.mu.Unlock()

	c.logger.Debug("node expanded", zap.String("node", name), zap.Int("children", len(topics)))
	c.record(res.Outcome, true)
	return res, nil
}

func (c *Controller) record(o Outcome, fetched bool) {
	if c.recorder != nil {
		c.recorder.ObserveExpand(o, fetched)
	}
}

// ProgressFunc is told about each node handled by ExpandToDepth.
type ProgressFunc func(done, total int, name string)

// ExpandToDepth opens every node above depth, level by level, running at
// most workers subtopic requests at once. Nodes whose request fails are
// left collapsed and skipped; only cancellation of ctx is returned.
func (c *Controller) ExpandToDepth(ctx context.Context, depth, workers int, progress ProgressFunc) error {
	if workers <= 0 {
		workers = 1
	}
	done := 0
	for level := 0; level < depth; level++ {
		ids := c.closedAt(level)
		if len(ids) == 0 {
			continue
		}

		var g errgroup.Group
		g.SetLimit(workers)
		var mu sync.Mutex
		for _, id := range ids {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := c.Expand(ctx, id)
				if err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				if progress != nil {
					mu.Lock()
					done++
					name := ""
					if res.Node != nil {
						name = res.Node.Name
					}
					progress(done, len(ids), name)
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		done = 0
	}
	return nil
}

// closedAt returns the IDs of reachable nodes at depth that are not
// showing their children yet.
func (c *Controller) closedAt(depth int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	c.root.Walk(func(n *Node) bool {
		if n.Depth == depth {
			if n.State != Fetching && !n.Expanded {
				ids = append(ids, n.ID)
			}
			return false
		}
		return n.Expanded
	})
	return ids
}

// Query returns the search text the tree was generated from.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Root returns a copy of the whole tree.
func (c *Controller) Root() *Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.root.Clone()
}

// Node returns a copy of node id.
func (c *Controller) Node(id string) (*Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.index[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n.Clone(), nil
}

// Focus returns the node whose subtree was most recently revealed; the
// client scrolls it into the centre of the viewport.
func (c *Controller) Focus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// Snapshot is the persisted form of a tree.
type Snapshot struct {
	Query string `json:"query"`
	Root  *Node  `json:"root"`
}

// Snapshot returns a copy suitable for saving.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Query: c.query, Root: c.root.Clone()}
}
