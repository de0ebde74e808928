package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ziadkadry99/mindmap/internal/tree"
)

// handleGenerateMindmap builds a tree for topic and expands it to depth.
func (s *Server) handleGenerateMindmap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := request.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: topic"), nil
	}

	depth := request.GetInt("depth", DefaultDepth)
	if depth < 1 {
		depth = 1
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	c, err := tree.Generate(ctx, s.gen, topic, tree.WithLogger(s.logger))
	if errors.Is(err, tree.ErrEmptyQuery) {
		return mcp.NewToolResultError("topic must not be empty"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	if err := c.ExpandToDepth(ctx, depth, s.workers, nil); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("expansion cancelled: %v", err)), nil
	}
	s.logger.Debug("mindmap generated", zap.String("topic", topic), zap.Int("depth", depth))

	return mcp.NewToolResultText(tree.Outline(c.Root(), false)), nil
}

// handleExpandTopic returns the subtopics of one concept.
func (s *Server) handleExpandTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := request.RequireString("topic")
	if err != nil || strings.TrimSpace(topic) == "" {
		return mcp.NewToolResultError("missing required parameter: topic"), nil
	}

	children, err := s.gen.Subtopics(ctx, topic)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("subtopic generation failed: %v", err)), nil
	}
	if len(children) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No subtopics found for %q.", topic)), nil
	}

	return mcp.NewToolResultText(formatSubtopics(topic, children)), nil
}

// formatSubtopics renders a flat subtopic list for agent consumption.
func formatSubtopics(topic string, children []tree.Topic) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subtopics of %s (%d):\n", topic, len(children)))
	for _, c := range children {
		sb.WriteString("- ")
		sb.WriteString(c.Name)
		if c.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(c.Description)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
