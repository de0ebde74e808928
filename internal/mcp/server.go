// Package mcp exposes mind map generation to agents over the Model Context
// Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ziadkadry99/mindmap/internal/tree"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Defaults for generate_mindmap.
const (
	DefaultDepth = 2
	MaxDepth     = 4
)

// Server wraps an MCP server that exposes knowledge tree tools.
type Server struct {
	gen     tree.Generator
	workers int
	logger  *zap.Logger
	mcp     *server.MCPServer
}

// NewServer creates an MCP server generating topics with gen, running at
// most workers subtopic requests at once.
func NewServer(gen tree.Generator, workers int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	s := &Server{
		gen:     gen,
		workers: workers,
		logger:  logger,
	}

	s.mcp = server.NewMCPServer(
		"mindmap",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(generateMindmapTool, s.handleGenerateMindmap)
	s.mcp.AddTool(expandTopicTool, s.handleExpandTopic)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
