package mcp

import "github.com/mark3labs/mcp-go/mcp"

// generateMindmapTool defines the generate_mindmap MCP tool.
var generateMindmapTool = mcp.NewTool("generate_mindmap",
	mcp.WithDescription("Generate a knowledge map for a topic and return it as an indented outline of subtopics with one-line descriptions."),
	mcp.WithString("topic",
		mcp.Required(),
		mcp.Description("Topic to map, e.g. \"Plate tectonics\""),
	),
	mcp.WithNumber("depth",
		mcp.Description("How many levels below the root to expand (default 2, max 4)"),
	),
)

// expandTopicTool defines the expand_topic MCP tool.
var expandTopicTool = mcp.NewTool("expand_topic",
	mcp.WithDescription("List the key subtopics of a single concept with a short description of each."),
	mcp.WithString("topic",
		mcp.Required(),
		mcp.Description("Concept to break down"),
	),
)
