package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	localmcp "github.com/nieveai/content-crew/internal/mcp"
	m "github.com/nieveai/content-crew/internal/models"
)

// ToolCaller is the part of an MCP client session the search tool needs.
type ToolCaller interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

// MCPSearch delegates web search to a tool exposed by an MCP server.
type MCPSearch struct {
	Session  ToolCaller
	ToolName string
	Results  int
}

func NewMCPSearch(session ToolCaller, toolName string, results int) *MCPSearch {
	if toolName == "" {
		toolName = "search"
	}
	return &MCPSearch{Session: session, ToolName: toolName, Results: clampResults(results)}
}

func (s *MCPSearch) Name() string { return "Search the internet via MCP tool " + s.ToolName }

func (s *MCPSearch) Description() string {
	return "A tool that searches the web through a Model Context Protocol server."
}

func (s *MCPSearch) Run(ctx context.Context, input m.ToolInput) (*m.ToolResult, error) {
	res, err := s.Session.CallTool(ctx, &mcp.CallToolParams{
		Name: s.ToolName,
		Arguments: map[string]any{
			"query": input.Query,
			"num":   s.Results,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("MCP tool %s: %w", s.ToolName, err)
	}
	text := localmcp.TextContent(res)
	if res.IsError {
		return nil, fmt.Errorf("MCP tool %s: %w", s.ToolName, errors.New(text))
	}

	var sources []m.Source
	for _, link := range ExtractURLs(text) {
		if len(sources) >= s.Results {
			break
		}
		sources = append(sources, m.Source{Link: link})
	}
	return &m.ToolResult{
		Tool:    s.Name(),
		Query:   input.Query,
		Text:    text,
		Sources: sources,
	}, nil
}
