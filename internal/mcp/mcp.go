package mcp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func NewClient(name, version string) *mcp.Client {
	return mcp.NewClient(&mcp.Implementation{Name: name, Version: version}, nil)
}

func Connect(ctx context.Context, client *mcp.Client, transport mcp.Transport) (*mcp.ClientSession, error) {
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server: %w", err)
	}
	return session, nil
}

// CommandTransport starts command (split on whitespace) as a subprocess
// speaking MCP over stdio.
func CommandTransport(command string) (mcp.Transport, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty MCP server command")
	}
	return mcp.NewCommandTransport(exec.Command(fields[0], fields[1:]...)), nil
}

func GetServerCapabilities(session *mcp.ClientSession) *mcp.ServerCapabilities {
	return session.InitializeResult().Capabilities
}

func ListTools(ctx context.Context, session *mcp.ClientSession) ([]*mcp.Tool, error) {
	res, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("MCP list tools error: %w", err)
	}
	return res.Tools, nil
}

// TextContent joins the text parts of a tool result.
func TextContent(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	var parts []string
	for _, c := range res.Content {
		if t, ok := c.(*mcp.TextContent); ok && t.Text != "" {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}
