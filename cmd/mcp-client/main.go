package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/nieveai/content-crew/internal/config"
	localmcp "github.com/nieveai/content-crew/internal/mcp"
	m "github.com/nieveai/content-crew/internal/models"
	"github.com/nieveai/content-crew/internal/tools"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to the JSON config file")
	envFile := flag.String("env", ".env", "Path to the env file")
	command := flag.String("command", "", "MCP server command (defaults to MCP_SEARCH_COMMAND)")
	toolName := flag.String("tool", "", "Search tool to call")
	query := flag.String("query", "", "Run one search through the tool")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}
	if *command == "" {
		*command = cfg.Search.MCPCommand
	}
	if *toolName == "" {
		*toolName = cfg.Search.MCPTool
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	transport, err := localmcp.CommandTransport(*command)
	if err != nil {
		log.Fatalf("Usage: mcp-client -command '<server command>': %v", err)
	}

	// Connect to the server.
	session, err := localmcp.Connect(ctx, localmcp.NewClient("content-crew-probe", "v1.0.0"), transport)
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	capabilities := localmcp.GetServerCapabilities(session)
	fmt.Printf("Server capabilities: %+v\n", capabilities)

	serverTools, err := localmcp.ListTools(ctx, session)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Tools:")
	for _, t := range serverTools {
		fmt.Printf("  - %s: %s\n", t.Name, t.Description)
	}

	if *query == "" {
		return
	}
	search := tools.NewMCPSearch(session, *toolName, cfg.Search.Results)
	res, err := search.Run(ctx, m.ToolInput{Query: *query})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Text)
	for _, src := range res.Sources {
		fmt.Printf("  source: %s\n", src.Link)
	}
}
