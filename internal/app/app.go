// Package app wires configuration into a ready-to-use generation pipeline:
// model client, research tools, run store and worker pool.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nieveai/content-crew/internal/agents"
	"github.com/nieveai/content-crew/internal/config"
	"github.com/nieveai/content-crew/internal/database"
	"github.com/nieveai/content-crew/internal/logging"
	localmcp "github.com/nieveai/content-crew/internal/mcp"
	m "github.com/nieveai/content-crew/internal/models"
	"github.com/nieveai/content-crew/internal/tools"
	"github.com/nieveai/content-crew/internal/worker"
)

const (
	clientName    = "content-crew"
	clientVersion = "v1.0.0"
)

type App struct {
	Config    *config.Config
	Model     *m.Model
	Generator *agents.Generator
	Store     database.Datastore
	Pool      *worker.Pool

	graph   *database.CitationGraph
	session *mcp.ClientSession
}

// Build validates cfg and starts the worker pool. Close releases
// everything Build opened.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Verbose {
		logging.EnableVerbose()
	}
	logger := logging.Logger()

	a := &App{Config: cfg, Model: cfg.ModelBinding()}
	a.Model.HostedSearch = cfg.APISpec == m.APISpecGemini && cfg.Search.Provider == config.SearchNone

	client, err := worker.NewLLMClient(ctx, []*m.Model{a.Model})
	if err != nil {
		return nil, err
	}

	researchTools, err := a.buildTools(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	switch {
	case cfg.Database.URL != "":
		store, err := database.NewPostgresDatastore(ctx, cfg.Database.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Store = store
	case cfg.Database.Path == "":
		a.Store = database.NewMemoryDatastore()
	default:
		store, err := database.NewSQLiteDatastore(cfg.Database.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("error opening database: %w", err)
		}
		a.Store = store
	}

	var opts []worker.PoolOption
	opts = append(opts, worker.WithTimeout(cfg.GenerationTimeout()))
	if cfg.Neo4j.Uri != "" {
		graph, err := database.NewCitationGraph(cfg.Neo4j)
		if err != nil {
			// citations are optional, generation still works without them
			logger.Warn("Citation graph disabled", "error", err)
		} else {
			a.graph = graph
			opts = append(opts, worker.WithCitationRecorder(graph))
		}
	}

	a.Generator = &agents.Generator{
		Client: client,
		Model:  a.Model,
		Tools:  researchTools,
		StepCallback: func(out *m.TaskOutput) {
			logger.Debug("Task output", "task", out.Name, "agent", out.Agent, "chars", len(out.Raw))
		},
	}
	a.Pool = worker.NewPool(cfg.Workers, a.Generator, a.Store, opts...)

	logger.Info("Content crew ready",
		"model", a.Model.ID,
		"search", cfg.Search.Provider,
		"scrape", cfg.Scrape.Enabled,
		"workers", cfg.Workers)
	return a, nil
}

func (a *App) buildTools(ctx context.Context) ([]m.Tool, error) {
	cfg := a.Config
	var out []m.Tool

	switch cfg.Search.Provider {
	case config.SearchSerper:
		out = append(out, tools.NewSerperSearch(cfg.Search.SerperAPIKey, cfg.Search.Results))
	case config.SearchGoogle:
		g, err := tools.NewGoogleSearch(ctx, cfg.Search.GoogleAPIKey, cfg.Search.GoogleCSEID, cfg.Search.Results)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	case config.SearchMCP:
		transport, err := localmcp.CommandTransport(cfg.Search.MCPCommand)
		if err != nil {
			return nil, err
		}
		session, err := localmcp.Connect(ctx, localmcp.NewClient(clientName, clientVersion), transport)
		if err != nil {
			return nil, err
		}
		a.session = session
		out = append(out, tools.NewMCPSearch(session, cfg.Search.MCPTool, cfg.Search.Results))
	}

	if cfg.Scrape.Enabled {
		out = append(out, tools.NewScrapeWebsite(cfg.Scrape.MaxPages, cfg.Scrape.MaxChars))
	}
	return out, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.session != nil {
		errs = append(errs, a.session.Close())
	}
	if a.graph != nil {
		errs = append(errs, a.graph.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
