package tools

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	m "github.com/nieveai/content-crew/internal/models"
)

// GoogleSearch queries a Google Programmable Search Engine.
type GoogleSearch struct {
	svc     *customsearch.Service
	cx      string
	results int
}

func NewGoogleSearch(ctx context.Context, apiKey, cx string, results int, opts ...option.ClientOption) (*GoogleSearch, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}
	return &GoogleSearch{svc: svc, cx: cx, results: clampResults(results)}, nil
}

func (g *GoogleSearch) Name() string { return "Search the internet with Google" }

func (g *GoogleSearch) Description() string {
	return "A tool that searches the web through a Google Programmable Search Engine."
}

func (g *GoogleSearch) Run(ctx context.Context, input m.ToolInput) (*m.ToolResult, error) {
	res, err := g.svc.Cse.List().
		Cx(g.cx).
		Q(input.Query).
		Num(int64(g.results)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}

	sources := make([]m.Source, 0, len(res.Items))
	for _, item := range res.Items {
		sources = append(sources, m.Source{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return &m.ToolResult{
		Tool:    g.Name(),
		Query:   input.Query,
		Text:    FormatSources(sources),
		Sources: sources,
	}, nil
}
