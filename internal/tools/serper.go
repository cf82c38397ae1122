package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	m "github.com/nieveai/content-crew/internal/models"
)

const serperURL = "https://google.serper.dev/search"

// SerperSearch queries the Serper Google search API.
type SerperSearch struct {
	APIKey  string
	Results int

	BaseURL    string
	HTTPClient *http.Client
}

func NewSerperSearch(apiKey string, results int) *SerperSearch {
	return &SerperSearch{
		APIKey:     apiKey,
		Results:    clampResults(results),
		BaseURL:    serperURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SerperSearch) Name() string { return "Search the internet with Serper" }

func (s *SerperSearch) Description() string {
	return "A tool that can be used to search the internet with a search_query. Supports different search types: 'search' (default), 'news'"
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Website     string `json:"website"`
	} `json:"knowledgeGraph,omitempty"`
}

func (s *SerperSearch) Run(ctx context.Context, input m.ToolInput) (*m.ToolResult, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(serperRequest{Q: input.Query, Num: s.Results}); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("serper search error (%d): %s", res.StatusCode, string(b))
	}

	var sr serperResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode serper response: %w", err)
	}

	var sources []m.Source
	if kg := sr.KnowledgeGraph; kg != nil && kg.Website != "" {
		sources = append(sources, m.Source{Title: kg.Title, Link: kg.Website, Snippet: kg.Description})
	}
	for _, o := range sr.Organic {
		if len(sources) >= s.Results {
			break
		}
		sources = append(sources, m.Source{Title: o.Title, Link: o.Link, Snippet: o.Snippet})
	}

	return &m.ToolResult{
		Tool:    s.Name(),
		Query:   input.Query,
		Text:    FormatSources(sources),
		Sources: sources,
	}, nil
}
