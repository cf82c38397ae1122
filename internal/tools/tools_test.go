package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	m "github.com/nieveai/content-crew/internal/models"
)

func TestSerperSearch(t *testing.T) {
	var got serperRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "serper-key", r.Header.Get("X-API-KEY"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"organic": [
				{"title": "Go 1.24", "link": "https://go.dev/blog/go1.24", "snippet": "Release notes", "position": 1},
				{"title": "Generics", "link": "https://go.dev/doc/tutorial/generics", "snippet": "Tutorial", "position": 2}
			]
		}`))
	}))
	defer srv.Close()

	s := NewSerperSearch("serper-key", 25)
	s.BaseURL = srv.URL
	res, err := s.Run(t.Context(), m.ToolInput{Query: "golang news"})
	require.NoError(t, err)

	assert.Equal(t, serperRequest{Q: "golang news", Num: 10}, got)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "https://go.dev/blog/go1.24", res.Sources[0].Link)
	assert.Contains(t, res.Text, "Title: Generics")
	assert.Contains(t, res.Text, "Snippet: Release notes")
}

func TestSerperSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized.", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSerperSearch("bad", 10)
	s.BaseURL = srv.URL
	_, err := s.Run(t.Context(), m.ToolInput{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Unauthorized.")
}

func TestGoogleSearch(t *testing.T) {
	var query, cx, num string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		cx = r.URL.Query().Get("cx")
		num = r.URL.Query().Get("num")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [{"title": "Go", "link": "https://go.dev", "snippet": "The Go language"}]}`))
	}))
	defer srv.Close()

	g, err := NewGoogleSearch(t.Context(), "g-key", "engine-1", 4,
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	res, err := g.Run(t.Context(), m.ToolInput{Query: "golang"})
	require.NoError(t, err)
	assert.Equal(t, "golang", query)
	assert.Equal(t, "engine-1", cx)
	assert.Equal(t, "4", num)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, m.Source{Title: "Go", Link: "https://go.dev", Snippet: "The Go language"}, res.Sources[0])
}

type fakeCaller struct {
	params *mcp.CallToolParams
	result *mcp.CallToolResult
	err    error
}

func (f *fakeCaller) CallTool(_ context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	f.params = params
	return f.result, f.err
}

func TestMCPSearch(t *testing.T) {
	caller := &fakeCaller{result: &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "1. Go blog https://go.dev/blog\n2. Tour (https://go.dev/tour)."},
		},
	}}
	s := NewMCPSearch(caller, "", 10)

	res, err := s.Run(t.Context(), m.ToolInput{Query: "go"})
	require.NoError(t, err)
	assert.Equal(t, "search", caller.params.Name)
	assert.Equal(t, map[string]any{"query": "go", "num": 10}, caller.params.Arguments)
	assert.Equal(t, []m.Source{{Link: "https://go.dev/blog"}, {Link: "https://go.dev/tour"}}, res.Sources)
	assert.Contains(t, res.Text, "Go blog")
}

func TestMCPSearchToolError(t *testing.T) {
	caller := &fakeCaller{result: &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "quota exceeded"}},
	}}
	_, err := NewMCPSearch(caller, "web_search", 5).Run(t.Context(), m.ToolInput{Query: "go"})
	assert.ErrorContains(t, err, "quota exceeded")

	caller = &fakeCaller{err: errors.New("broken pipe")}
	_, err = NewMCPSearch(caller, "web_search", 5).Run(t.Context(), m.ToolInput{Query: "go"})
	assert.ErrorContains(t, err, "broken pipe")
}

func TestScrapeWebsiteReadsTopSources(t *testing.T) {
	var fetched []string
	s := NewScrapeWebsite(2, 5)
	s.Fetch = func(_ context.Context, url string) (string, error) {
		fetched = append(fetched, url)
		if strings.Contains(url, "broken") {
			return "", errors.New("net::ERR_NAME_NOT_RESOLVED")
		}
		return "abcdefghij", nil
	}

	res, err := s.Run(t.Context(), m.ToolInput{Sources: []m.Source{
		{Link: "https://a.example"},
		{Link: ""},
		{Link: "https://broken.example"},
		{Link: "https://b.example"},
		{Link: "https://c.example"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://broken.example", "https://b.example"}, fetched)
	require.Len(t, res.Sources, 2)
	assert.Contains(t, res.Text, "Content of https://a.example:\nabcde...")
	assert.NotContains(t, res.Text, "c.example")
}

func TestScrapeWebsiteNoSources(t *testing.T) {
	res, err := NewScrapeWebsite(0, 0).Run(t.Context(), m.ToolInput{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, "No pages could be read.", res.Text)
}

func TestExtractURLs(t *testing.T) {
	text := "See [Go](https://go.dev/doc). Also https://go.dev/doc, and <https://pkg.go.dev/fmt>."
	assert.Equal(t, []string{"https://go.dev/doc", "https://pkg.go.dev/fmt"}, ExtractURLs(text))
	assert.Empty(t, ExtractURLs("no links"))
}

func TestExtractURLsKeepsBalancedParentheses(t *testing.T) {
	text := "Read https://en.wikipedia.org/wiki/Go_(programming_language). " +
		"[Source: https://en.wikipedia.org/wiki/Rust_(programming_language)] " +
		"(see https://go.dev/ref/spec)."
	assert.Equal(t, []string{
		"https://en.wikipedia.org/wiki/Go_(programming_language)",
		"https://en.wikipedia.org/wiki/Rust_(programming_language)",
		"https://go.dev/ref/spec",
	}, ExtractURLs(text))
}

func TestFormatSources(t *testing.T) {
	assert.Equal(t, "No results found.", FormatSources(nil))
	out := FormatSources([]m.Source{{Title: "A", Link: "https://a"}, {Title: "B", Link: "https://b"}})
	assert.Equal(t, "Title: A\nLink: https://a\n\n---\nTitle: B\nLink: https://b\n", out)
}

func TestSourcesFromURLs(t *testing.T) {
	assert.Equal(t, []m.Source{{Link: "https://a.example"}, {Link: "https://b.example"}},
		SourcesFromURLs([]string{"https://a.example", "https://b.example"}))
	assert.Empty(t, SourcesFromURLs(nil))
}
