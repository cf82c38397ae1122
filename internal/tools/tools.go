// Package tools implements the external capabilities the research analyst
// can use: web search through several providers and reading result pages.
package tools

import (
	"fmt"
	"regexp"
	"strings"

	m "github.com/nieveai/content-crew/internal/models"
)

const maxResults = 10

var urlRe = regexp.MustCompile(`https?://[^\s<>"'\x60]+`)

// clampResults caps a requested result count at what the search APIs return
// in a single page.
func clampResults(n int) int {
	if n <= 0 || n > maxResults {
		return maxResults
	}
	return n
}

// FormatSources renders search results as the text block handed to the model.
func FormatSources(sources []m.Source) string {
	if len(sources) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, s := range sources {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "Title: %s\nLink: %s\n", s.Title, s.Link)
		if s.Snippet != "" {
			fmt.Fprintf(&b, "Snippet: %s\n", s.Snippet)
		}
	}
	return b.String()
}

// ExtractURLs returns the distinct http(s) links in s, in order of first
// appearance, without trailing punctuation.
func ExtractURLs(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, u := range urlRe.FindAllString(s, -1) {
		u = trimURL(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// trimURL drops trailing punctuation. A closing parenthesis stays when it
// balances one inside the URL, as in /wiki/Go_(programming_language).
func trimURL(u string) string {
	for u != "" {
		last := u[len(u)-1]
		switch {
		case last == ')':
			if strings.Count(u, "(") >= strings.Count(u, ")") {
				return u
			}
		case strings.IndexByte(".,;:!?]}*", last) < 0:
			return u
		}
		u = u[:len(u)-1]
	}
	return u
}

// SourcesFromURLs wraps plain links so they can be handed to a reader tool.
func SourcesFromURLs(urls []string) []m.Source {
	sources := make([]m.Source, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, m.Source{Link: u})
	}
	return sources
}
