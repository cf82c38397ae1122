package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/nieveai/content-crew/internal/logging"
	m "github.com/nieveai/content-crew/internal/models"
)

// PageFetcher returns the readable text of the page at url.
type PageFetcher func(ctx context.Context, url string) (string, error)

// ScrapeWebsite reads the pages found by the search tools that ran before it.
type ScrapeWebsite struct {
	MaxPages int
	MaxChars int
	Timeout  time.Duration
	Fetch    PageFetcher
}

func NewScrapeWebsite(maxPages, maxChars int) *ScrapeWebsite {
	if maxPages <= 0 {
		maxPages = 3
	}
	if maxChars <= 0 {
		maxChars = 4000
	}
	return &ScrapeWebsite{
		MaxPages: maxPages,
		MaxChars: maxChars,
		Timeout:  30 * time.Second,
		Fetch:    FetchPageText,
	}
}

func (s *ScrapeWebsite) Name() string { return "Read website content" }

func (s *ScrapeWebsite) Description() string {
	return "A tool that can be used to read the content of the websites found by the search."
}

func (s *ScrapeWebsite) Run(ctx context.Context, input m.ToolInput) (*m.ToolResult, error) {
	var b strings.Builder
	var read []m.Source
	for _, src := range input.Sources {
		if len(read) >= s.MaxPages {
			break
		}
		if src.Link == "" {
			continue
		}

		pageCtx, cancel := context.WithTimeout(ctx, s.Timeout)
		text, err := s.Fetch(pageCtx, src.Link)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Logger().Warn("Failed to read page", slog.String("url", src.Link), slog.String("error", err.Error()))
			continue
		}

		read = append(read, src)
		fmt.Fprintf(&b, "Content of %s:\n%s\n\n", src.Link, truncateRunes(text, s.MaxChars))
	}

	if len(read) == 0 {
		b.WriteString("No pages could be read.")
	}
	return &m.ToolResult{
		Tool:    s.Name(),
		Query:   input.Query,
		Text:    strings.TrimSpace(b.String()),
		Sources: read,
	}, nil
}

// FetchPageText loads url in a headless browser and returns the visible text
// of the body with scripts and styles removed.
func FetchPageText(ctx context.Context, url string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var res string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Evaluate(`document.querySelectorAll('script, style, noscript, svg, link').forEach(el => el.remove());`, nil),
		chromedp.Text("body", &res, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(res), " "), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
