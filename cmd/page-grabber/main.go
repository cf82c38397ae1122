package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	m "github.com/nieveai/content-crew/internal/models"
	"github.com/nieveai/content-crew/internal/tools"
)

func main() {
	maxChars := flag.Int("max-chars", 4000, "Truncate the page text to this many characters (0 for all)")
	timeout := flag.Duration("timeout", 30*time.Second, "Page load timeout")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Please provide a URL as a command-line argument.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(flag.NArg())*(*timeout))
	defer cancel()

	scraper := tools.NewScrapeWebsite(flag.NArg(), *maxChars)
	scraper.Timeout = *timeout
	res, err := scraper.Run(ctx, m.ToolInput{Sources: tools.SourcesFromURLs(flag.Args())})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.Text)
}
