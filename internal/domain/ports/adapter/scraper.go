package adapter

import "context"

// Scraper extracts readable text from a web page. Best effort: callers treat
// short output as insufficient content, not as an error.
type Scraper interface {
	ScrapeURL(ctx context.Context, url string) (string, error)
}
