package interfaces

import "context"

// PresentationPage is the scraped ESP portal presentation page.
type PresentationPage struct {
	URL         string
	Title       string
	Markdown    string   // rendered page content as markdown, for LLM input
	ProductURLs []string // per-product detail links found on the page
	PDFLinks    []string // downloadable document links found on the page
}

// Scraper fetches and parses rendered portal pages.
type Scraper interface {
	// FetchPresentation renders the presentation page (JavaScript
	// included) and extracts its product roster.
	FetchPresentation(ctx context.Context, url string) (*PresentationPage, error)
}
