package scrape

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/promoparse/internal/interfaces"
)

// productPathPattern matches per-product detail paths on the portal,
// e.g. /projects/500187876/presentations/500183020/products/42.
var productPathPattern = regexp.MustCompile(`/products/[A-Za-z0-9-]+/?$`)

// parsePage extracts the roster and markdown content from rendered
// presentation HTML.
func parsePage(pageURL, html string) (*interfaces.PresentationPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
	}

	page := &interfaces.PresentationPage{
		URL:   pageURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved := resolveLink(base, href)
		if resolved == "" || seen[resolved] {
			return
		}

		switch {
		case isPDFLink(resolved):
			seen[resolved] = true
			page.PDFLinks = append(page.PDFLinks, resolved)
		case productPathPattern.MatchString(strings.Split(resolved, "?")[0]):
			seen[resolved] = true
			page.ProductURLs = append(page.ProductURLs, resolved)
		}
	})

	page.Markdown = toMarkdown(doc)

	return page, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

func isPDFLink(link string) bool {
	path := strings.ToLower(strings.Split(link, "?")[0])
	return strings.HasSuffix(path, ".pdf")
}

// toMarkdown converts the page body to markdown for LLM input. Script
// and style noise is stripped first.
func toMarkdown(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}

	clone := body.Clone()
	clone.Find("script, style, noscript, iframe").Remove()

	html, err := clone.Html()
	if err != nil {
		return strings.TrimSpace(clone.Text())
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(clone.Text())
	}
	return strings.TrimSpace(markdown)
}
