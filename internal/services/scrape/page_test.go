package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const presentationHTML = `<!DOCTYPE html>
<html>
<head><title>Spring Campaign - Presentation</title></head>
<body>
  <script>window.app = {};</script>
  <h1>Spring Campaign</h1>
  <div class="roster">
    <a href="/projects/500187876/presentations/500183020/products/42">Travel Mug</a>
    <a href="/projects/500187876/presentations/500183020/products/43?tab=pricing">Canvas Tote</a>
    <a href="/projects/500187876/presentations/500183020/products/42">Travel Mug (again)</a>
    <a href="https://cdn.example.com/sellsheets/travel-mug.pdf">Sell sheet</a>
    <a href="#top">Back to top</a>
    <a href="mailto:rep@example.com">Contact</a>
    <a href="/projects/500187876/presentations/500183020">Overview</a>
  </div>
  <table>
    <tr><th>Qty</th><th>Price</th></tr>
    <tr><td>50</td><td>$12.99</td></tr>
  </table>
</body>
</html>`

func TestParsePage(t *testing.T) {
	page, err := parsePage("https://portal.mypromooffice.com/projects/500187876/presentations/500183020/products", presentationHTML)
	require.NoError(t, err)

	assert.Equal(t, "Spring Campaign - Presentation", page.Title)

	assert.Equal(t, []string{
		"https://portal.mypromooffice.com/projects/500187876/presentations/500183020/products/42",
		"https://portal.mypromooffice.com/projects/500187876/presentations/500183020/products/43?tab=pricing",
	}, page.ProductURLs)

	assert.Equal(t, []string{"https://cdn.example.com/sellsheets/travel-mug.pdf"}, page.PDFLinks)

	assert.Contains(t, page.Markdown, "Spring Campaign")
	assert.Contains(t, page.Markdown, "12.99")
	assert.NotContains(t, page.Markdown, "window.app")
}

func TestParsePage_EmptyBody(t *testing.T) {
	page, err := parsePage("https://portal.mypromooffice.com/p/1", "<html><head></head><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, page.ProductURLs)
	assert.Empty(t, page.PDFLinks)
	assert.Empty(t, page.Markdown)
}
