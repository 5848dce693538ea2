// -----------------------------------------------------------------------
// Portal Scraper - renders presentation pages with headless Chrome and
// extracts the product roster for LLM input
// -----------------------------------------------------------------------

package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/interfaces"
)

// Service renders portal pages with chromedp. The portal is a
// JavaScript application, so a plain HTTP fetch returns an empty shell;
// the page needs a real render plus a settle wait.
type Service struct {
	config      *common.ScrapeConfig
	timeout     time.Duration
	settleDelay time.Duration
	logger      arbor.ILogger
}

// NewService creates a portal scraper from configuration.
func NewService(config *common.ScrapeConfig, logger arbor.ILogger) (*Service, error) {
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid request timeout '%s': %w", config.RequestTimeout, err)
	}
	settleDelay, err := time.ParseDuration(config.JavaScriptWaitTime)
	if err != nil {
		return nil, fmt.Errorf("invalid javascript wait time '%s': %w", config.JavaScriptWaitTime, err)
	}

	return &Service{
		config:      config,
		timeout:     timeout,
		settleDelay: settleDelay,
		logger:      logger,
	}, nil
}

func (s *Service) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(s.config.UserAgent),
	)
}

// FetchPresentation renders the presentation page and extracts its
// title, markdown content and product roster links.
func (s *Service) FetchPresentation(ctx context.Context, url string) (*interfaces.PresentationPage, error) {
	s.logger.Info().Str("url", url).Msg("Rendering presentation page")

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	renderCtx, cancelRender := context.WithTimeout(browserCtx, s.timeout)
	defer cancelRender()

	var html, title string
	err := chromedp.Run(renderCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(s.settleDelay),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", url, err)
	}

	page, err := parsePage(url, html)
	if err != nil {
		return nil, err
	}
	if page.Title == "" {
		page.Title = title
	}

	s.logger.Info().
		Str("url", url).
		Int("product_urls", len(page.ProductURLs)).
		Int("pdf_links", len(page.PDFLinks)).
		Msg("Presentation page rendered")

	return page, nil
}
