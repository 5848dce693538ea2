// -----------------------------------------------------------------------
// ESP Pipeline - portal scrape, document download and LLM extraction
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
	"github.com/ternarybob/promoparse/internal/services/state"
)

// productDoc tracks one roster product through the lookup, download and
// extraction stages.
type productDoc struct {
	roster    *models.PresentationProduct
	docURL    string
	localPath string
	extracted *models.ESPProduct
}

// runESP walks the ESP stage sequence and returns the raw merged output.
// A nil error with recorded recoverable errors means individual products
// were skipped; a non-nil error means the job already terminated.
func (s *Service) runESP(ctx context.Context, mgr *state.Manager, sourceURL string) (*models.ESPOutput, error) {
	if s.deps.Scraper == nil || s.deps.Extractor == nil {
		return nil, s.fail(mgr, models.StatusESPDownloadingPresentation, fmt.Errorf("ESP pipeline is not configured"))
	}

	if err := mgr.Update(models.StatusESPDownloadingPresentation, nil); err != nil {
		return nil, err
	}
	page, err := s.deps.Scraper.FetchPresentation(ctx, sourceURL)
	if err != nil {
		return nil, s.fail(mgr, models.StatusESPDownloadingPresentation, err)
	}
	s.logger.Info().
		Str("job_id", mgr.JobID()).
		Str("title", page.Title).
		Int("product_urls", len(page.ProductURLs)).
		Int("pdf_links", len(page.PDFLinks)).
		Msg("Presentation page fetched")

	// The first document link on the page is the presentation export;
	// the rest are per-product sell sheets.
	presentationDoc, err := s.fetchPresentationDoc(ctx, mgr, page)
	if err != nil {
		return nil, err
	}

	if err := mgr.Update(models.StatusESPParsingPresentation, nil); err != nil {
		return nil, err
	}
	listing, err := s.deps.Extractor.ExtractPresentation(ctx, presentationDoc)
	if err != nil {
		return nil, s.fail(mgr, models.StatusESPParsingPresentation, err)
	}
	mgr.EmitEvent(models.AgentExtractor, models.EventObservation, fmt.Sprintf("Presentation roster extracted: %d products", len(listing.Products)), nil, nil)

	if err := mgr.Update(models.StatusESPLookingUpProducts, nil); err != nil {
		return nil, err
	}
	docs := s.lookupProductDocs(mgr, listing, page)

	if err := s.downloadProductDocs(ctx, mgr, docs); err != nil {
		return nil, err
	}
	if err := s.parseProductDocs(ctx, mgr, docs); err != nil {
		return nil, err
	}

	if err := mgr.Update(models.StatusESPMergingData, nil); err != nil {
		return nil, err
	}
	output := mergeESPOutput(sourceURL, page.Title, listing, docs, mgr.Snapshot().Errors)
	return output, nil
}

// fetchPresentationDoc downloads and validates the presentation export,
// falling back to the rendered page markdown when the page offers no
// document link. The export, when present, is re-uploaded so the
// dashboard can link it.
func (s *Service) fetchPresentationDoc(ctx context.Context, mgr *state.Manager, page *interfaces.PresentationPage) ([]byte, error) {
	if len(page.PDFLinks) == 0 {
		s.logger.Debug().Str("job_id", mgr.JobID()).Msg("No presentation document link, extracting from rendered page")
		if err := mgr.Update(models.StatusESPUploadingTransfer, nil); err != nil {
			return nil, err
		}
		return []byte(page.Markdown), nil
	}

	localPath, err := s.deps.Transfer.Download(ctx, page.PDFLinks[0])
	if err != nil {
		return nil, s.fail(mgr, models.StatusESPDownloadingPresentation, err)
	}
	docBytes, info, err := s.deps.Checker.Read(localPath)
	if err != nil {
		return nil, s.fail(mgr, models.StatusESPDownloadingPresentation, err)
	}
	s.logger.Debug().
		Str("job_id", mgr.JobID()).
		Int("pages", info.PageCount).
		Int64("bytes", info.SizeBytes).
		Msg("Presentation document validated")

	if err := mgr.Update(models.StatusESPUploadingTransfer, nil); err != nil {
		return nil, err
	}
	publicURL, err := s.deps.Transfer.Upload(ctx, localPath)
	if err != nil {
		// The local copy is already parsed; only the dashboard link is lost
		s.recordError(mgr, models.StatusESPUploadingTransfer, fmt.Sprintf("presentation upload failed: %v", err), nil)
	} else if err := mgr.SetLink(models.LinkPresentationPDF, publicURL); err != nil {
		return nil, err
	}

	return docBytes, nil
}

// lookupProductDocs pairs each roster product with its sell sheet link.
// Products without a matching document are recorded and carried forward
// on roster data alone.
func (s *Service) lookupProductDocs(mgr *state.Manager, listing *models.PresentationListing, page *interfaces.PresentationPage) []*productDoc {
	sheetLinks := page.PDFLinks
	if len(sheetLinks) > 0 {
		sheetLinks = sheetLinks[1:]
	}

	docs := make([]*productDoc, 0, len(listing.Products))
	used := make(map[string]bool)

	for i := range listing.Products {
		roster := &listing.Products[i]
		doc := &productDoc{roster: roster}

		if url := matchSheetLink(roster, sheetLinks, used); url != "" {
			doc.docURL = url
			used[url] = true
		} else {
			s.recordError(mgr, models.StatusESPLookingUpProducts,
				fmt.Sprintf("no sell sheet found for '%s'", roster.Name), roster.CPN)
		}
		docs = append(docs, doc)
	}
	return docs
}

func (s *Service) downloadProductDocs(ctx context.Context, mgr *state.Manager, docs []*productDoc) error {
	total := len(docs)
	for i, doc := range docs {
		if doc.docURL == "" {
			continue
		}
		item := i + 1
		if err := mgr.Update(models.StatusESPDownloadingProducts, &state.Update{
			CurrentItem:     &item,
			TotalItems:      &total,
			CurrentItemName: &doc.roster.Name,
		}); err != nil {
			return err
		}

		localPath, err := s.deps.Transfer.Download(ctx, doc.docURL)
		if err != nil {
			s.recordError(mgr, models.StatusESPDownloadingProducts,
				fmt.Sprintf("sell sheet download failed: %v", err), doc.roster.CPN)
			doc.docURL = ""
			continue
		}
		doc.localPath = localPath
	}
	return nil
}

func (s *Service) parseProductDocs(ctx context.Context, mgr *state.Manager, docs []*productDoc) error {
	total := len(docs)
	for i, doc := range docs {
		if doc.localPath == "" {
			continue
		}
		item := i + 1
		if err := mgr.Update(models.StatusESPParsingProducts, &state.Update{
			CurrentItem:     &item,
			TotalItems:      &total,
			CurrentItemName: &doc.roster.Name,
		}); err != nil {
			return err
		}

		docBytes, _, err := s.deps.Checker.Read(doc.localPath)
		if err != nil {
			s.recordError(mgr, models.StatusESPParsingProducts,
				fmt.Sprintf("sell sheet unreadable: %v", err), doc.roster.CPN)
			continue
		}

		product, err := s.deps.Extractor.ExtractSellSheet(ctx, docBytes)
		if err != nil {
			s.recordError(mgr, models.StatusESPParsingProducts,
				fmt.Sprintf("sell sheet extraction failed: %v", err), doc.roster.CPN)
			continue
		}
		doc.extracted = product
	}
	return nil
}
