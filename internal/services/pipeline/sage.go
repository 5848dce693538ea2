// -----------------------------------------------------------------------
// SAGE Pipeline - REST presentation fetch plus per-product enrichment
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/promoparse/internal/models"
	"github.com/ternarybob/promoparse/internal/services/sage"
	"github.com/ternarybob/promoparse/internal/services/state"
)

// runSAGE walks the SAGE stage sequence. Enrichment failures are
// per-product recoverable errors: the presentation already carries sell
// prices, only the net costs of the failing product are lost.
func (s *Service) runSAGE(ctx context.Context, mgr *state.Manager, sourceURL string) (*models.SAGEOutput, error) {
	if s.deps.SAGE == nil {
		return nil, s.fail(mgr, models.StatusSAGECallingAPI, fmt.Errorf("SAGE pipeline is not configured"))
	}

	if err := mgr.Update(models.StatusSAGECallingAPI, nil); err != nil {
		return nil, err
	}
	presID, err := sage.ExtractPresID(sourceURL)
	if err != nil {
		return nil, s.fail(mgr, models.StatusSAGECallingAPI, err)
	}

	output, err := s.deps.SAGE.GetPresentation(ctx, presID)
	if err != nil {
		return nil, s.fail(mgr, models.StatusSAGECallingAPI, err)
	}

	if err := mgr.Update(models.StatusSAGEParsingResponse, nil); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("job_id", mgr.JobID()).
		Str("pres_id", presID).
		Int("products", len(output.Products)).
		Msg("SAGE presentation parsed")

	total := len(output.Products)
	for i := range output.Products {
		product := &output.Products[i]
		item := i + 1
		if err := mgr.Update(models.StatusSAGEEnrichingProducts, &state.Update{
			CurrentItem:     &item,
			TotalItems:      &total,
			CurrentItemName: &product.Name,
		}); err != nil {
			return nil, err
		}

		if err := s.deps.SAGE.GetProductDetail(ctx, product); err != nil {
			s.recordError(mgr, models.StatusSAGEEnrichingProducts,
				fmt.Sprintf("product detail fetch failed: %v", err), sageProductID(product))
		}
	}

	return output, nil
}

func sageProductID(product *models.SAGEProduct) *string {
	if product.SPC != nil && *product.SPC != "" {
		return product.SPC
	}
	return product.ItemNum
}
