// -----------------------------------------------------------------------
// ESP Merge - reconciles the presentation roster with sell sheet data
// -----------------------------------------------------------------------
//
// Sell price comes from the presentation, net cost comes from the
// distributor sell sheet. The merge never crosses the two: roster price
// breaks replace the sheet's customer-facing prices while the sheet's
// net costs are carried over by quantity tier.

package pipeline

import (
	"strings"
	"time"

	"github.com/ternarybob/promoparse/internal/models"
)

// matchSheetLink finds the sell sheet URL for a roster product by
// looking for its CPN or MPN in the link. Links already claimed by
// another product are skipped.
func matchSheetLink(roster *models.PresentationProduct, links []string, used map[string]bool) string {
	for _, token := range []*string{roster.CPN, roster.MPN} {
		if token == nil || *token == "" {
			continue
		}
		needle := strings.ToLower(*token)
		for _, link := range links {
			if !used[link] && strings.Contains(strings.ToLower(link), needle) {
				return link
			}
		}
	}
	return ""
}

// mergeESPOutput builds the raw ESP result from the roster and the
// per-product extractions. Products whose sell sheet was missing or
// failed extraction are carried on roster data alone.
func mergeESPOutput(sourceURL, pageTitle string, listing *models.PresentationListing, docs []*productDoc, jobErrors []models.JobError) *models.ESPOutput {
	output := &models.ESPOutput{
		Metadata: models.ESPMetadata{
			GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
			PresentationURL: sourceURL,
			Client: models.ESPContact{
				Name:    listing.Presentation.ClientName,
				Company: listing.Presentation.ClientCompany,
			},
			Presenter: models.ESPContact{
				Name:    listing.Presentation.PresenterName,
				Company: listing.Presentation.PresenterCompany,
			},
			TotalItems: len(listing.Products),
		},
		Products: make([]models.ESPProduct, 0, len(docs)),
		Errors:   make([]models.UnifiedError, 0, len(jobErrors)),
	}

	output.Metadata.PresentationTitle = listing.Presentation.Title
	if output.Metadata.PresentationTitle == nil && pageTitle != "" {
		output.Metadata.PresentationTitle = &pageTitle
	}

	for _, doc := range docs {
		var product models.ESPProduct
		if doc.extracted != nil {
			product = *doc.extracted
			applyRosterOverrides(&product, doc.roster)
			output.Metadata.ItemsProcessed++
		} else {
			product = productFromRoster(doc.roster)
		}
		output.Products = append(output.Products, product)
	}

	for _, jobErr := range jobErrors {
		output.Errors = append(output.Errors, models.UnifiedError{
			Message:   jobErr.Message,
			ProductID: jobErr.ProductID,
		})
	}
	output.Metadata.TotalErrors = len(output.Errors)

	return output
}

// applyRosterOverrides layers the presentation's customer-facing data
// over a sell sheet extraction.
func applyRosterOverrides(product *models.ESPProduct, roster *models.PresentationProduct) {
	if product.Item.CPN == nil {
		product.Item.CPN = roster.CPN
	}
	if product.Item.MPN == nil {
		product.Item.MPN = roster.MPN
	}
	if len(product.Item.Colors) == 0 {
		product.Item.Colors = roster.Colors
	}

	if len(roster.PriceBreaks) > 0 {
		product.Pricing.Breaks = overlayNetCosts(roster.PriceBreaks, product.Pricing.Breaks)
	}

	if roster.PriceIncludes != nil {
		product.PresentationSellData = &models.ESPSellData{PriceIncludes: roster.PriceIncludes}
		if product.Pricing.PriceIncludes == nil {
			product.Pricing.PriceIncludes = roster.PriceIncludes
		}
	}
	if roster.ImprintSizes != nil {
		product.ImprintSizes = roster.ImprintSizes
	}
	if roster.ImprintLocations != nil {
		product.ImprintLocations = roster.ImprintLocations
	}

	for _, fee := range roster.Fees {
		if !hasFee(product.Fees, fee.Name) {
			product.Fees = append(product.Fees, models.ESPFee{
				Name:      fee.Name,
				ListPrice: fee.ListPrice,
				Notes:     fee.Notes,
			})
		}
	}
}

// overlayNetCosts takes the presentation's price breaks and fills in the
// sell sheet's net cost at each matching quantity tier.
func overlayNetCosts(rosterBreaks, sheetBreaks []models.ESPPriceBreak) []models.ESPPriceBreak {
	netByQty := make(map[int]*float64)
	for _, sheetBreak := range sheetBreaks {
		if sheetBreak.NetCost == nil {
			continue
		}
		if qty := breakQuantity(sheetBreak); qty > 0 {
			netByQty[qty] = sheetBreak.NetCost
		}
	}

	merged := make([]models.ESPPriceBreak, len(rosterBreaks))
	copy(merged, rosterBreaks)
	for i := range merged {
		if merged[i].NetCost == nil {
			merged[i].NetCost = netByQty[breakQuantity(merged[i])]
		}
	}
	return merged
}

func breakQuantity(pb models.ESPPriceBreak) int {
	if pb.MinQty != nil {
		return *pb.MinQty
	}
	if pb.Quantity != nil {
		return *pb.Quantity
	}
	return 0
}

func hasFee(fees []models.ESPFee, name string) bool {
	for _, fee := range fees {
		if strings.EqualFold(fee.Name, name) {
			return true
		}
	}
	return false
}

// productFromRoster builds a minimal product for a roster entry whose
// sell sheet never arrived. The presentation carries no net cost, so
// these products ship with sell prices only.
func productFromRoster(roster *models.PresentationProduct) models.ESPProduct {
	product := models.ESPProduct{
		Item: models.ESPItem{
			Name:            roster.Name,
			CPN:             roster.CPN,
			MPN:             roster.MPN,
			DescriptionLong: roster.Description,
			Colors:          roster.Colors,
		},
		Pricing: models.ESPPricing{
			Breaks:        roster.PriceBreaks,
			PriceIncludes: roster.PriceIncludes,
		},
		ImprintSizes:     roster.ImprintSizes,
		ImprintLocations: roster.ImprintLocations,
	}

	for _, fee := range roster.Fees {
		product.Fees = append(product.Fees, models.ESPFee{
			Name:      fee.Name,
			ListPrice: fee.ListPrice,
			Notes:     fee.Notes,
		})
	}
	return product
}
