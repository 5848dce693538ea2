package normalizer

import (
	"fmt"
	"strings"

	"github.com/ternarybob/promoparse/internal/models"
)

// sagePricingSources documents where each SAGE price field originates,
// used when the API response does not carry its own attribution.
var sagePricingSources = map[string]string{
	"sell_price":    "From SAGE Presentation API (serviceId 301)",
	"net_cost":      "From SAGE Full Product Detail API (serviceId 105)",
	"catalog_price": "MSRP/List price from catalog",
}

// sageFeeFields maps SAGE's individual per-order charge fields onto
// unified fee entries.
var sageFeeFields = []struct {
	feeType string
	name    string
	value   func(*models.SAGEProduct) *float64
}{
	{"setup", "Setup Charge", func(p *models.SAGEProduct) *float64 { return p.SetupCharge }},
	{"repeat", "Repeat/Reorder Charge", func(p *models.SAGEProduct) *float64 { return p.RepeatCharge }},
	{"screen", "Screen Charge", func(p *models.SAGEProduct) *float64 { return p.ScreenCharge }},
	{"proof", "Proof Charge", func(p *models.SAGEProduct) *float64 { return p.ProofCharge }},
	{"pms", "PMS Color Match Charge", func(p *models.SAGEProduct) *float64 { return p.PMSCharge }},
	{"sample", "Spec Sample Charge", func(p *models.SAGEProduct) *float64 { return p.SpecSampleCharge }},
	{"copy_change", "Copy Change Charge", func(p *models.SAGEProduct) *float64 { return p.CopyChangeCharge }},
}

// NormalizeSAGE transforms raw SAGE API output into the unified schema.
func NormalizeSAGE(data *models.SAGEOutput) *models.UnifiedOutput {
	presentationURL := ""
	if data.Metadata.PresentationURL != nil {
		presentationURL = *data.Metadata.PresentationURL
	} else if data.PresentationURL != nil {
		presentationURL = *data.PresentationURL
	}

	totalItems := data.Metadata.TotalItems
	if totalItems == 0 {
		totalItems = data.Metadata.ItemCount
	}

	pricingSources := data.Metadata.PricingSources
	if pricingSources == nil {
		pricingSources = sagePricingSources
	}

	products := make([]models.UnifiedProduct, 0, len(data.Products))
	for i := range data.Products {
		products = append(products, normalizeSAGEProduct(&data.Products[i]))
	}

	errors := []models.UnifiedError{}
	if data.Error != nil {
		errors = append(errors, models.UnifiedError{Message: *data.Error})
	}

	return &models.UnifiedOutput{
		Success: data.Success,
		Metadata: models.UnifiedMetadata{
			GeneratedAt:       data.Metadata.GeneratedAt,
			Source:            SourceSAGE,
			PresentationURL:   presentationURL,
			PresentationTitle: data.Metadata.PresentationTitle,
			PresentationDate:  data.Metadata.PresentationDate,
			PresID:            data.PresID,
			TotalItems:        totalItems,
			ItemsProcessed:    data.Metadata.ItemCount,
			Errors:            0,
			APIVersion:        data.Metadata.APIVersion,
			PricingSources:    pricingSources,
		},
		Client: models.UnifiedClient{
			ID:      data.Client.ID,
			Name:    data.Client.Name,
			Company: data.Client.Company,
			Email:   data.Client.Email,
			Phone:   data.Client.Phone,
			TaxRate: data.Client.TaxRate,
		},
		Presenter: models.UnifiedPresenter{
			Name:    data.Presenter.Name,
			Company: data.Presenter.Company,
			Phone:   data.Presenter.Phone,
			Website: data.Presenter.Website,
		},
		Products: products,
		Errors:   errors,
	}
}

func normalizeSAGEProduct(product *models.SAGEProduct) models.UnifiedProduct {
	// internal_item_num is SAGE's vendor item number and doubles as the
	// MPN for CRM matching.
	identifiers := models.UnifiedIdentifiers{
		MPN:             product.InternalItemNum,
		VendorSKU:       product.InternalItemNum,
		SPC:             product.SPC,
		ProdID:          product.ProdID,
		EncryptedProdID: product.EncryptedProdID,
		PresItemID:      product.PresItemID,
		InternalItemNum: product.InternalItemNum,
		ItemNum:         product.ItemNum,
	}

	categories := []string{}
	if product.Category != nil && *product.Category != "" {
		categories = append(categories, *product.Category)
	}

	themes := []string{}
	if product.Themes != nil {
		for _, theme := range strings.Split(*product.Themes, ",") {
			if trimmed := strings.TrimSpace(theme); trimmed != "" {
				themes = append(themes, trimmed)
			}
		}
	}

	var sustainabilityParts []string
	if product.Recyclable {
		sustainabilityParts = append(sustainabilityParts, "Recyclable")
	}
	if product.EnvFriendly {
		sustainabilityParts = append(sustainabilityParts, "Environmentally Friendly")
	}
	var sustainability *string
	if len(sustainabilityParts) > 0 {
		sustainability = strPtr(strings.Join(sustainabilityParts, ", "))
	}

	var dimensions *models.UnifiedDimensions
	if product.Dimensions != nil {
		dimensions = &models.UnifiedDimensions{Raw: product.Dimensions}
	}

	vendor := models.UnifiedVendor{Name: ""}
	if product.Supplier != nil {
		supplier := product.Supplier
		vendor = models.UnifiedVendor{
			Name:     supplier.Name,
			Website:  supplier.Website,
			SAGEID:   supplier.SAGEID,
			Email:    supplier.Email,
			Phone:    supplier.Phone,
			LineName: supplier.LineName,
		}
		if supplier.City != nil {
			vendor.Address = &models.UnifiedAddress{
				City:       supplier.City,
				State:      supplier.State,
				PostalCode: supplier.ZipCode,
			}
		}
	}

	breaks := make([]models.UnifiedPriceBreak, 0, len(product.PriceBreaks))
	for _, brk := range product.PriceBreaks {
		margin, marginPct := margins(brk.SellPrice, brk.NetCost)
		breaks = append(breaks, models.UnifiedPriceBreak{
			Quantity:      brk.Quantity,
			UnitPrice:     brk.SellPrice,
			NetCost:       brk.NetCost,
			CatalogPrice:  brk.CatalogPrice,
			Margin:        margin,
			MarginPercent: marginPct,
		})
	}

	fees := []models.UnifiedFee{}
	for _, mapping := range sageFeeFields {
		value := mapping.value(product)
		if value == nil || *value <= 0 {
			continue
		}
		fee := models.UnifiedFee{
			FeeType:     mapping.feeType,
			Name:        mapping.name,
			ListPrice:   value,
			NetCost:     value, // SAGE reports a single charge amount
			ChargeBasis: strPtr("per_order"),
		}
		if mapping.feeType == "setup" {
			fee.PriceCode = product.SetupChargeCode
		}
		fees = append(fees, fee)
	}

	methods := []models.UnifiedDecorationMethod{}
	if product.DecorationMethod != nil && *product.DecorationMethod != "" {
		methods = append(methods, models.UnifiedDecorationMethod{Name: *product.DecorationMethod})
	}

	// Imprint areas arrive as free text; fold them into one block.
	var imprintAreas []string
	if product.ImprintArea != nil {
		imprintAreas = append(imprintAreas, joinLocArea(product.ImprintLoc, *product.ImprintArea))
	}
	if product.SecondImprintArea != nil {
		imprintAreas = append(imprintAreas, joinLocArea(product.SecondImprintLoc, *product.SecondImprintArea))
	}
	var multiColorDesc *string
	if len(imprintAreas) > 0 {
		multiColorDesc = strPtr(strings.Join(imprintAreas, "\n"))
	}

	fobPoints := []models.UnifiedFOBPoint{}
	if product.ShipPoint != nil {
		// Ship point is typically a zip code.
		fobPoints = append(fobPoints, models.UnifiedFOBPoint{PostalCode: product.ShipPoint})
	}

	leadTime := product.ProdTime
	if leadTime == nil && product.PackagingText != nil &&
		strings.Contains(strings.ToLower(*product.PackagingText), "production time") {
		leadTime = product.PackagingText
	}

	images := product.ImageURLs
	if images == nil {
		images = []string{}
	}

	return models.UnifiedProduct{
		Source:      SourceSAGE,
		Identifiers: identifiers,
		Item: models.UnifiedItem{
			Name:           product.Name,
			Description:    product.Description,
			Categories:     categories,
			Themes:         themes,
			Materials:      []string{},
			Colors:         emptyIfNil(product.Colors),
			Dimensions:     dimensions,
			Sustainability: sustainability,
		},
		Vendor: vendor,
		Pricing: models.UnifiedPricing{
			Breaks:        breaks,
			PriceCode:     product.PriceCode,
			Currency:      "USD",
			PriceIncludes: product.PriceIncludes,
		},
		Fees: fees,
		Decoration: models.UnifiedDecoration{
			Methods:               methods,
			Locations:             []models.UnifiedDecorationLocation{},
			ImprintInfo:           product.ImprintInfoText,
			MultiColorDescription: multiColorDesc,
		},
		Variants: []models.UnifiedVariant{},
		Shipping: models.UnifiedShipping{
			ShipPoint:       product.ShipPoint,
			FOBPoints:       fobPoints,
			UnitsPerCarton:  product.UnitsPerCarton,
			WeightPerCarton: product.WeightPerCarton,
			Packaging:       product.PackagingText,
			LeadTime:        leadTime,
			AdditionalText:  product.AdditionalChargesText,
		},
		Images: images,
		Notes: models.UnifiedNotes{
			Packaging:           product.PackagingText,
			SupplierDisclaimers: []string{},
			AdditionalText:      product.AdditionalChargesText,
		},
		Flags: map[string]bool{},
	}
}

func joinLocArea(loc *string, area string) string {
	if loc != nil && *loc != "" {
		return fmt.Sprintf("%s: %s", *loc, area)
	}
	return area
}
