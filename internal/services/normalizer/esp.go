package normalizer

import (
	"fmt"
	"strings"

	"github.com/ternarybob/promoparse/internal/models"
)

// espPricingSources documents where each ESP price field originates.
var espPricingSources = map[string]string{
	"sell_price":    "From ESP Presentation - client-facing price",
	"net_cost":      "From ESP Distributor Report - authoritative cost",
	"catalog_price": "MSRP/List price from catalog",
}

// NormalizeESP transforms raw ESP pipeline output into the unified schema.
func NormalizeESP(data *models.ESPOutput) *models.UnifiedOutput {
	products := make([]models.UnifiedProduct, 0, len(data.Products))
	for i := range data.Products {
		products = append(products, normalizeESPProduct(&data.Products[i]))
	}

	errors := data.Errors
	if errors == nil {
		errors = []models.UnifiedError{}
	}

	return &models.UnifiedOutput{
		Success: len(errors) == 0,
		Metadata: models.UnifiedMetadata{
			GeneratedAt:       data.Metadata.GeneratedAt,
			Source:            SourceESP,
			PresentationURL:   data.Metadata.PresentationURL,
			PresentationTitle: data.Metadata.PresentationTitle,
			TotalItems:        data.Metadata.TotalItems,
			ItemsProcessed:    data.Metadata.ItemsProcessed,
			Errors:            data.Metadata.TotalErrors,
			PricingSources:    espPricingSources,
		},
		Client: models.UnifiedClient{
			Name:    data.Metadata.Client.Name,
			Company: data.Metadata.Client.Company,
		},
		Presenter: models.UnifiedPresenter{
			Name:    data.Metadata.Presenter.Name,
			Company: data.Metadata.Presenter.Company,
		},
		Products: products,
		Errors:   errors,
	}
}

func normalizeESPProduct(product *models.ESPProduct) models.UnifiedProduct {
	item := product.Item

	description := ""
	if item.DescriptionLong != nil {
		description = *item.DescriptionLong
	} else if item.DescriptionShort != nil {
		description = *item.DescriptionShort
	}

	var dimensions *models.UnifiedDimensions
	if item.Dimensions != nil {
		d := *item.Dimensions
		d.Raw = item.DimensionsRaw
		dimensions = &d
	} else if item.DimensionsRaw != nil {
		dimensions = &models.UnifiedDimensions{Raw: item.DimensionsRaw}
	}

	vendor := models.UnifiedVendor{
		Name:        product.Vendor.Name,
		Website:     product.Vendor.Website,
		ASI:         product.Vendor.ASI,
		ContactName: product.Vendor.ContactName,
		Address:     product.Vendor.Address,
		LineName:    product.Vendor.LineName,
		TradeName:   product.Vendor.TradeName,
		Hours:       product.Vendor.Hours,
	}
	if len(product.Vendor.Emails) > 0 {
		vendor.Email = &product.Vendor.Emails[0]
	}
	if len(product.Vendor.Phones) > 0 {
		vendor.Phone = &product.Vendor.Phones[0]
	}

	breaks := make([]models.UnifiedPriceBreak, 0, len(product.Pricing.Breaks))
	for _, brk := range product.Pricing.Breaks {
		quantity := 0
		if brk.MinQty != nil {
			quantity = *brk.MinQty
		} else if brk.Quantity != nil {
			quantity = *brk.Quantity
		}

		// The presentation price is the customer-facing unit price.
		// net_cost stays separate; neither is ever derived from the other.
		unitPrice := brk.SellPrice
		if unitPrice == nil {
			unitPrice = brk.CatalogPrice
		}

		margin, marginPct := margins(unitPrice, brk.NetCost)

		breaks = append(breaks, models.UnifiedPriceBreak{
			Quantity:      quantity,
			UnitPrice:     unitPrice,
			NetCost:       brk.NetCost,
			CatalogPrice:  brk.CatalogPrice,
			Margin:        margin,
			MarginPercent: marginPct,
			Notes:         brk.Notes,
		})
	}

	priceIncludes := product.Pricing.PriceIncludes
	if priceIncludes == nil && product.PresentationSellData != nil {
		priceIncludes = product.PresentationSellData.PriceIncludes
	}

	currency := "USD"
	if product.Pricing.Currency != nil {
		currency = *product.Pricing.Currency
	}

	fees := make([]models.UnifiedFee, 0, len(product.Fees))
	for _, fee := range product.Fees {
		feeType := "other"
		if fee.FeeType != nil {
			feeType = *fee.FeeType
		}
		fees = append(fees, models.UnifiedFee{
			FeeType:          feeType,
			Name:             fee.Name,
			Description:      fee.Description,
			ListPrice:        fee.ListPrice,
			NetCost:          fee.NetCost,
			PriceCode:        fee.PriceCode,
			ChargeBasis:      fee.ChargeBasis,
			MinQty:           fee.MinQty,
			DecorationMethod: fee.DecorationMethod,
			Notes:            fee.Notes,
		})
	}

	methods := make([]models.UnifiedDecorationMethod, 0, len(product.Decoration.Methods))
	for _, method := range product.Decoration.Methods {
		methods = append(methods, models.UnifiedDecorationMethod(method))
	}

	locations := make([]models.UnifiedDecorationLocation, 0, len(product.Decoration.Locations))
	for _, loc := range product.Decoration.Locations {
		areas := loc.ImprintAreas
		if areas == nil {
			areas = []models.UnifiedImprintArea{}
		}
		locations = append(locations, models.UnifiedDecorationLocation{
			Name:           loc.Name,
			Component:      loc.Component,
			MethodsAllowed: loc.MethodsAllowed,
			ImprintAreas:   areas,
		})
	}

	// Presentation-page imprint fields fold into one free-text block.
	var imprintParts []string
	if product.ImprintSizes != nil {
		imprintParts = append(imprintParts, fmt.Sprintf("Size: %s", *product.ImprintSizes))
	}
	if product.ImprintLocations != nil {
		imprintParts = append(imprintParts, fmt.Sprintf("Location: %s", *product.ImprintLocations))
	}
	var imprintInfo *string
	if len(imprintParts) > 0 {
		imprintInfo = strPtr(strings.Join(imprintParts, "\n"))
	}

	var multiColorDesc *string
	if product.Decoration.MultiColorOptions != nil {
		multiColorDesc = product.Decoration.MultiColorOptions.Description
	}

	variants := make([]models.UnifiedVariant, 0, len(product.Variants))
	for _, v := range product.Variants {
		variants = append(variants, models.UnifiedVariant(v))
	}

	fobPoints := product.Vendor.FOBPoints
	if fobPoints == nil {
		fobPoints = []models.UnifiedFOBPoint{}
	}

	disclaimers := product.RawNotes.SupplierDisclaimers
	if disclaimers == nil {
		disclaimers = []string{}
	}

	flags := product.Flags
	if flags == nil {
		flags = map[string]bool{}
	}

	return models.UnifiedProduct{
		Source: SourceESP,
		Identifiers: models.UnifiedIdentifiers{
			MPN:       item.MPN,
			VendorSKU: item.VendorSKU,
			CPN:       item.CPN,
		},
		Item: models.UnifiedItem{
			Name:             item.Name,
			Description:      description,
			DescriptionShort: item.DescriptionShort,
			Categories:       emptyIfNil(item.Categories),
			Themes:           emptyIfNil(item.Themes),
			Materials:        emptyIfNil(item.Materials),
			Colors:           emptyIfNil(item.Colors),
			PrimaryColor:     item.PrimaryColor,
			Dimensions:       dimensions,
			WeightValue:      item.WeightValue,
			WeightUnit:       item.WeightUnit,
			ItemAssembled:    item.ItemAssembled,
		},
		Vendor: vendor,
		Pricing: models.UnifiedPricing{
			Breaks:        breaks,
			PriceCode:     product.Pricing.PriceCode,
			Currency:      currency,
			ValidThrough:  product.Pricing.ValidThrough,
			PriceIncludes: priceIncludes,
			Notes:         product.Pricing.Notes,
		},
		Fees: fees,
		Decoration: models.UnifiedDecoration{
			Methods:               methods,
			Locations:             locations,
			SoldUnimprinted:       product.Decoration.SoldUnimprinted,
			Personalization:       product.Decoration.Personalization,
			FullColorProcess:      product.Decoration.FullColorProcess,
			ImprintInfo:           imprintInfo,
			ImprintColorsDesc:     product.Decoration.ImprintColorsDesc,
			MultiColorDescription: multiColorDesc,
		},
		Variants: variants,
		Shipping: models.UnifiedShipping{
			FOBPoints: fobPoints,
			LeadTime:  product.RawNotes.LeadTime,
			Packaging: product.RawNotes.Packaging,
		},
		Images: []string{},
		Notes: models.UnifiedNotes{
			Packaging:           product.RawNotes.Packaging,
			LeadTime:            product.RawNotes.LeadTime,
			SupplierDisclaimers: disclaimers,
			Other:               product.RawNotes.Other,
		},
		Flags: flags,
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
