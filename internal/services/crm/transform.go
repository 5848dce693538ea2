package crm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/promoparse/internal/models"
)

// fieldPatterns maps logical field names to label substrings used for
// custom-field discovery. Only fields that match an existing layout
// entry are ever populated.
var fieldPatterns = map[string][]string{
	"lead_time":        {"lead time", "production time"},
	"colors_available": {"colors available", "available colors"},
	"imprint_colors":   {"imprint color"},
	"packaging":        {"packaging"},
	"ship_point":       {"ship point", "fob"},
	"sell_price_grid":  {"sell price grid", "price grid"},
	"cost_price_grid":  {"cost price grid", "cost grid"},
	"source_platform":  {"source platform", "source"},
	"cpn":              {"cpn"},
	"spc":              {"spc"},
	"prod_id":          {"prod id", "product id"},
	"fee_data":         {"fee data", "fees"},
	"categories_raw":   {"categories"},
	"margin_percent":   {"margin"},
}

type customField struct {
	CustomFieldID string `json:"customfield_id"`
	Value         string `json:"value"`
}

type itemPayload struct {
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	Description  string        `json:"description,omitempty"`
	Rate         *float64      `json:"rate,omitempty"`
	PurchaseRate *float64      `json:"purchase_rate,omitempty"`
	PartNumber   *string       `json:"part_number,omitempty"`
	ProductType  string        `json:"product_type"`
	CustomFields []customField `json:"custom_fields,omitempty"`
}

type estimateLineItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Rate        *float64 `json:"rate,omitempty"`
	Quantity    int      `json:"quantity"`
}

type estimatePayload struct {
	CustomerID string             `json:"customer_id"`
	Date       string             `json:"date"`
	ExpiryDate string             `json:"expiry_date"`
	LineItems  []estimateLineItem `json:"line_items"`
	Notes      string             `json:"notes,omitempty"`
}

const quoteExpiryDays = 30

// extractNumericAccount strips any alphabetic prefix off a contact
// number, e.g. "ACCT-10041" becomes "10041".
func extractNumericAccount(account string) string {
	account = strings.TrimSpace(account)
	if account == "" {
		return "UNKNOWN"
	}
	if strings.Contains(account, "-") {
		parts := strings.Split(account, "-")
		for _, part := range parts {
			if part != "" && isDigits(part) {
				return part
			}
		}
		return parts[len(parts)-1]
	}
	return account
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// buildSKU formats the item SKU as <account number>-<vendor SKU>.
func buildSKU(account, vendorSKU string) string {
	return extractNumericAccount(account) + "-" + strings.TrimSpace(vendorSKU)
}

// productSKU picks the best vendor-side identifier for SKU building.
func productSKU(product *models.UnifiedProduct) string {
	ids := product.Identifiers
	for _, candidate := range []*string{ids.VendorSKU, ids.MPN, ids.ItemNum, ids.CPN} {
		if candidate != nil && strings.TrimSpace(*candidate) != "" {
			return strings.TrimSpace(*candidate)
		}
	}
	return ""
}

// basePricing returns the lowest-quantity tier's unit price and net
// cost. The item master stores representative values; full grids go
// into custom fields.
func basePricing(product *models.UnifiedProduct) (*float64, *float64) {
	breaks := sortedBreaks(product.Pricing.Breaks)
	if len(breaks) == 0 {
		return nil, nil
	}
	first := breaks[0]
	price := first.UnitPrice
	if price == nil {
		price = first.CatalogPrice
	}
	return price, first.NetCost
}

func sortedBreaks(breaks []models.UnifiedPriceBreak) []models.UnifiedPriceBreak {
	out := make([]models.UnifiedPriceBreak, len(breaks))
	copy(out, breaks)
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out
}

// formatPriceGrid serializes price breaks as a compact JSON grid for
// custom-field storage.
func formatPriceGrid(breaks []models.UnifiedPriceBreak, value func(models.UnifiedPriceBreak) *float64) string {
	type tier struct {
		Qty   int     `json:"qty"`
		Price float64 `json:"price"`
	}
	var grid []tier
	for _, b := range breaks {
		if v := value(b); v != nil {
			grid = append(grid, tier{Qty: b.Quantity, Price: *v})
		}
	}
	if len(grid) == 0 {
		return ""
	}
	data, err := json.Marshal(grid)
	if err != nil {
		return ""
	}
	return string(data)
}

// mapCustomFields maps product data onto discovered custom fields. A
// field that was not discovered is silently skipped.
func mapCustomFields(product *models.UnifiedProduct, fields map[string]string) []customField {
	var out []customField
	add := func(name string, value string) {
		id, ok := fields[name]
		if !ok || value == "" {
			return
		}
		out = append(out, customField{CustomFieldID: id, Value: value})
	}

	add("lead_time", firstString(product.Shipping.LeadTime, product.Notes.LeadTime))
	add("colors_available", strings.Join(product.Item.Colors, ", "))
	add("imprint_colors", stringValue(product.Decoration.ImprintColorsDesc))
	add("packaging", firstString(product.Shipping.Packaging, product.Notes.Packaging))
	add("ship_point", shipPoint(product))
	add("sell_price_grid", formatPriceGrid(product.Pricing.Breaks, func(b models.UnifiedPriceBreak) *float64 { return b.UnitPrice }))
	add("cost_price_grid", formatPriceGrid(product.Pricing.Breaks, func(b models.UnifiedPriceBreak) *float64 { return b.NetCost }))
	add("source_platform", product.Source)
	add("cpn", stringValue(product.Identifiers.CPN))
	add("spc", stringValue(product.Identifiers.SPC))
	if product.Identifiers.ProdID != nil {
		add("prod_id", fmt.Sprintf("%d", *product.Identifiers.ProdID))
	}
	if len(product.Fees) > 0 {
		if data, err := json.Marshal(product.Fees); err == nil {
			add("fee_data", string(data))
		}
	}
	add("categories_raw", strings.Join(product.Item.Categories, ", "))

	breaks := sortedBreaks(product.Pricing.Breaks)
	if len(breaks) > 0 && breaks[0].MarginPercent != nil {
		add("margin_percent", fmt.Sprintf("%.2f", *breaks[0].MarginPercent))
	}

	return out
}

func shipPoint(product *models.UnifiedProduct) string {
	if product.Shipping.ShipPoint != nil {
		return *product.Shipping.ShipPoint
	}
	if len(product.Shipping.FOBPoints) > 0 {
		fob := product.Shipping.FOBPoints[0]
		if fob.PostalCode != nil {
			return *fob.PostalCode
		}
		if fob.City != nil {
			return *fob.City
		}
	}
	return ""
}

// buildItemPayload assembles the item master record. The item name is
// the SKU so purchase orders and searches line up.
func buildItemPayload(product *models.UnifiedProduct, sku string, fields map[string]string) *itemPayload {
	rate, cost := basePricing(product)

	description := product.Item.Description
	if description == "" && product.Item.DescriptionShort != nil {
		description = *product.Item.DescriptionShort
	}

	return &itemPayload{
		Name:         sku,
		SKU:          sku,
		Description:  strings.TrimSpace(description),
		Rate:         rate,
		PurchaseRate: cost,
		PartNumber:   product.Identifiers.MPN,
		ProductType:  "goods",
		CustomFields: mapCustomFields(product, fields),
	}
}

// buildEstimatePayload assembles a draft quote from the unified output.
// Each product contributes one line at its base tier.
func buildEstimatePayload(output *models.UnifiedOutput, customerID string, now time.Time) (*estimatePayload, error) {
	if len(output.Products) == 0 {
		return nil, fmt.Errorf("no products to quote")
	}

	payload := &estimatePayload{
		CustomerID: customerID,
		Date:       now.Format("2006-01-02"),
		ExpiryDate: now.AddDate(0, 0, quoteExpiryDays).Format("2006-01-02"),
		Notes:      "Generated from presentation: " + output.Metadata.PresentationURL,
	}

	for i := range output.Products {
		product := &output.Products[i]
		breaks := sortedBreaks(product.Pricing.Breaks)

		line := estimateLineItem{
			Name:     product.Item.Name,
			Quantity: 1,
		}
		if sku := productSKU(product); sku != "" {
			line.Description = "SKU: " + sku
		}
		if len(breaks) > 0 {
			line.Quantity = breaks[0].Quantity
			line.Rate = breaks[0].UnitPrice
			if line.Rate == nil {
				line.Rate = breaks[0].CatalogPrice
			}
		}
		payload.LineItems = append(payload.LineItems, line)
	}

	return payload, nil
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
