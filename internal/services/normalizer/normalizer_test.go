package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/promoparse/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intP(v int) *int             { return &v }

func TestNormalize_UnknownSource(t *testing.T) {
	_, err := Normalize(json.RawMessage(`{}`), "shopify")
	var unknownErr *UnknownSourceError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "shopify", unknownErr.Source)
	assert.Contains(t, unknownErr.Error(), "shopify")
}

func TestNormalize_MalformedJSON(t *testing.T) {
	_, err := Normalize(json.RawMessage(`{not json`), SourceESP)
	assert.Error(t, err)

	_, err = Normalize(json.RawMessage(`{not json`), SourceSAGE)
	assert.Error(t, err)
}

func TestNormalize_SourceCaseInsensitive(t *testing.T) {
	out, err := Normalize(json.RawMessage(`{"metadata":{},"products":[],"errors":[]}`), "ESP")
	require.NoError(t, err)
	assert.Equal(t, SourceESP, out.Metadata.Source)
}

func TestNormalizeESP_PriceBreaks(t *testing.T) {
	t.Run("catalog price becomes unit price and net cost stays separate", func(t *testing.T) {
		esp := &models.ESPOutput{
			Products: []models.ESPProduct{{
				Item: models.ESPItem{Name: "Budget Tote"},
				Pricing: models.ESPPricing{
					Breaks: []models.ESPPriceBreak{{
						MinQty:       intP(100),
						CatalogPrice: floatPtr(10.00),
						NetCost:      floatPtr(6.00),
					}},
				},
			}},
		}

		out := NormalizeESP(esp)
		require.Len(t, out.Products, 1)
		require.Len(t, out.Products[0].Pricing.Breaks, 1)

		brk := out.Products[0].Pricing.Breaks[0]
		assert.Equal(t, 100, brk.Quantity)
		require.NotNil(t, brk.UnitPrice)
		assert.Equal(t, 10.00, *brk.UnitPrice)
		require.NotNil(t, brk.NetCost)
		assert.Equal(t, 6.00, *brk.NetCost)

		// Margin is derived, never written back into net cost.
		require.NotNil(t, brk.Margin)
		assert.Equal(t, 4.00, *brk.Margin)
		require.NotNil(t, brk.MarginPercent)
		assert.Equal(t, 40.00, *brk.MarginPercent)
	})

	t.Run("sell price wins over catalog price", func(t *testing.T) {
		esp := &models.ESPOutput{
			Products: []models.ESPProduct{{
				Pricing: models.ESPPricing{
					Breaks: []models.ESPPriceBreak{{
						Quantity:     intP(250),
						SellPrice:    floatPtr(8.50),
						CatalogPrice: floatPtr(12.00),
					}},
				},
			}},
		}

		brk := NormalizeESP(esp).Products[0].Pricing.Breaks[0]
		assert.Equal(t, 250, brk.Quantity)
		require.NotNil(t, brk.UnitPrice)
		assert.Equal(t, 8.50, *brk.UnitPrice)
		assert.Nil(t, brk.NetCost, "missing net cost must stay nil, never defaulted")
		assert.Nil(t, brk.Margin)
	})
}

func TestNormalizeESP_Metadata(t *testing.T) {
	title := "Spring Promo Ideas"
	clientName := "Jordan Reyes"
	clientCompany := "Acme Outfitters"

	esp := &models.ESPOutput{
		Metadata: models.ESPMetadata{
			GeneratedAt:       "2026-03-01T10:00:00Z",
			PresentationURL:   "https://portal.example.com/presentation/88",
			PresentationTitle: &title,
			Client:            models.ESPContact{Name: &clientName, Company: &clientCompany},
			TotalItems:        12,
			ItemsProcessed:    11,
			TotalErrors:       1,
		},
		Errors: []models.UnifiedError{{Message: "product 7 failed extraction"}},
	}

	out := NormalizeESP(esp)
	assert.False(t, out.Success)
	assert.Equal(t, SourceESP, out.Metadata.Source)
	assert.Equal(t, "2026-03-01T10:00:00Z", out.Metadata.GeneratedAt)
	assert.Equal(t, 12, out.Metadata.TotalItems)
	assert.Equal(t, 11, out.Metadata.ItemsProcessed)
	assert.Equal(t, 1, out.Metadata.Errors)
	require.NotNil(t, out.Client.Name)
	assert.Equal(t, "Jordan Reyes", *out.Client.Name)
	assert.NotEmpty(t, out.Metadata.PricingSources)
}

func TestNormalizeESP_ProductFields(t *testing.T) {
	long := "Double-wall stainless tumbler with laser engraving."
	short := "Stainless tumbler"
	size := "3\" x 2\""
	location := "Front center"

	esp := &models.ESPOutput{
		Products: []models.ESPProduct{{
			Item: models.ESPItem{
				Name:             "Summit Tumbler",
				DescriptionLong:  &long,
				DescriptionShort: &short,
			},
			Vendor: models.ESPVendor{
				Name:   "Peak Drinkware",
				Emails: []string{"sales@peakdrinkware.example", "support@peakdrinkware.example"},
				Phones: []string{"555-0100"},
			},
			ImprintSizes:     &size,
			ImprintLocations: &location,
		}},
	}

	product := NormalizeESP(esp).Products[0]
	assert.Equal(t, SourceESP, product.Source)
	assert.Equal(t, long, product.Item.Description)
	require.NotNil(t, product.Vendor.Email)
	assert.Equal(t, "sales@peakdrinkware.example", *product.Vendor.Email)
	require.NotNil(t, product.Vendor.Phone)
	assert.Equal(t, "555-0100", *product.Vendor.Phone)
	require.NotNil(t, product.Decoration.ImprintInfo)
	assert.Equal(t, "Size: 3\" x 2\"\nLocation: Front center", *product.Decoration.ImprintInfo)

	// Absent collections normalize to empty, present as empty not omitted.
	assert.NotNil(t, product.Item.Categories)
	assert.NotNil(t, product.Images)
	assert.NotNil(t, product.Notes.SupplierDisclaimers)
}

func TestNormalizeSAGE_Product(t *testing.T) {
	itemNum := "KOOZIE-400"
	themes := "Outdoors, Sports ,Travel"
	supplier := &models.SAGESupplier{
		Name:    "Lakeshore Promo",
		City:    strPtr("Grand Rapids"),
		State:   strPtr("MI"),
		ZipCode: strPtr("49503"),
	}

	sage := &models.SAGEOutput{
		Success: true,
		Products: []models.SAGEProduct{{
			InternalItemNum: &itemNum,
			Name:            "Can Cooler",
			Description:     "Collapsible foam can cooler.",
			Themes:          &themes,
			Recyclable:      true,
			EnvFriendly:     true,
			Supplier:        supplier,
			PriceBreaks: []models.SAGEPriceBreak{
				{Quantity: 100, SellPrice: floatPtr(1.50), NetCost: floatPtr(0.90)},
				{Quantity: 500, SellPrice: floatPtr(1.25)},
			},
			SetupCharge:     floatPtr(50.00),
			SetupChargeCode: strPtr("V"),
			ProofCharge:     floatPtr(0),
			ShipPoint:       strPtr("49503"),
			ProdTime:        strPtr("5-7 business days"),
			ImageURLs:       []string{"https://img.example.com/koozie.jpg"},
		}},
	}

	out := NormalizeSAGE(sage)
	require.Len(t, out.Products, 1)
	product := out.Products[0]

	assert.Equal(t, SourceSAGE, product.Source)

	// internal_item_num doubles as MPN and vendor SKU.
	require.NotNil(t, product.Identifiers.MPN)
	assert.Equal(t, "KOOZIE-400", *product.Identifiers.MPN)
	require.NotNil(t, product.Identifiers.VendorSKU)
	assert.Equal(t, "KOOZIE-400", *product.Identifiers.VendorSKU)

	assert.Equal(t, []string{"Outdoors", "Sports", "Travel"}, product.Item.Themes)
	require.NotNil(t, product.Item.Sustainability)
	assert.Equal(t, "Recyclable, Environmentally Friendly", *product.Item.Sustainability)

	require.NotNil(t, product.Vendor.Address)
	require.NotNil(t, product.Vendor.Address.PostalCode)
	assert.Equal(t, "49503", *product.Vendor.Address.PostalCode)

	// sell_price becomes unit_price; net_cost is preserved separately.
	require.Len(t, product.Pricing.Breaks, 2)
	first := product.Pricing.Breaks[0]
	assert.Equal(t, 100, first.Quantity)
	require.NotNil(t, first.UnitPrice)
	assert.Equal(t, 1.50, *first.UnitPrice)
	require.NotNil(t, first.NetCost)
	assert.Equal(t, 0.90, *first.NetCost)
	require.NotNil(t, first.Margin)
	assert.Equal(t, 0.60, *first.Margin)

	second := product.Pricing.Breaks[1]
	assert.Nil(t, second.NetCost)
	assert.Nil(t, second.Margin)

	// Zero-valued charges are dropped; setup keeps its price code.
	require.Len(t, product.Fees, 1)
	assert.Equal(t, "setup", product.Fees[0].FeeType)
	require.NotNil(t, product.Fees[0].PriceCode)
	assert.Equal(t, "V", *product.Fees[0].PriceCode)

	require.Len(t, product.Shipping.FOBPoints, 1)
	require.NotNil(t, product.Shipping.FOBPoints[0].PostalCode)
	assert.Equal(t, "49503", *product.Shipping.FOBPoints[0].PostalCode)
	require.NotNil(t, product.Shipping.LeadTime)
	assert.Equal(t, "5-7 business days", *product.Shipping.LeadTime)

	assert.Equal(t, []string{"https://img.example.com/koozie.jpg"}, product.Images)
}

func TestNormalizeSAGE_ErrorPropagation(t *testing.T) {
	errMsg := "presentation not found"
	sage := &models.SAGEOutput{Success: false, Error: &errMsg}

	out := NormalizeSAGE(sage)
	assert.False(t, out.Success)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "presentation not found", out.Errors[0].Message)
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {
			"generated_at": "2026-03-01T10:00:00Z",
			"presentation_url": "https://portal.example.com/p/1",
			"total_items_in_presentation": 2
		},
		"products": [{"item": {"name": "Pen"}, "pricing": {"breaks": [{"min_qty": 50, "catalog_price": 1.1, "net_cost": 0.6}]}}],
		"errors": []
	}`)

	first, err := Normalize(raw, SourceESP)
	require.NoError(t, err)
	second, err := Normalize(raw, SourceESP)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestDetectSource(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "explicit sage platform",
			raw:  `{"source_platform": "sage"}`,
			want: SourceSAGE,
		},
		{
			name: "pres_id marks sage",
			raw:  `{"pres_id": "ABC123"}`,
			want: SourceSAGE,
		},
		{
			name: "presenter phone marks sage",
			raw:  `{"presenter": {"name": "Sam", "phone": "555-0101"}}`,
			want: SourceSAGE,
		},
		{
			name: "esp metadata marker",
			raw:  `{"metadata": {"total_items_in_presentation": 5}}`,
			want: SourceESP,
		},
		{
			name: "spc identifier marks sage",
			raw:  `{"products": [{"identifiers": {"spc": "SPC-1"}}]}`,
			want: SourceSAGE,
		},
		{
			name: "cpn marks esp",
			raw:  `{"products": [{"item": {"cpn": "CPN-1"}}]}`,
			want: SourceESP,
		},
		{
			name: "unrecognized defaults to esp",
			raw:  `{"something": "else"}`,
			want: SourceESP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSource(json.RawMessage(tt.raw)))
		})
	}
}
