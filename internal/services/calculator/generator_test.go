package calculator

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/models"
)

func calcOutput() *models.UnifiedOutput {
	company := "Reeves Logistics"
	setup := 55.0
	return &models.UnifiedOutput{
		Success: true,
		Client:  models.UnifiedClient{Company: &company},
		Products: []models.UnifiedProduct{
			{
				Item: models.UnifiedItem{Name: "Travel Mug"},
				Pricing: models.UnifiedPricing{Breaks: []models.UnifiedPriceBreak{
					{Quantity: 100, UnitPrice: floatPtr(11.49)},
					{Quantity: 50, UnitPrice: floatPtr(12.99)},
				}},
				Fees: []models.UnifiedFee{
					{FeeType: "setup", Name: "Setup Charge", ListPrice: &setup},
				},
			},
			{
				Item: models.UnifiedItem{Name: "Canvas Tote"},
				Pricing: models.UnifiedPricing{Breaks: []models.UnifiedPriceBreak{
					{Quantity: 150, CatalogPrice: floatPtr(4.25)},
				}},
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	svc, err := NewService(t.TempDir(), arbor.NewLogger())
	require.NoError(t, err)

	path, err := svc.Generate(calcOutput())
	require.NoError(t, err)

	assert.Contains(t, path, "Reeves Logistics Promo Calc")
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerate_NoProducts(t *testing.T) {
	svc, err := NewService(t.TempDir(), arbor.NewLogger())
	require.NoError(t, err)

	_, err = svc.Generate(&models.UnifiedOutput{})
	assert.Error(t, err)
}

func TestBaseTier(t *testing.T) {
	product := &models.UnifiedProduct{
		Pricing: models.UnifiedPricing{Breaks: []models.UnifiedPriceBreak{
			{Quantity: 250, UnitPrice: floatPtr(9.99)},
			{Quantity: 50, UnitPrice: floatPtr(12.99)},
		}},
	}
	qty, price := baseTier(product)
	assert.Equal(t, 50, qty)
	assert.Equal(t, 12.99, price)
}

func TestPriceForQuantity(t *testing.T) {
	breaks := []models.UnifiedPriceBreak{
		{Quantity: 50, UnitPrice: floatPtr(12.99)},
		{Quantity: 100, UnitPrice: floatPtr(11.49)},
		{Quantity: 250, UnitPrice: floatPtr(9.99)},
	}

	assert.Equal(t, 12.99, priceForQuantity(breaks, 25))
	assert.Equal(t, 12.99, priceForQuantity(breaks, 99))
	assert.Equal(t, 11.49, priceForQuantity(breaks, 100))
	assert.Equal(t, 9.99, priceForQuantity(breaks, 1000))
	assert.Equal(t, 0.0, priceForQuantity(nil, 100))
}

func TestCleanFileName(t *testing.T) {
	assert.Equal(t, "Otava Inc", cleanFileName("Otava, Inc."))
	assert.Equal(t, "Client", cleanFileName("***"))
}

func floatPtr(v float64) *float64 {
	return &v
}
