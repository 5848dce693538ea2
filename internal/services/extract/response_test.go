package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/promoparse/internal/models"
)

func TestDecodeResponse(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		var product models.ESPProduct
		err := decodeResponse(`{"item": {"name": "Travel Mug"}}`, &product)
		require.NoError(t, err)
		assert.Equal(t, "Travel Mug", product.Item.Name)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		response := "```json\n{\"item\": {\"name\": \"Travel Mug\"}}\n```"
		var product models.ESPProduct
		err := decodeResponse(response, &product)
		require.NoError(t, err)
		assert.Equal(t, "Travel Mug", product.Item.Name)
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		var listing models.PresentationListing
		err := decodeResponse("\n  {\"summary\": {\"total_products\": 3}}  \n", &listing)
		require.NoError(t, err)
		assert.Equal(t, 3, listing.Summary.TotalProducts)
	})

	t.Run("malformed JSON is a hard failure", func(t *testing.T) {
		var product models.ESPProduct
		err := decodeResponse(`Sure! Here is the data you asked for.`, &product)
		assert.Error(t, err)
	})

	t.Run("null fields stay nil", func(t *testing.T) {
		var product models.ESPProduct
		err := decodeResponse(`{"item": {"name": "Pen", "mpn": null}, "pricing": {"breaks": [{"min_qty": 50, "catalog_price": 1.25, "net_cost": null}]}}`, &product)
		require.NoError(t, err)
		assert.Nil(t, product.Item.MPN)
		require.Len(t, product.Pricing.Breaks, 1)
		assert.Nil(t, product.Pricing.Breaks[0].NetCost)
		require.NotNil(t, product.Pricing.Breaks[0].CatalogPrice)
		assert.Equal(t, 1.25, *product.Pricing.Breaks[0].CatalogPrice)
	})
}
