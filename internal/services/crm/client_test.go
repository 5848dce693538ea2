package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/models"
)

// tokenHandler serves the OAuth2 client-credentials endpoint for tests.
func tokenHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": "test-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(&common.CRMConfig{
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/oauth/token",
		ClientID:     "id",
		ClientSecret: "secret",
		OrgID:        "org-1",
		RateLimit:    "1ms",
	}, arbor.NewLogger())
	require.NoError(t, err)
	return client
}

func testProduct() *models.UnifiedProduct {
	mpn := "TM-500"
	leadTime := "5-7 business days"
	return &models.UnifiedProduct{
		Source:      "sage",
		Identifiers: models.UnifiedIdentifiers{MPN: &mpn, VendorSKU: &mpn},
		Item: models.UnifiedItem{
			Name:        "Travel Mug",
			Description: "16oz double wall mug",
			Colors:      []string{"Black", "Navy"},
		},
		Pricing: models.UnifiedPricing{
			Currency: "USD",
			Breaks: []models.UnifiedPriceBreak{
				{Quantity: 100, UnitPrice: floatPtr(11.49), NetCost: floatPtr(6.90)},
				{Quantity: 50, UnitPrice: floatPtr(12.99), NetCost: floatPtr(7.80), MarginPercent: floatPtr(39.95)},
			},
		},
		Shipping: models.UnifiedShipping{LeadTime: &leadTime},
	}
}

func TestSearchCustomer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenHandler(w, r)
		case "/contacts":
			assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))
			assert.Equal(t, "Reeves Logistics", r.URL.Query().Get("search_text"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 0,
				"contacts": []map[string]string{
					{"contact_id": "c1", "contact_name": "Reeves Logistics East", "company_name": "Reeves East", "contact_number": "ACCT-20001"},
					{"contact_id": "c2", "contact_name": "Dana Reeves", "company_name": "reeves logistics", "contact_number": "ACCT-10041"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	customerID, err := client.SearchCustomer(context.Background(), "Reeves Logistics")
	require.NoError(t, err)
	assert.Equal(t, "c2", customerID)
}

func TestUpsertItem(t *testing.T) {
	t.Run("creates when SKU is new", func(t *testing.T) {
		var created itemPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/oauth/token":
				tokenHandler(w, r)
			case r.URL.Path == "/contacts/c2":
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code":    0,
					"contact": map[string]string{"contact_id": "c2", "contact_number": "ACCT-10041"},
				})
			case r.URL.Path == "/settings/customfields":
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code": 0,
					"customfields": []map[string]string{
						{"customfield_id": "cf1", "label": "Lead Time"},
						{"customfield_id": "cf2", "label": "Sell Price Grid"},
					},
				})
			case r.URL.Path == "/items" && r.Method == http.MethodGet:
				json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "items": []interface{}{}})
			case r.URL.Path == "/items" && r.Method == http.MethodPost:
				require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code": 0,
					"item": map[string]string{"item_id": "item-77", "name": created.Name, "sku": created.SKU},
				})
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		client := newTestClient(t, server)

		link, err := client.UpsertItem(context.Background(), "c2", testProduct())
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/items/item-77", link)

		assert.Equal(t, "10041-TM-500", created.SKU)
		assert.Equal(t, "10041-TM-500", created.Name)
		assert.Equal(t, 12.99, *created.Rate)
		assert.Equal(t, 7.80, *created.PurchaseRate)
		assert.Equal(t, "TM-500", *created.PartNumber)
		assert.Equal(t, "goods", created.ProductType)

		values := map[string]string{}
		for _, cf := range created.CustomFields {
			values[cf.CustomFieldID] = cf.Value
		}
		assert.Equal(t, "5-7 business days", values["cf1"])
		assert.JSONEq(t, `[{"qty":50,"price":12.99},{"qty":100,"price":11.49}]`, values["cf2"])
	})

	t.Run("updates on exact SKU match", func(t *testing.T) {
		var updatedPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/oauth/token":
				tokenHandler(w, r)
			case r.URL.Path == "/contacts/c2":
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code":    0,
					"contact": map[string]string{"contact_id": "c2", "contact_number": "10041"},
				})
			case r.URL.Path == "/settings/customfields":
				json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "customfields": []interface{}{}})
			case r.URL.Path == "/items" && r.Method == http.MethodGet:
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code": 0,
					"items": []map[string]string{
						{"item_id": "old-1", "sku": "10041-TM-500-BLACK"},
						{"item_id": "item-42", "sku": "10041-TM-500"},
					},
				})
			case r.URL.Path == "/items/item-42" && r.Method == http.MethodPut:
				updatedPath = r.URL.Path
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code": 0,
					"item": map[string]string{"item_id": "item-42"},
				})
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		client := newTestClient(t, server)

		link, err := client.UpsertItem(context.Background(), "c2", testProduct())
		require.NoError(t, err)
		assert.Equal(t, "/items/item-42", updatedPath)
		assert.Equal(t, server.URL+"/items/item-42", link)
	})

	t.Run("product without identifiers fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/oauth/token":
				tokenHandler(w, r)
			case "/contacts/c2":
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code":    0,
					"contact": map[string]string{"contact_id": "c2", "contact_number": "10041"},
				})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		client := newTestClient(t, server)

		product := &models.UnifiedProduct{Item: models.UnifiedItem{Name: "Mystery Item"}}
		_, err := client.UpsertItem(context.Background(), "c2", product)
		assert.ErrorContains(t, err, "no usable SKU")
	})
}

func TestCreateQuote(t *testing.T) {
	var payload estimatePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenHandler(w, r)
		case "/estimates":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 0,
				"estimate": map[string]interface{}{
					"estimate_id":     "est-9",
					"estimate_number": "EST-00042",
					"total":           1299.00,
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	output := &models.UnifiedOutput{
		Success:  true,
		Metadata: models.UnifiedMetadata{PresentationURL: "https://viewpresentation.com/7654321"},
		Products: []models.UnifiedProduct{*testProduct()},
	}

	link, err := client.CreateQuote(context.Background(), "c2", output)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/estimates/est-9", link)

	assert.Equal(t, "c2", payload.CustomerID)
	require.Len(t, payload.LineItems, 1)
	assert.Equal(t, "Travel Mug", payload.LineItems[0].Name)
	assert.Equal(t, 50, payload.LineItems[0].Quantity)
	assert.Equal(t, 12.99, *payload.LineItems[0].Rate)
	assert.Contains(t, payload.Notes, "viewpresentation.com/7654321")

	date, err := time.Parse("2006-01-02", payload.Date)
	require.NoError(t, err)
	expiry, err := time.Parse("2006-01-02", payload.ExpiryDate)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, expiry.Sub(date))
}

func TestUploadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenHandler(w, r)
		case "/documents":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "c2", r.FormValue("customer_id"))
			file, header, err := r.FormFile("document")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "calculator.pdf", header.Filename)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code":     0,
				"document": map[string]string{"document_id": "doc-3"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	localPath := filepath.Join(t.TempDir(), "calculator.pdf")
	require.NoError(t, os.WriteFile(localPath, []byte("%PDF-1.7"), 0644))

	link, err := client.UploadFile(context.Background(), "c2", localPath)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/documents/doc-3", link)
}

func TestAPIErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenHandler(w, r)
		case "/contacts":
			json.NewEncoder(w).Encode(map[string]interface{}{"code": 1002, "message": "Invalid organization"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.SearchCustomer(context.Background(), "Anyone")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1002, apiErr.Code)
}

func TestExtractNumericAccount(t *testing.T) {
	assert.Equal(t, "10041", extractNumericAccount("ACCT-10041"))
	assert.Equal(t, "10041", extractNumericAccount("10041"))
	assert.Equal(t, "west", extractNumericAccount("acct-west"))
	assert.Equal(t, "UNKNOWN", extractNumericAccount("  "))
}

func floatPtr(v float64) *float64 {
	return &v
}
