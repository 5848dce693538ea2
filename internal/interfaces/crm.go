package interfaces

import (
	"context"

	"github.com/ternarybob/promoparse/internal/models"
)

// CRMClient is the spreadsheet/CRM REST integration. Items are matched
// by SKU, customers by account number, vendors by website URL; the core
// only needs success/failure plus a result link per operation.
type CRMClient interface {
	// SearchCustomer resolves a customer account by company name.
	SearchCustomer(ctx context.Context, company string) (string, error)

	// DiscoverFields fetches the custom-field layout used by item upserts.
	DiscoverFields(ctx context.Context) (map[string]string, error)

	// UpsertItem creates or updates one item and returns its link.
	UpsertItem(ctx context.Context, customerID string, product *models.UnifiedProduct) (string, error)

	// UploadImage attaches a product image to an existing item.
	UploadImage(ctx context.Context, itemID string, imageURL string) error

	// CreateQuote creates an estimate covering the given products and
	// returns its link.
	CreateQuote(ctx context.Context, customerID string, output *models.UnifiedOutput) (string, error)

	// UploadFile attaches an arbitrary document (calculator, output
	// JSON) to the customer record and returns its link.
	UploadFile(ctx context.Context, customerID string, localPath string) (string, error)
}
