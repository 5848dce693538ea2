package interfaces

import (
	"context"

	"github.com/ternarybob/promoparse/internal/models"
)

// SAGEClient calls the SAGE Connect REST API.
type SAGEClient interface {
	// GetPresentation fetches a presentation (serviceId 301) by its ID.
	GetPresentation(ctx context.Context, presID string) (*models.SAGEOutput, error)

	// GetProductDetail fetches full product detail (serviceId 105) and
	// merges cost, theme and decoration fields into the product.
	GetProductDetail(ctx context.Context, product *models.SAGEProduct) error
}
