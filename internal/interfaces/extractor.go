package interfaces

import (
	"context"

	"github.com/ternarybob/promoparse/internal/models"
)

// DocumentExtractor converts binary documents into structured JSON via a
// large-language-model document reader. Both methods use fixed extraction
// schema prompts; a response that is not valid JSON for the requested
// schema is a hard failure.
type DocumentExtractor interface {
	// ExtractSellSheet reads one distributor sell sheet PDF and returns
	// the product it describes.
	ExtractSellSheet(ctx context.Context, document []byte) (*models.ESPProduct, error)

	// ExtractPresentation reads a presentation listing document and
	// returns its header contacts and product roster.
	ExtractPresentation(ctx context.Context, document []byte) (*models.PresentationListing, error)
}
