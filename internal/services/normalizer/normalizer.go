// -----------------------------------------------------------------------
// Output Normalizer - reconciles ESP and SAGE raw outputs into the
// unified schema consumed by the CRM and calculator workflows
// -----------------------------------------------------------------------

package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ternarybob/promoparse/internal/models"
)

// Source tags carried on every normalized product.
const (
	SourceESP  = "esp"
	SourceSAGE = "sage"
)

// UnknownSourceError reports a source tag outside the closed esp/sage set.
// Unknown sources fail loudly rather than defaulting.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source: %q, must be %q or %q", e.Source, SourceESP, SourceSAGE)
}

// Normalize parses raw pipeline output and transforms it into the
// unified schema. The transform is pure: no I/O, no clock reads, and
// identical input always yields identical output. generated_at is a
// passthrough from the raw metadata, never derived here.
func Normalize(raw json.RawMessage, source string) (*models.UnifiedOutput, error) {
	switch strings.ToLower(source) {
	case SourceESP:
		var esp models.ESPOutput
		if err := json.Unmarshal(raw, &esp); err != nil {
			return nil, fmt.Errorf("failed to parse ESP output: %w", err)
		}
		return NormalizeESP(&esp), nil
	case SourceSAGE:
		var sage models.SAGEOutput
		if err := json.Unmarshal(raw, &sage); err != nil {
			return nil, fmt.Errorf("failed to parse SAGE output: %w", err)
		}
		return NormalizeSAGE(&sage), nil
	default:
		return nil, &UnknownSourceError{Source: source}
	}
}

// margins derives margin and margin percent from a customer-facing unit
// price and a distributor net cost. Either side missing or zero yields
// no margin: a zero price is treated as unpriced, not free.
func margins(unitPrice, netCost *float64) (*float64, *float64) {
	if unitPrice == nil || netCost == nil || *unitPrice == 0 || *netCost == 0 {
		return nil, nil
	}
	margin := round2(*unitPrice - *netCost)
	if *unitPrice <= 0 {
		return &margin, nil
	}
	pct := round2(margin / *unitPrice * 100)
	return &margin, &pct
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func strPtr(s string) *string { return &s }
