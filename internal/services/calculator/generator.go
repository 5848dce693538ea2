// -----------------------------------------------------------------------
// Calculator Generator - client-facing cost calculator PDF built from
// the unified output
// -----------------------------------------------------------------------

package calculator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/models"
)

// shippingPercent is the freight estimate applied to each line total.
const shippingPercent = 0.15

// Service generates cost calculator PDFs. Each product gets a line at
// its minimum quantity with setup fee and freight estimate, followed by
// a price break reference page so the client can see the tier
// thresholds.
type Service struct {
	outputDir string
	logger    arbor.ILogger
}

// NewService creates a calculator generator writing into outputDir.
func NewService(outputDir string, logger arbor.ILogger) (*Service, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create calculator output directory: %w", err)
	}
	return &Service{
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

// Generate builds the calculator PDF and returns its path.
func (s *Service) Generate(output *models.UnifiedOutput) (string, error) {
	if len(output.Products) == 0 {
		return "", fmt.Errorf("no products to build a calculator from")
	}

	clientName := "Client"
	if output.Client.Company != nil && *output.Client.Company != "" {
		clientName = *output.Client.Company
	} else if output.Client.Name != nil && *output.Client.Name != "" {
		clientName = *output.Client.Name
	}

	fileName := fmt.Sprintf("%s Promo Calc %s.pdf", cleanFileName(clientName), time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.outputDir, fileName)

	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 12)

	s.writeCalculatorPage(doc, clientName, output.Products)
	s.writePriceBreaksPage(doc, output.Products)

	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write calculator PDF: %w", err)
	}

	s.logger.Info().
		Str("path", path).
		Int("products", len(output.Products)).
		Msg("Calculator generated")

	return path, nil
}

func (s *Service) writeCalculatorPage(doc *fpdf.Fpdf, clientName string, products []models.UnifiedProduct) {
	doc.AddPage()

	doc.SetFont("Arial", "B", 14)
	doc.Cell(0, 10, fmt.Sprintf("%s - Promotional Product Calculator", clientName))
	doc.Ln(12)

	doc.SetFont("Arial", "I", 9)
	doc.Cell(0, 6, "Prices shown at minimum order quantity. Unit price improves at higher tiers; see the reference page.")
	doc.Ln(10)

	headers := []string{"Promo Product", "Min QTY", "Price/Unit", "Setup", "Total", "Freight Est."}
	widths := []float64{110, 22, 28, 28, 32, 32}

	doc.SetFont("Arial", "B", 9)
	doc.SetFillColor(255, 255, 0)
	for i, header := range headers {
		doc.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 9)
	grandTotal := 0.0
	freightTotal := 0.0

	for i := range products {
		product := &products[i]
		minQty, unitPrice := baseTier(product)
		setup := setupFee(product)
		total := float64(minQty)*unitPrice + setup
		freight := total * shippingPercent
		grandTotal += total
		freightTotal += freight

		doc.CellFormat(widths[0], 7, truncate(product.Item.Name, 68), "1", 0, "L", false, 0, "")
		doc.CellFormat(widths[1], 7, fmt.Sprintf("%d", minQty), "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[2], 7, money(unitPrice), "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[3], 7, money(setup), "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[4], 7, money(total), "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[5], 7, money(freight), "1", 0, "R", false, 0, "")
		doc.Ln(-1)
	}

	doc.SetFont("Arial", "B", 9)
	doc.CellFormat(widths[0]+widths[1]+widths[2], 8, "", "", 0, "", false, 0, "")
	doc.CellFormat(widths[3], 8, "TOTALS:", "", 0, "R", false, 0, "")
	doc.SetFillColor(144, 238, 144)
	doc.CellFormat(widths[4], 8, money(grandTotal), "1", 0, "R", true, 0, "")
	doc.CellFormat(widths[5], 8, money(freightTotal), "1", 0, "R", true, 0, "")
	doc.Ln(-1)
}

func (s *Service) writePriceBreaksPage(doc *fpdf.Fpdf, products []models.UnifiedProduct) {
	doc.AddPage()

	doc.SetFont("Arial", "B", 14)
	doc.Cell(0, 10, "Price Breaks Reference")
	doc.Ln(12)

	for i := range products {
		product := &products[i]
		breaks := sortedBreaks(product.Pricing.Breaks)
		if len(breaks) == 0 {
			continue
		}

		doc.SetFont("Arial", "B", 10)
		doc.Cell(0, 7, product.Item.Name)
		doc.Ln(8)

		doc.SetFont("Arial", "B", 9)
		doc.SetFillColor(68, 114, 196)
		doc.SetTextColor(255, 255, 255)
		doc.CellFormat(30, 7, "Quantity", "1", 0, "C", true, 0, "")
		doc.CellFormat(30, 7, "Price/Unit", "1", 0, "C", true, 0, "")
		doc.Ln(-1)
		doc.SetTextColor(0, 0, 0)

		doc.SetFont("Arial", "", 9)
		for _, b := range breaks {
			price := b.UnitPrice
			if price == nil {
				price = b.CatalogPrice
			}
			if price == nil {
				continue
			}
			doc.CellFormat(30, 6, fmt.Sprintf("%d+", b.Quantity), "1", 0, "R", false, 0, "")
			doc.CellFormat(30, 6, money(*price), "1", 0, "R", false, 0, "")
			doc.Ln(-1)
		}
		doc.Ln(4)
	}
}

// baseTier returns the minimum order quantity and its unit price.
func baseTier(product *models.UnifiedProduct) (int, float64) {
	breaks := sortedBreaks(product.Pricing.Breaks)
	for _, b := range breaks {
		price := b.UnitPrice
		if price == nil {
			price = b.CatalogPrice
		}
		if price != nil {
			return b.Quantity, *price
		}
	}
	return 0, 0
}

// priceForQuantity picks the unit price for a given quantity, using the
// highest tier at or below it; below the first tier the base price
// applies.
func priceForQuantity(breaks []models.UnifiedPriceBreak, qty int) float64 {
	sorted := sortedBreaks(breaks)
	price := 0.0
	for _, b := range sorted {
		v := b.UnitPrice
		if v == nil {
			v = b.CatalogPrice
		}
		if v == nil {
			continue
		}
		if price == 0 || b.Quantity <= qty {
			price = *v
		}
		if b.Quantity > qty {
			break
		}
	}
	return price
}

func setupFee(product *models.UnifiedProduct) float64 {
	for _, fee := range product.Fees {
		if fee.FeeType == "setup" && fee.ListPrice != nil {
			return *fee.ListPrice
		}
	}
	return 0
}

func sortedBreaks(breaks []models.UnifiedPriceBreak) []models.UnifiedPriceBreak {
	out := make([]models.UnifiedPriceBreak, len(breaks))
	copy(out, breaks)
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out
}

// cleanFileName keeps letters, digits, spaces and dashes.
func cleanFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	if cleaned == "" {
		return "Client"
	}
	return cleaned
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
