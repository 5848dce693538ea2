package sage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/promoparse/internal/models"
)

// rawPresentation mirrors the serviceId 301 response. SAGE returns most
// numeric values as strings, sometimes with thousands separators, so
// everything prices-related is kept as strings and parsed defensively.
type rawPresentation struct {
	PresID  json.Number `json:"presId"`
	General struct {
		Title string `json:"title"`
		Date  string `json:"date"`
	} `json:"general"`
	Client struct {
		ClientID      json.Number `json:"clientId"`
		Name          string      `json:"name"`
		ClientCompany string      `json:"clientCompany"`
		Email         string      `json:"email"`
		Phone         string      `json:"phone"`
		TaxRate       json.Number `json:"taxRate"`
	} `json:"client"`
	Header struct {
		HeadFirstText string `json:"headFirstText"`
		HeadAddtlText string `json:"headAddtlText"`
	} `json:"header"`
	Items []rawItem `json:"items"`
}

type rawSupplier struct {
	SAGEID  json.Number `json:"sageId"`
	Company string      `json:"company"`
	Line    string      `json:"line"`
	Web     string      `json:"web"`
	Email   string      `json:"email"`
	Phone   string      `json:"phone"`
	City    string      `json:"city"`
	State   string      `json:"state"`
	Zip     string      `json:"zip"`
}

type rawItem struct {
	PresItemID      json.Number  `json:"presItemId"`
	ProdID          json.Number  `json:"prodId"`
	EncryptedProdID string       `json:"encryptedProdId"`
	SPC             string       `json:"spc"`
	InternalItemNum string       `json:"internalItemNum"`
	ItemNum         string       `json:"itemNum"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Category        string       `json:"category"`
	ColorInfoText   string       `json:"colorInfoText"`
	Supplier        *rawSupplier `json:"supplier"`

	// Parallel price arrays, index-aligned on quantity
	Qtys     []string `json:"qtys"`
	CatPrcs  []string `json:"catPrcs"`
	SellPrcs []string `json:"sellPrcs"`
	Costs    []string `json:"costs"`

	PriceCode     string `json:"priceCode"`
	PriceIncludes string `json:"priceIncludes"`

	SetupChg      string `json:"setupChg"`
	SetupChgCode  string `json:"setupChgCode"`
	RepeatChg     string `json:"repeatChg"`
	ScreenChg     string `json:"screenChg"`
	ProofChg      string `json:"proofChg"`
	PMSChg        string `json:"pmsChg"`
	SpecSampleChg string `json:"specSampleChg"`
	CopyChg       string `json:"copyChg"`

	ImprintInfoText       string `json:"imprintInfoText"`
	PackagingText         string `json:"packagingText"`
	ShipPoint             string `json:"shipPoint"`
	UnitsPerCtn           string `json:"unitsPerCtn"`
	WeightPerCtn          string `json:"weightPerCtn"`
	AdditionalChargesText string `json:"additionalChargesText"`

	Pics []struct {
		URL string `json:"url"`
	} `json:"pics"`
}

// rawDetail mirrors the serviceId 105 response fields we merge back.
type rawDetail struct {
	Qty               []json.Number `json:"qty"`
	Net               []json.Number `json:"net"`
	ProdTime          string        `json:"prodTime"`
	DecorationMethod  string        `json:"decorationMethod"`
	ImprintArea       string        `json:"imprintArea"`
	ImprintLoc        string        `json:"imprintLoc"`
	SecondImprintArea string        `json:"secondImprintArea"`
	SecondImprintLoc  string        `json:"secondImprintLoc"`
	Recyclable        int           `json:"recyclable"`
	EnvFriendly       int           `json:"envFriendly"`
	Themes            []string      `json:"themes"`
	PriceIncludes     string        `json:"priceIncludes"`
}

// parsePresentation converts a raw 301 response into the SAGE output
// shape. Sell prices come from the presentation; net costs stay empty
// until the full detail call fills them in.
func parsePresentation(raw *rawPresentation) *models.SAGEOutput {
	output := &models.SAGEOutput{
		Success: true,
		Metadata: models.SAGEMetadata{
			GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
			PresentationTitle: strOrNil(raw.General.Title),
			PresentationDate:  strOrNil(raw.General.Date),
			APIVersion:        strPtr(strconv.Itoa(apiVersion)),
			PricingSources: map[string]string{
				"sell_price": "presentation",
				"net_cost":   "product_detail_api",
			},
		},
		Client: models.SAGEClient{
			ID:      strOrNil(raw.Client.ClientID.String()),
			Name:    strOrNil(raw.Client.Name),
			Company: strOrNil(raw.Client.ClientCompany),
			Email:   strOrNil(raw.Client.Email),
			Phone:   strOrNil(raw.Client.Phone),
			TaxRate: numberOrNil(raw.Client.TaxRate),
		},
		Presenter: parsePresenter(raw.Header.HeadFirstText, raw.Header.HeadAddtlText),
	}

	if raw.PresID.String() != "" {
		output.PresID = strPtr(raw.PresID.String())
	}

	for i := range raw.Items {
		output.Products = append(output.Products, parseItem(&raw.Items[i]))
	}

	output.Metadata.TotalItems = len(output.Products)
	output.Metadata.ItemCount = len(output.Products)

	return output
}

// parsePresenter reads the distributor rep from the presentation header
// blocks. headFirstText carries name, company and phone on separate
// lines; headAddtlText usually carries a website.
func parsePresenter(firstText, addtlText string) models.SAGEPresenter {
	presenter := models.SAGEPresenter{}

	var lines []string
	for _, line := range strings.Split(firstText, "\r\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) > 0 {
		presenter.Name = strPtr(lines[0])
	}
	if len(lines) > 1 {
		presenter.Company = strPtr(lines[1])
	}
	if len(lines) > 2 {
		presenter.Phone = strPtr(lines[2])
	}

	for _, line := range strings.Split(addtlText, "\r\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && strings.Contains(trimmed, ".") && !strings.Contains(trimmed, " ") {
			presenter.Website = strPtr(trimmed)
			break
		}
	}

	return presenter
}

func parseItem(item *rawItem) models.SAGEProduct {
	product := models.SAGEProduct{
		ProdID:          intOrNil(item.ProdID),
		EncryptedProdID: strOrNil(item.EncryptedProdID),
		PresItemID:      intOrNil(item.PresItemID),
		SPC:             strOrNil(item.SPC),
		InternalItemNum: strOrNil(item.InternalItemNum),
		ItemNum:         strOrNil(item.ItemNum),
		Name:            strings.TrimSpace(item.Name),
		Description:     strings.TrimSpace(item.Description),
		Category:        strOrNil(item.Category),
		Colors:          splitCommaList(item.ColorInfoText),

		PriceCode:     strOrNil(item.PriceCode),
		PriceIncludes: strOrNil(item.PriceIncludes),

		SetupCharge:      safeFloat(item.SetupChg),
		SetupChargeCode:  strOrNil(item.SetupChgCode),
		RepeatCharge:     safeFloat(item.RepeatChg),
		ScreenCharge:     safeFloat(item.ScreenChg),
		ProofCharge:      safeFloat(item.ProofChg),
		PMSCharge:        safeFloat(item.PMSChg),
		SpecSampleCharge: safeFloat(item.SpecSampleChg),
		CopyChangeCharge: safeFloat(item.CopyChg),

		ImprintInfoText:       strOrNil(item.ImprintInfoText),
		PackagingText:         strOrNil(item.PackagingText),
		ShipPoint:             strOrNil(item.ShipPoint),
		UnitsPerCarton:        safeInt(item.UnitsPerCtn),
		WeightPerCarton:       safeFloat(item.WeightPerCtn),
		AdditionalChargesText: strOrNil(item.AdditionalChargesText),
	}

	if item.Supplier != nil {
		product.Supplier = &models.SAGESupplier{
			Name:     strings.TrimSpace(item.Supplier.Company),
			Website:  strOrNil(item.Supplier.Web),
			SAGEID:   strOrNil(item.Supplier.SAGEID.String()),
			Email:    strOrNil(item.Supplier.Email),
			Phone:    strOrNil(item.Supplier.Phone),
			City:     strOrNil(item.Supplier.City),
			State:    strOrNil(item.Supplier.State),
			ZipCode:  strOrNil(item.Supplier.Zip),
			LineName: strOrNil(item.Supplier.Line),
		}
	}

	product.PriceBreaks = parsePriceBreaks(item)

	for _, pic := range item.Pics {
		if pic.URL != "" {
			product.ImageURLs = append(product.ImageURLs, pic.URL)
		}
	}

	return product
}

// parsePriceBreaks zips the parallel qtys/catPrcs/sellPrcs/costs arrays
// into price break structs. Slots with an empty or zero quantity are
// placeholders and get skipped.
func parsePriceBreaks(item *rawItem) []models.SAGEPriceBreak {
	var breaks []models.SAGEPriceBreak
	for i, qtyStr := range item.Qtys {
		qty := safeInt(qtyStr)
		if qty == nil || *qty == 0 {
			continue
		}
		pb := models.SAGEPriceBreak{Quantity: *qty}
		if i < len(item.SellPrcs) {
			pb.SellPrice = positiveFloat(item.SellPrcs[i])
		}
		if i < len(item.CatPrcs) {
			pb.CatalogPrice = positiveFloat(item.CatPrcs[i])
		}
		if i < len(item.Costs) {
			pb.NetCost = positiveFloat(item.Costs[i])
		}
		breaks = append(breaks, pb)
	}
	return breaks
}

// mergeDetail folds the authoritative 105 fields into a product parsed
// from the presentation response.
func mergeDetail(product *models.SAGEProduct, detail *rawDetail) {
	netByQty := make(map[int]float64)
	for i, qty := range detail.Qty {
		if i >= len(detail.Net) {
			break
		}
		q, err := strconv.Atoi(strings.ReplaceAll(qty.String(), ",", ""))
		if err != nil || q == 0 {
			continue
		}
		if net, err := detail.Net[i].Float64(); err == nil && net > 0 {
			netByQty[q] = net
		}
	}
	for i := range product.PriceBreaks {
		if net, ok := netByQty[product.PriceBreaks[i].Quantity]; ok {
			product.PriceBreaks[i].NetCost = &net
		}
	}

	if detail.ProdTime != "" {
		product.ProdTime = strPtr(detail.ProdTime)
	}
	if detail.DecorationMethod != "" {
		product.DecorationMethod = strPtr(detail.DecorationMethod)
	}
	if detail.ImprintArea != "" {
		product.ImprintArea = strPtr(detail.ImprintArea)
	}
	if detail.ImprintLoc != "" {
		product.ImprintLoc = strPtr(detail.ImprintLoc)
	}
	if detail.SecondImprintArea != "" {
		product.SecondImprintArea = strPtr(detail.SecondImprintArea)
	}
	if detail.SecondImprintLoc != "" {
		product.SecondImprintLoc = strPtr(detail.SecondImprintLoc)
	}
	product.Recyclable = detail.Recyclable == 1
	product.EnvFriendly = detail.EnvFriendly == 1
	if len(detail.Themes) > 0 {
		product.Themes = strPtr(strings.Join(detail.Themes, ", "))
	}
	if detail.PriceIncludes != "" && product.PriceIncludes == nil {
		product.PriceIncludes = strPtr(detail.PriceIncludes)
	}
}

var (
	sageConnectPattern  = regexp.MustCompile(`(?i)sageconnect\.sage\.com/Presentation/([A-Za-z0-9]+)`)
	viewPresPathPattern = regexp.MustCompile(`(?i)viewpresentation\.com/p/([A-Za-z0-9-]+)`)
	viewPresNumPattern  = regexp.MustCompile(`(?i)viewpresentation\.com/(\d+)`)
)

// ExtractPresID pulls the presentation ID out of a SAGE presentation
// URL. Long numeric viewpresentation IDs carry a 4-digit account prefix
// that is not part of the presentation ID.
func ExtractPresID(url string) (string, error) {
	if m := sageConnectPattern.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	if m := viewPresPathPattern.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	if m := viewPresNumPattern.FindStringSubmatch(url); m != nil {
		id := m[1]
		if len(id) > 7 {
			id = id[4:]
		}
		return id, nil
	}
	return "", fmt.Errorf("no presentation ID found in URL: %s", url)
}

func strPtr(s string) *string {
	return &s
}

func strOrNil(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func numberOrNil(n json.Number) *float64 {
	if n.String() == "" {
		return nil
	}
	if v, err := n.Float64(); err == nil {
		return &v
	}
	return nil
}

func intOrNil(n json.Number) *int {
	if n.String() == "" {
		return nil
	}
	if v, err := strconv.Atoi(n.String()); err == nil {
		return &v
	}
	return nil
}

// safeFloat parses a SAGE numeric string, tolerating thousands
// separators and currency signs. Unparseable values become nil.
func safeFloat(s string) *float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, ",", ""), "$", ""))
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// positiveFloat is safeFloat with zero treated as absent, matching how
// SAGE reports missing tiers.
func positiveFloat(s string) *float64 {
	v := safeFloat(s)
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func safeInt(s string) *int {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return nil
	}
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &v
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
