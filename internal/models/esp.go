// -----------------------------------------------------------------------
// ESP Raw Output - extraction result shape for the ESP pipeline
// -----------------------------------------------------------------------
//
// This is the JSON emitted after merging the presentation extraction with
// the per-product distributor reports. Field names follow the extraction
// schema prompt; the document reader's null-for-missing convention maps
// onto pointer fields here.

package models

// ESPOutput is the raw merged result of the ESP pipeline.
type ESPOutput struct {
	Metadata ESPMetadata    `json:"metadata"`
	Products []ESPProduct   `json:"products"`
	Errors   []UnifiedError `json:"errors"`
}

// ESPMetadata describes the scraped presentation.
type ESPMetadata struct {
	GeneratedAt       string     `json:"generated_at"`
	PresentationURL   string     `json:"presentation_url"`
	PresentationTitle *string    `json:"presentation_title"`
	Client            ESPContact `json:"client"`
	Presenter         ESPContact `json:"presenter"`
	TotalItems        int        `json:"total_items_in_presentation"`
	ItemsProcessed    int        `json:"total_items_processed"`
	TotalErrors       int        `json:"total_errors"`
}

// ESPContact is a name/company pair from the presentation header.
type ESPContact struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
}

// ESPProduct is one product as extracted from a distributor sell sheet.
type ESPProduct struct {
	Item       ESPItem       `json:"item"`
	Vendor     ESPVendor     `json:"vendor"`
	Pricing    ESPPricing    `json:"pricing"`
	Fees       []ESPFee      `json:"fees"`
	Decoration ESPDecoration `json:"decoration"`
	Variants   []ESPVariant  `json:"variants"`
	RawNotes   ESPRawNotes   `json:"raw_notes"`

	// Presentation-page fields that override the sell sheet
	PresentationSellData *ESPSellData `json:"presentation_sell_data,omitempty"`

	ImprintSizes     *string         `json:"imprint_sizes,omitempty"`
	ImprintLocations *string         `json:"imprint_locations,omitempty"`
	Flags            map[string]bool `json:"flags,omitempty"`
}

// ESPItem is the item block of a sell sheet.
type ESPItem struct {
	MPN              *string            `json:"mpn"`
	VendorSKU        *string            `json:"vendor_sku"`
	CPN              *string            `json:"cpn"`
	Name             string             `json:"name"`
	DescriptionLong  *string            `json:"description_long"`
	DescriptionShort *string            `json:"description_short"`
	Categories       []string           `json:"categories"`
	Themes           []string           `json:"themes"`
	Materials        []string           `json:"materials"`
	Colors           []string           `json:"colors"`
	PrimaryColor     *string            `json:"primary_color"`
	Dimensions       *UnifiedDimensions `json:"dimensions,omitempty"`
	DimensionsRaw    *string            `json:"dimensions_raw,omitempty"`
	WeightValue      *float64           `json:"weight_value,omitempty"`
	WeightUnit       *string            `json:"weight_unit,omitempty"`
	ItemAssembled    *bool              `json:"item_assembled,omitempty"`
}

// ESPVendor is the vendor block of a sell sheet.
type ESPVendor struct {
	Name        string            `json:"name"`
	Website     *string           `json:"website"`
	ASI         *string           `json:"asi"`
	ContactName *string           `json:"contact_name"`
	Emails      []string          `json:"emails"`
	Phones      []string          `json:"phones"`
	Address     *UnifiedAddress   `json:"address,omitempty"`
	LineName    *string           `json:"line_name,omitempty"`
	TradeName   *string           `json:"trade_name,omitempty"`
	Hours       *string           `json:"hours,omitempty"`
	FOBPoints   []UnifiedFOBPoint `json:"fob_points"`
}

// ESPPriceBreak is one price tier from a sell sheet or report.
// min_qty is ESP's name for the quantity tier; catalog_price is the
// customer-facing presentation price and net_cost the distributor cost.
type ESPPriceBreak struct {
	MinQty       *int     `json:"min_qty"`
	Quantity     *int     `json:"quantity"`
	CatalogPrice *float64 `json:"catalog_price"`
	SellPrice    *float64 `json:"sell_price"`
	NetCost      *float64 `json:"net_cost"`
	Notes        *string  `json:"notes"`
}

// ESPPricing is the pricing block of a sell sheet.
type ESPPricing struct {
	Breaks        []ESPPriceBreak `json:"breaks"`
	PriceCode     *string         `json:"price_code"`
	Currency      *string         `json:"currency"`
	ValidThrough  *string         `json:"valid_through"`
	PriceIncludes *string         `json:"price_includes"`
	Notes         *string         `json:"notes"`
}

// ESPFee is one charge line from a sell sheet.
type ESPFee struct {
	FeeType          *string  `json:"fee_type"`
	Name             string   `json:"name"`
	Description      *string  `json:"description"`
	ListPrice        *float64 `json:"list_price"`
	NetCost          *float64 `json:"net_cost"`
	PriceCode        *string  `json:"price_code"`
	ChargeBasis      *string  `json:"charge_basis"`
	MinQty           *int     `json:"min_qty"`
	DecorationMethod *string  `json:"decoration_method"`
	Notes            *string  `json:"notes"`
}

// ESPDecoration is the decoration block of a sell sheet.
type ESPDecoration struct {
	Methods           []ESPDecorationMethod   `json:"methods"`
	Locations         []ESPDecorationLocation `json:"locations"`
	SoldUnimprinted   *bool                   `json:"sold_unimprinted"`
	Personalization   *bool                   `json:"personalization_available"`
	FullColorProcess  *bool                   `json:"full_color_process_available"`
	ImprintColorsDesc *string                 `json:"imprint_colors_description"`
	MultiColorOptions *ESPMultiColorOptions   `json:"multi_color_options,omitempty"`
}

// ESPDecorationMethod is one imprint method entry.
type ESPDecorationMethod struct {
	Name      string  `json:"name"`
	FullColor bool    `json:"full_color"`
	MaxColors *int    `json:"max_colors"`
	Notes     *string `json:"notes"`
}

// ESPDecorationLocation is one decoration location entry.
type ESPDecorationLocation struct {
	Name           string               `json:"name"`
	Component      *string              `json:"component"`
	MethodsAllowed []string             `json:"methods_allowed"`
	ImprintAreas   []UnifiedImprintArea `json:"imprint_areas"`
}

// ESPMultiColorOptions describes multi-color imprint availability.
type ESPMultiColorOptions struct {
	Description *string `json:"description"`
}

// ESPVariant is one selectable attribute entry.
type ESPVariant struct {
	Attribute string   `json:"attribute"`
	Label     string   `json:"label"`
	Component *string  `json:"component"`
	Options   []string `json:"options"`
	Notes     *string  `json:"notes"`
}

// ESPRawNotes carries free text the extractor could not classify.
type ESPRawNotes struct {
	LeadTime            *string  `json:"lead_time"`
	Packaging           *string  `json:"packaging"`
	SupplierDisclaimers []string `json:"supplier_disclaimers"`
	Other               *string  `json:"other"`
}

// ESPSellData carries presentation-page pricing context that overrides
// the sell sheet when present.
type ESPSellData struct {
	PriceIncludes *string `json:"price_includes"`
}
