// -----------------------------------------------------------------------
// Unified Output - the single schema both pipelines normalize into
// -----------------------------------------------------------------------
//
// Design rules carried over from the quoting workflow this feeds:
//   - Shared fields use identical names regardless of source.
//   - unit_price comes from the presentation (what the customer sees);
//     net_cost comes from the distributor report/API (authoritative cost).
//     The two are never cross-populated.
//   - Absent source fields stay nil so "not provided" is distinguishable
//     from "provided as empty".

package models

// UnifiedOutput is the normalized representation handed to downstream
// CRM and calculator consumers.
type UnifiedOutput struct {
	Success   bool             `json:"success"`
	Metadata  UnifiedMetadata  `json:"metadata"`
	Client    UnifiedClient    `json:"client"`
	Presenter UnifiedPresenter `json:"presenter"`
	Products  []UnifiedProduct `json:"products"`
	Errors    []UnifiedError   `json:"errors"`
}

// UnifiedError is a normalized pipeline error entry.
type UnifiedError struct {
	Message   string  `json:"message"`
	ProductID *string `json:"product_id,omitempty"`
}

// UnifiedMetadata describes the source presentation and extraction counts.
type UnifiedMetadata struct {
	GeneratedAt       string            `json:"generated_at"`
	Source            string            `json:"source"`
	PresentationURL   string            `json:"presentation_url"`
	PresentationTitle *string           `json:"presentation_title"`
	PresentationDate  *string           `json:"presentation_date"`
	PresID            *string           `json:"pres_id"`
	TotalItems        int               `json:"total_items"`
	ItemsProcessed    int               `json:"items_processed"`
	Errors            int               `json:"errors"`
	APIVersion        *string           `json:"api_version,omitempty"`
	PricingSources    map[string]string `json:"pricing_sources"`
}

// UnifiedClient identifies the end customer the presentation was built for.
type UnifiedClient struct {
	ID      *string  `json:"id,omitempty"`
	Name    *string  `json:"name"`
	Company *string  `json:"company"`
	Email   *string  `json:"email,omitempty"`
	Phone   *string  `json:"phone,omitempty"`
	TaxRate *float64 `json:"tax_rate,omitempty"`
}

// UnifiedPresenter identifies the distributor rep who built the presentation.
type UnifiedPresenter struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Contact *string `json:"contact,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Website *string `json:"website,omitempty"`
}

// UnifiedProduct aggregates everything known about one product,
// regardless of which pipeline produced it. Source always identifies
// the origin pipeline ("esp" or "sage").
type UnifiedProduct struct {
	Source      string             `json:"source"`
	Identifiers UnifiedIdentifiers `json:"identifiers"`
	Item        UnifiedItem        `json:"item"`
	Vendor      UnifiedVendor      `json:"vendor"`
	Pricing     UnifiedPricing     `json:"pricing"`
	Fees        []UnifiedFee       `json:"fees"`
	Decoration  UnifiedDecoration  `json:"decoration"`
	Variants    []UnifiedVariant   `json:"variants"`
	Shipping    UnifiedShipping    `json:"shipping"`
	Images      []string           `json:"images"`
	Notes       UnifiedNotes       `json:"notes"`
	Flags       map[string]bool    `json:"flags"`
}

// UnifiedIdentifiers carries both shared and source-specific product IDs.
// MPN is the primary key for CRM item matching.
type UnifiedIdentifiers struct {
	MPN       *string `json:"mpn"`
	VendorSKU *string `json:"vendor_sku"`

	// ESP-specific
	CPN *string `json:"cpn,omitempty"`

	// SAGE-specific
	SPC             *string `json:"spc,omitempty"`
	ProdID          *int    `json:"prod_id,omitempty"`
	EncryptedProdID *string `json:"encrypted_prod_id,omitempty"`
	PresItemID      *int    `json:"pres_item_id,omitempty"`
	InternalItemNum *string `json:"internal_item_num,omitempty"`
	ItemNum         *string `json:"item_num,omitempty"`
}

// UnifiedDimensions is a parsed dimension set plus the original string.
type UnifiedDimensions struct {
	Length *float64 `json:"length,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Unit   *string  `json:"unit,omitempty"`
	Raw    *string  `json:"raw,omitempty"`
}

// UnifiedItem is the core product description.
type UnifiedItem struct {
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	DescriptionShort *string            `json:"description_short"`
	Categories       []string           `json:"categories"`
	Themes           []string           `json:"themes"`
	Materials        []string           `json:"materials"`
	Colors           []string           `json:"colors"`
	PrimaryColor     *string            `json:"primary_color"`
	Dimensions       *UnifiedDimensions `json:"dimensions,omitempty"`
	WeightValue      *float64           `json:"weight_value,omitempty"`
	WeightUnit       *string            `json:"weight_unit,omitempty"`
	Sustainability   *string            `json:"sustainability_credential,omitempty"`
	ItemAssembled    *bool              `json:"item_assembled,omitempty"`
}

// UnifiedAddress is a standardized postal address.
type UnifiedAddress struct {
	Line1      *string `json:"line1,omitempty"`
	Line2      *string `json:"line2,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    *string `json:"country,omitempty"`
}

// UnifiedVendor identifies the supplier. Website is the primary match
// key for CRM vendor lookup since names vary between platforms.
type UnifiedVendor struct {
	Name        string          `json:"name"`
	Website     *string         `json:"website"`
	ASI         *string         `json:"asi,omitempty"`
	SAGEID      *string         `json:"sage_id,omitempty"`
	ContactName *string         `json:"contact_name,omitempty"`
	Email       *string         `json:"email,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	Address     *UnifiedAddress `json:"address,omitempty"`
	LineName    *string         `json:"line_name,omitempty"`
	TradeName   *string         `json:"trade_name,omitempty"`
	Hours       *string         `json:"hours,omitempty"`
}

// UnifiedPriceBreak is one (quantity tier, unit price) pair.
//
// unit_price is always the customer-facing price: ESP's catalog_price or
// SAGE's sell_price depending on origin. net_cost is kept separately and
// is never derived from unit_price.
type UnifiedPriceBreak struct {
	Quantity      int      `json:"quantity"`
	UnitPrice     *float64 `json:"unit_price"`
	NetCost       *float64 `json:"net_cost"`
	CatalogPrice  *float64 `json:"catalog_price,omitempty"`
	Margin        *float64 `json:"margin,omitempty"`
	MarginPercent *float64 `json:"margin_percent,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// UnifiedPricing groups all price breaks and pricing terms.
type UnifiedPricing struct {
	Breaks        []UnifiedPriceBreak `json:"breaks"`
	PriceCode     *string             `json:"price_code,omitempty"`
	Currency      string              `json:"currency"`
	ValidThrough  *string             `json:"valid_through,omitempty"`
	PriceIncludes *string             `json:"price_includes,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
}

// UnifiedFee is one setup/reorder/proof/etc charge.
type UnifiedFee struct {
	FeeType          string   `json:"fee_type"`
	Name             string   `json:"name"`
	Description      *string  `json:"description,omitempty"`
	ListPrice        *float64 `json:"list_price"`
	NetCost          *float64 `json:"net_cost"`
	PriceCode        *string  `json:"price_code,omitempty"`
	ChargeBasis      *string  `json:"charge_basis,omitempty"`
	MinQty           *int     `json:"min_qty,omitempty"`
	DecorationMethod *string  `json:"decoration_method,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
}

// UnifiedImprintArea is a decorate-able region on the product.
type UnifiedImprintArea struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Unit   *string  `json:"unit,omitempty"`
	Raw    *string  `json:"raw,omitempty"`
}

// UnifiedDecorationMethod describes one available imprint method.
type UnifiedDecorationMethod struct {
	Name      string  `json:"name"`
	FullColor bool    `json:"full_color"`
	MaxColors *int    `json:"max_colors,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// UnifiedDecorationLocation describes where decoration may be applied.
type UnifiedDecorationLocation struct {
	Name           string               `json:"name"`
	Component      *string              `json:"component,omitempty"`
	MethodsAllowed []string             `json:"methods_allowed"`
	ImprintAreas   []UnifiedImprintArea `json:"imprint_areas"`
}

// UnifiedDecoration groups all decoration information.
type UnifiedDecoration struct {
	Methods               []UnifiedDecorationMethod   `json:"methods"`
	Locations             []UnifiedDecorationLocation `json:"locations"`
	SoldUnimprinted       *bool                       `json:"sold_unimprinted,omitempty"`
	Personalization       *bool                       `json:"personalization_available,omitempty"`
	FullColorProcess      *bool                       `json:"full_color_process_available,omitempty"`
	ImprintInfo           *string                     `json:"imprint_info,omitempty"`
	ImprintColorsDesc     *string                     `json:"imprint_colors_description,omitempty"`
	MultiColorDescription *string                     `json:"multi_color_description,omitempty"`
}

// UnifiedVariant describes a selectable product attribute (color, size).
type UnifiedVariant struct {
	Attribute string   `json:"attribute"`
	Label     string   `json:"label"`
	Component *string  `json:"component,omitempty"`
	Options   []string `json:"options"`
	Notes     *string  `json:"notes,omitempty"`
}

// UnifiedFOBPoint is a shipping origin.
type UnifiedFOBPoint struct {
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    *string `json:"country,omitempty"`
}

// UnifiedShipping groups shipping and packaging details.
type UnifiedShipping struct {
	ShipPoint       *string           `json:"ship_point,omitempty"`
	FOBPoints       []UnifiedFOBPoint `json:"fob_points"`
	UnitsPerCarton  *int              `json:"units_per_carton,omitempty"`
	WeightPerCarton *float64          `json:"weight_per_carton,omitempty"`
	Packaging       *string           `json:"packaging,omitempty"`
	LeadTime        *string           `json:"lead_time,omitempty"`
	AdditionalText  *string           `json:"additional_charges_text,omitempty"`
}

// UnifiedNotes carries free-text supplier notes and disclaimers.
type UnifiedNotes struct {
	Packaging           *string  `json:"packaging,omitempty"`
	LeadTime            *string  `json:"lead_time,omitempty"`
	SupplierDisclaimers []string `json:"supplier_disclaimers"`
	AdditionalText      *string  `json:"additional_charges_text,omitempty"`
	Other               *string  `json:"other,omitempty"`
}
