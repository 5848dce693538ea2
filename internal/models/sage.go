// -----------------------------------------------------------------------
// SAGE Raw Output - API response shape for the SAGE pipeline
// -----------------------------------------------------------------------
//
// The SAGE handler flattens most product fields to the top level of each
// product object; the presentation endpoint (serviceId 301) contributes
// client/presenter data and sell prices, the full detail endpoint
// (serviceId 105) contributes costs, themes and decoration fields.

package models

// SAGEOutput is the raw result of the SAGE pipeline.
type SAGEOutput struct {
	Success         bool          `json:"success"`
	PresID          *string       `json:"pres_id"`
	PresentationURL *string       `json:"presentation_url"`
	Metadata        SAGEMetadata  `json:"metadata"`
	Client          SAGEClient    `json:"client"`
	Presenter       SAGEPresenter `json:"presenter"`
	Products        []SAGEProduct `json:"products"`
	Error           *string       `json:"error"`
}

// SAGEMetadata describes the presentation API response.
type SAGEMetadata struct {
	GeneratedAt       string            `json:"generated_at"`
	PresentationURL   *string           `json:"presentation_url"`
	PresentationTitle *string           `json:"presentation_title"`
	PresentationDate  *string           `json:"presentation_date"`
	TotalItems        int               `json:"total_items"`
	ItemCount         int               `json:"item_count"`
	APIVersion        *string           `json:"api_version"`
	PricingSources    map[string]string `json:"pricing_sources"`
}

// SAGEClient identifies the end customer.
type SAGEClient struct {
	ID      *string  `json:"id"`
	Name    *string  `json:"name"`
	Company *string  `json:"company"`
	Email   *string  `json:"email"`
	Phone   *string  `json:"phone"`
	TaxRate *float64 `json:"tax_rate"`
}

// SAGEPresenter identifies the distributor rep.
type SAGEPresenter struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`
}

// SAGESupplier is the supplier block of a product.
type SAGESupplier struct {
	Name     string  `json:"name"`
	Website  *string `json:"website"`
	SAGEID   *string `json:"sage_id"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	ZipCode  *string `json:"zip_code"`
	LineName *string `json:"line_name"`
}

// SAGEPriceBreak is one price tier. sell_price is the customer-facing
// presentation price; net_cost comes from the full detail API.
type SAGEPriceBreak struct {
	Quantity     int      `json:"quantity"`
	SellPrice    *float64 `json:"sell_price"`
	NetCost      *float64 `json:"net_cost"`
	CatalogPrice *float64 `json:"catalog_price"`
}

// SAGEProduct is one product entry, mostly flat per the SAGE handler.
type SAGEProduct struct {
	// Identifiers
	ProdID          *int    `json:"prod_id"`
	EncryptedProdID *string `json:"encrypted_prod_id"`
	PresItemID      *int    `json:"pres_item_id"`
	SPC             *string `json:"spc"`
	InternalItemNum *string `json:"internal_item_num"`
	ItemNum         *string `json:"item_num"`

	// Item
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    *string  `json:"category"`
	Themes      *string  `json:"themes"` // comma-separated per API
	Colors      []string `json:"colors"`
	Dimensions  *string  `json:"dimensions"`
	Recyclable  bool     `json:"recyclable"`
	EnvFriendly bool     `json:"env_friendly"`

	Supplier *SAGESupplier `json:"supplier"`

	// Pricing
	PriceBreaks   []SAGEPriceBreak `json:"price_breaks"`
	PriceCode     *string          `json:"price_code"`
	PriceIncludes *string          `json:"price_includes"`

	// Per-order charges as individual fields
	SetupCharge      *float64 `json:"setup_charge"`
	SetupChargeCode  *string  `json:"setup_charge_code"`
	RepeatCharge     *float64 `json:"repeat_charge"`
	ScreenCharge     *float64 `json:"screen_charge"`
	ProofCharge      *float64 `json:"proof_charge"`
	PMSCharge        *float64 `json:"pms_charge"`
	SpecSampleCharge *float64 `json:"spec_sample_charge"`
	CopyChangeCharge *float64 `json:"copy_change_charge"`

	// Decoration
	DecorationMethod  *string `json:"decoration_method"`
	ImprintInfoText   *string `json:"imprint_info_text"`
	ImprintArea       *string `json:"imprint_area"`
	ImprintLoc        *string `json:"imprint_loc"`
	SecondImprintArea *string `json:"second_imprint_area"`
	SecondImprintLoc  *string `json:"second_imprint_loc"`

	// Shipping
	ShipPoint       *string  `json:"ship_point"`
	ProdTime        *string  `json:"prod_time"`
	PackagingText   *string  `json:"packaging_text"`
	UnitsPerCarton  *int     `json:"units_per_carton"`
	WeightPerCarton *float64 `json:"weight_per_carton"`

	AdditionalChargesText *string `json:"additional_charges_text"`

	ImageURLs []string `json:"image_urls"`
}
