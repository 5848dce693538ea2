package models

// PresentationListing is the raw extraction result for a presentation
// document: the header contacts plus the customer-facing product roster.
// The ESP pipeline merges this with per-product sell sheet extractions
// to build the final ESPOutput.
type PresentationListing struct {
	Presentation PresentationHeader    `json:"presentation"`
	Products     []PresentationProduct `json:"products"`
	Summary      PresentationSummary   `json:"summary"`
}

// PresentationHeader carries the client and presenter identity block.
type PresentationHeader struct {
	Title            *string `json:"title"`
	ClientName       *string `json:"client_name"`
	ClientCompany    *string `json:"client_company"`
	PresenterName    *string `json:"presenter_name"`
	PresenterCompany *string `json:"presenter_company"`
	PresenterWebsite *string `json:"presenter_website"`
	PresenterEmail   *string `json:"presenter_email"`
	PresenterPhone   *string `json:"presenter_phone"`
}

// PresentationProduct is one roster entry with the presentation's
// customer-facing pricing. CPN links the entry to its sell sheet.
type PresentationProduct struct {
	Name             string            `json:"name"`
	CPN              *string           `json:"cpn"`
	MPN              *string           `json:"mpn"`
	Description      *string           `json:"description"`
	Colors           []string          `json:"colors"`
	PriceBreaks      []ESPPriceBreak   `json:"price_breaks"`
	PriceIncludes    *string           `json:"price_includes"`
	ImprintSizes     *string           `json:"imprint_sizes"`
	ImprintLocations *string           `json:"imprint_locations"`
	Fees             []PresentationFee `json:"fees"`
}

// PresentationFee is a charge line shown on the presentation page.
type PresentationFee struct {
	Name      string   `json:"name"`
	ListPrice *float64 `json:"list_price"`
	Notes     *string  `json:"notes"`
}

// PresentationSummary carries the extractor's own roster count.
type PresentationSummary struct {
	TotalProducts int `json:"total_products"`
}
