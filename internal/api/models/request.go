package models

import "offer-dispatch/internal/data"

// AllocateRequest carries a full run inline: demand, offers, optional
// indexer and reference series, plus config overrides.
type AllocateRequest struct {
	Demand     []data.DemandRow     `json:"demand" binding:"required"`
	Offers     []data.OfferEntry    `json:"offers" binding:"required"`
	Indexers   *data.IndexersFile   `json:"indexers,omitempty"`
	References *data.ReferencesFile `json:"references,omitempty"`
	Options    RequestOptions       `json:"options"`
}

// RequestOptions are per-request overrides of the server-side config.
// Zero-valued fields keep the server defaults.
type RequestOptions struct {
	MaxPrice         float64 `json:"max_price,omitempty"`
	MinQuantity      float64 `json:"min_quantity,omitempty"`
	RequireBoth      bool    `json:"require_both_quantity_and_price,omitempty"`
	KFactor          float64 `json:"k_factor,omitempty"`
	StrictValidation bool    `json:"strict_validation,omitempty"`
	SecondPass       bool    `json:"second_pass,omitempty"`
	Parallelism      int     `json:"parallelism,omitempty"`
	AnnualGrowthPct  float64 `json:"annual_growth_pct,omitempty"`
}

// ProjectRequest extends an indexer series over a horizon.
type ProjectRequest struct {
	Indexers        data.IndexersFile `json:"indexers" binding:"required"`
	UntilMonth      string            `json:"until_month" binding:"required"` // YYYY-MM
	AnnualGrowthPct float64           `json:"annual_growth_pct"`
}
