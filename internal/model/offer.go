package model

// PricingMode distinguishes offers quoted at a fixed price from offers whose
// price is derived from an indexer series at evaluation time.
type PricingMode string

const (
	PricingDirect  PricingMode = "DIRECT"
	PricingIndexed PricingMode = "INDEXED"
)

// IndexerKind selects which column of an indexer point feeds a price
// formula term.
type IndexerKind string

const (
	// IndexerCPI always resolves against the CPI column.
	IndexerCPI IndexerKind = "CPI"
	// IndexerDomesticSupply resolves against the provisional or definitive
	// domestic supply column, chosen per formula term.
	IndexerDomesticSupply IndexerKind = "DOMESTIC_SUPPLY"
)

// SeriesSelector picks the provisional or definitive variant of a non-CPI
// indexer column.
type SeriesSelector string

const (
	SeriesProvisional SeriesSelector = "PROVISIONAL"
	SeriesDefinitive  SeriesSelector = "DEFINITIVE"
)

// IndexerFormula holds the fixed parameters of an indexer-priced offer:
//
//	indexedPrice = basePrice * numerator(period month) / denominator(base month)
//
// The numerator is resolved at each offer period's month, the denominator
// once at the offer's base date month.
type IndexerFormula struct {
	Indexer     IndexerKind
	Numerator   SeriesSelector
	Denominator SeriesSelector
	BaseDate    Date
}

// RawOffer is one supplier submission as handed over by the I/O layer:
// per-period quantities, per-period prices (fixed or pre-indexation base
// prices), and the indexer formula when the offer is indexer-priced.
//
// A period missing from Quantities means zero capacity there. A period
// missing from Prices means the price is unresolvable for that period; it
// never means a price of zero.
type RawOffer struct {
	ID         string
	Pricing    PricingMode
	Formula    *IndexerFormula     // nil unless Pricing == PricingIndexed
	Quantities map[Period]float64  // kWh offered per period
	Prices     map[Period]float64  // $/kWh, or base price before indexation
}

// Cell is one validated (offer, period) entry of the catalog.
type Cell struct {
	Quantity float64 // kWh
	Price    float64 // $/kWh, resolved
	// PriceResolved is false when the price could not be computed for this
	// period (missing price row or unresolvable indexer month). Such cells
	// keep their quantity but can never be allocated.
	PriceResolved bool
}

// Offer is a validated, price-resolved offer inside the catalog.
type Offer struct {
	ID      string
	Pricing PricingMode
	Cells   map[Period]Cell
}

// Cell returns the cell for p. Absent periods read as zero capacity with an
// unresolved price.
func (o *Offer) Cell(p Period) Cell {
	return o.Cells[p]
}

// Demand is the energy required per period, in kWh. Immutable input.
type Demand map[Period]float64

// Validate checks that demand covers the full grid with no gaps and no
// negative values.
func (d Demand) Validate(grid *TimeGrid) error {
	for _, p := range grid.Periods() {
		v, ok := d[p]
		if !ok {
			return &InfeasibleInputError{Period: p, Msg: "demand undefined for grid period"}
		}
		if v < 0 {
			return &InfeasibleInputError{Period: p, Msg: "negative demand"}
		}
	}
	return nil
}
