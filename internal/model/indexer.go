package model

// IndexerPoint is one month of indexer observations: the CPI column plus
// the provisional and definitive domestic supply columns.
type IndexerPoint struct {
	Month             YearMonth
	CPI               float64
	SupplyProvisional float64
	SupplyDefinitive  float64
}

func (p IndexerPoint) value(kind IndexerKind, sel SeriesSelector) float64 {
	if kind == IndexerCPI {
		return p.CPI
	}
	if sel == SeriesDefinitive {
		return p.SupplyDefinitive
	}
	return p.SupplyProvisional
}

// IndexerTable carries the observed indexer series and its projection over
// the planning horizon. Lookups prefer observed values and fall back to the
// projection.
type IndexerTable struct {
	Observed  []IndexerPoint
	Projected []IndexerPoint
}

// Resolve returns the indexer value for the given month, or false when
// neither series covers it.
func (t *IndexerTable) Resolve(kind IndexerKind, sel SeriesSelector, ym YearMonth) (float64, bool) {
	if t == nil {
		return 0, false
	}
	for _, pt := range t.Observed {
		if pt.Month == ym {
			return pt.value(kind, sel), true
		}
	}
	for _, pt := range t.Projected {
		if pt.Month == ym {
			return pt.value(kind, sel), true
		}
	}
	return 0, false
}

// ReferencePrices are the monthly market and exchange reference series used
// by the reference-ceiling acceptance rule. Both are $/kWh keyed by month.
type ReferencePrices struct {
	Market   map[YearMonth]float64 // contracted market reference
	Exchange map[YearMonth]float64 // spot exchange reference
}

func (r *ReferencePrices) Lookup(ym YearMonth) (market, exchange float64, ok bool) {
	if r == nil {
		return 0, 0, false
	}
	m, mok := r.Market[ym]
	e, eok := r.Exchange[ym]
	return m, e, mok && eok
}
