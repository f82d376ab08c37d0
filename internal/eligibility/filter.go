// Package eligibility applies the acceptance rule to every (offer, period)
// cell of a catalog.
package eligibility

import (
	"offer-dispatch/internal/catalog"
	"offer-dispatch/internal/model"
)

// Reason explains why a cell was rejected.
type Reason string

const (
	ReasonPriceAboveCeiling Reason = "PRICE_ABOVE_CEILING"
	ReasonBelowMinQuantity  Reason = "BELOW_MIN_QUANTITY"
	ReasonMissingPrice      Reason = "MISSING_PRICE"
	ReasonMissingReference  Reason = "MISSING_REFERENCE"
)

// ReferenceRule is the market-reference ceiling: a cell passes when its
// price is at or below min(K * market, exchange) for the period's month.
type ReferenceRule struct {
	K      float64
	Prices *model.ReferencePrices
}

// Rule is the acceptance policy. Zero-valued fields are inactive: a nil
// MaxPrice means no fixed ceiling, a zero MinQuantity means no floor.
type Rule struct {
	MaxPrice    *float64
	MinQuantity float64
	// RequireBoth rejects cells whose price is unresolved even when no
	// ceiling applies. When false such cells are still rejected (nothing can
	// be allocated without a price) but with the same missing-price reason.
	RequireBoth bool
	Reference   *ReferenceRule
}

// CellResult is the verdict for one (offer, period) cell.
type CellResult struct {
	Eligible bool
	Reason   Reason
}

// Result partitions a catalog into eligible and rejected cells.
type Result struct {
	// Cells holds a verdict for every populated catalog cell.
	Cells map[string]map[model.Period]CellResult
	// FullyRejected lists offers with zero eligible periods, distinct from
	// partially rejected offers for reporting.
	FullyRejected []string
}

// Eligible reports whether the given cell passed.
func (r *Result) Eligible(offerID string, p model.Period) bool {
	return r.Cells[offerID][p].Eligible
}

// Evaluate applies rule to every populated cell, independently per period.
// It is pure: ties in price are not broken here and no ordering is implied.
func Evaluate(cat *catalog.Catalog, rule Rule) *Result {
	res := &Result{Cells: make(map[string]map[model.Period]CellResult, len(cat.Offers))}

	for i := range cat.Offers {
		offer := &cat.Offers[i]
		verdicts := make(map[model.Period]CellResult, len(offer.Cells))
		anyEligible := false

		for p, cell := range offer.Cells {
			v := evaluateCell(cell, p, rule)
			verdicts[p] = v
			if v.Eligible {
				anyEligible = true
			}
		}

		res.Cells[offer.ID] = verdicts
		if !anyEligible {
			res.FullyRejected = append(res.FullyRejected, offer.ID)
		}
	}
	return res
}

func evaluateCell(cell model.Cell, p model.Period, rule Rule) CellResult {
	if !cell.PriceResolved {
		return CellResult{Reason: ReasonMissingPrice}
	}
	if cell.Quantity < rule.MinQuantity {
		return CellResult{Reason: ReasonBelowMinQuantity}
	}
	if rule.MaxPrice != nil && cell.Price > *rule.MaxPrice {
		return CellResult{Reason: ReasonPriceAboveCeiling}
	}
	if rule.Reference != nil {
		market, exchange, ok := rule.Reference.Prices.Lookup(p.Date.YearMonth())
		if !ok {
			return CellResult{Reason: ReasonMissingReference}
		}
		ceiling := rule.Reference.K * market
		if exchange < ceiling {
			ceiling = exchange
		}
		if cell.Price > ceiling {
			return CellResult{Reason: ReasonPriceAboveCeiling}
		}
	}
	return CellResult{Eligible: true}
}
