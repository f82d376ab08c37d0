// Package indexer projects monthly indexer series forward over the planning
// horizon and resolves indexed prices from them.
package indexer

import (
	"errors"
	"math"

	"offer-dispatch/internal/model"
)

// Project extends an indexer table so that it covers every month up to and
// including until. New points compound monthly at the rate implied by
// annualGrowthPct (e.g. 4 for 4%/year), starting from the last known point.
// An existing projection is extended, never rebuilt; if it already covers
// the horizon the table is returned unchanged.
func Project(table model.IndexerTable, annualGrowthPct float64, until model.YearMonth) (model.IndexerTable, error) {
	if annualGrowthPct < 0 {
		return model.IndexerTable{}, errors.New("annual growth must be >= 0")
	}

	base, ok := lastPoint(table)
	if !ok {
		return model.IndexerTable{}, errors.New("indexer table has no points to project from")
	}
	if !until.After(base.Month) {
		return table, nil
	}

	monthly := math.Pow(1+annualGrowthPct/100, 1.0/12) - 1

	out := model.IndexerTable{
		Observed:  table.Observed,
		Projected: append([]model.IndexerPoint(nil), table.Projected...),
	}
	cur := base
	for ym := base.Month.Next(); !ym.After(until); ym = ym.Next() {
		cur = model.IndexerPoint{
			Month:             ym,
			CPI:               round2(cur.CPI * (1 + monthly)),
			SupplyProvisional: round2(cur.SupplyProvisional * (1 + monthly)),
			SupplyDefinitive:  round2(cur.SupplyDefinitive * (1 + monthly)),
		}
		out.Projected = append(out.Projected, cur)
	}
	return out, nil
}

// lastPoint picks the projection's last month when one exists, otherwise the
// latest observed month.
func lastPoint(table model.IndexerTable) (model.IndexerPoint, bool) {
	pick := func(pts []model.IndexerPoint) (model.IndexerPoint, bool) {
		if len(pts) == 0 {
			return model.IndexerPoint{}, false
		}
		last := pts[0]
		for _, pt := range pts[1:] {
			if pt.Month.After(last.Month) {
				last = pt
			}
		}
		return last, true
	}
	if pt, ok := pick(table.Projected); ok {
		return pt, true
	}
	return pick(table.Observed)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// IndexedPrice computes the price of an indexer-priced offer cell:
// basePrice scaled by the indexer value at the period's month over the value
// at the formula's base month. An unresolvable month or a zero denominator
// makes the price undefined for that period, reported via ok=false.
func IndexedPrice(basePrice float64, f model.IndexerFormula, period model.Period, table *model.IndexerTable) (float64, bool) {
	num, ok := table.Resolve(f.Indexer, f.Numerator, period.Date.YearMonth())
	if !ok {
		return 0, false
	}
	den, ok := table.Resolve(f.Indexer, f.Denominator, f.BaseDate.YearMonth())
	if !ok || den == 0 {
		return 0, false
	}
	return basePrice * (num / den), true
}
