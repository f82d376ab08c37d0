// Package result derives per-offer, per-period and global statistics from a
// consolidated assignment.
package result

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"offer-dispatch/internal/allocation"
	"offer-dispatch/internal/model"
)

// OfferStat is the per-offer rollup. Money figures are decimals: totals are
// currency and must not depend on float summation order, which would differ
// between the sequential and parallel solve paths.
type OfferStat struct {
	OfferID       string
	TotalAssigned float64         // kWh
	AvgPrice      decimal.Decimal // $/kWh, quantity-weighted; 0 when nothing assigned
	TotalCost     decimal.Decimal // $
}

// PeriodStat is the per-period rollup.
type PeriodStat struct {
	Period   model.Period
	Demand   float64
	Assigned float64
	Deficit  float64
	// Coverage is Assigned/Demand, defined as 1 when demand is zero.
	Coverage float64
	Unsolved string // non-empty when the solver skipped this period
}

// GlobalStat is the whole-run rollup.
type GlobalStat struct {
	TotalAssigned float64
	TotalDeficit  float64
	TotalCost     decimal.Decimal
	AvgPrice      decimal.Decimal
}

// ResultSet is what the export layer consumes.
type ResultSet struct {
	RunID       string
	Assignment  allocation.Assignment
	Offers      []OfferStat
	Periods     []PeriodStat
	Global      GlobalStat
	// FullyRejected offers had zero eligible periods. PricedOut offers were
	// eligible somewhere but ended the run with nothing assigned.
	FullyRejected []string
	PricedOut     []string
}

// Aggregate consolidates the iterations and computes all statistics.
// allOffers is the full catalog ID list, so offers that ended the run with
// nothing assigned still get a stats row and show up in the priced-out
// audit. Numerically degenerate inputs (zero demand, zero offers) produce
// neutral values, never an error.
func Aggregate(iterations []allocation.Iteration, demand model.Demand, grid *model.TimeGrid, allOffers, fullyRejected []string) *ResultSet {
	assignment := allocation.Consolidate(iterations)

	rs := &ResultSet{
		RunID:         uuid.NewString(),
		Assignment:    assignment,
		FullyRejected: append([]string(nil), fullyRejected...),
	}
	sort.Strings(rs.FullyRejected)

	rejected := make(map[string]bool, len(fullyRejected))
	for _, id := range fullyRejected {
		rejected[id] = true
	}

	// Per offer. Every catalog offer gets a row, assigned or not.
	offerIDs := append([]string(nil), allOffers...)
	for id := range assignment.Cells {
		if !contains(offerIDs, id) {
			offerIDs = append(offerIDs, id)
		}
	}
	sort.Strings(offerIDs)

	totalCost := decimal.Zero
	var totalAssigned float64

	for _, id := range offerIDs {
		var qty float64
		cost := decimal.Zero
		for _, cell := range assignment.Cells[id] {
			qty += cell.Quantity
			cost = cost.Add(decimal.NewFromFloat(cell.Quantity).Mul(decimal.NewFromFloat(cell.Price)))
		}
		stat := OfferStat{OfferID: id, TotalAssigned: qty, TotalCost: cost, AvgPrice: weightedAvg(cost, qty)}
		rs.Offers = append(rs.Offers, stat)
		totalCost = totalCost.Add(cost)
		totalAssigned += qty

		if qty == 0 && !rejected[id] {
			rs.PricedOut = append(rs.PricedOut, id)
		}
	}
	sort.Strings(rs.PricedOut)

	// Per period.
	var totalDeficit float64
	for _, p := range grid.Periods() {
		d := demand[p]
		assigned := assignment.TotalAssigned(p)
		deficit := d - assigned
		if deficit < 0 {
			deficit = 0
		}
		coverage := 1.0
		if d > 0 {
			coverage = assigned / d
		}
		rs.Periods = append(rs.Periods, PeriodStat{
			Period:   p,
			Demand:   d,
			Assigned: assigned,
			Deficit:  deficit,
			Coverage: coverage,
			Unsolved: assignment.Unsolved[p],
		})
		totalDeficit += deficit
	}

	rs.Global = GlobalStat{
		TotalAssigned: totalAssigned,
		TotalDeficit:  totalDeficit,
		TotalCost:     totalCost,
		AvgPrice:      weightedAvg(totalCost, totalAssigned),
	}
	return rs
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// weightedAvg guards the zero-denominator case: no assignment means no
// meaningful average, reported as zero.
func weightedAvg(cost decimal.Decimal, qty float64) decimal.Decimal {
	if qty == 0 {
		return decimal.Zero
	}
	return cost.Div(decimal.NewFromFloat(qty))
}

// Deficits returns only the periods with unmet demand, the shortfall report
// consumed by the export layer.
func (rs *ResultSet) Deficits() []PeriodStat {
	var out []PeriodStat
	for _, ps := range rs.Periods {
		if ps.Deficit > 0 {
			out = append(out, ps)
		}
	}
	return out
}
