// Package allocation assigns eligible offer capacity to demand at minimum
// cost, one period at a time.
package allocation

import (
	"context"

	"offer-dispatch/internal/model"
)

// Candidate is one allocatable (offer, period) cell: eligible, priced, with
// positive capacity.
type Candidate struct {
	OfferID  string
	Period   model.Period
	Quantity float64 // kWh available
	Price    float64 // $/kWh
}

// Cell is the assigned share of one candidate.
type Cell struct {
	Quantity float64 // kWh assigned
	Price    float64 // $/kWh, carried for aggregation
}

// Assignment is the solver output: assigned energy per offer per period,
// plus the periods that could not be solved at all (structurally invalid
// input isolated per period, never aborting the rest of the horizon).
type Assignment struct {
	Cells    map[string]map[model.Period]Cell
	Unsolved map[model.Period]string
}

func NewAssignment() Assignment {
	return Assignment{
		Cells:    make(map[string]map[model.Period]Cell),
		Unsolved: make(map[model.Period]string),
	}
}

func (a *Assignment) set(offerID string, p model.Period, c Cell) {
	m := a.Cells[offerID]
	if m == nil {
		m = make(map[model.Period]Cell)
		a.Cells[offerID] = m
	}
	m[p] = c
}

// Assigned returns the energy assigned to an offer in a period.
func (a *Assignment) Assigned(offerID string, p model.Period) float64 {
	return a.Cells[offerID][p].Quantity
}

// TotalAssigned sums assignments across offers for a period.
func (a *Assignment) TotalAssigned(p model.Period) float64 {
	var sum float64
	for _, periods := range a.Cells {
		sum += periods[p].Quantity
	}
	return sum
}

// Solver is the seam between the engine and the allocation algorithm. The
// greedy merit-order solver is the reference implementation; an LP-backed
// solver satisfying the same contract can replace it without touching
// callers.
type Solver interface {
	Solve(ctx context.Context, candidates []Candidate, demand model.Demand, grid *model.TimeGrid) (Assignment, error)
}
