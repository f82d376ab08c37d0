package allocation

import (
	"context"
	"sort"
	"sync"

	"offer-dispatch/internal/model"
)

// greedySolver fills each period's demand from the cheapest eligible offer
// upward. For a single-commodity, per-period capacitated assignment with a
// linear objective this merit-order fill is cost-optimal, so no LP is
// involved.
type greedySolver struct {
	workers int
}

// NewGreedySolver returns the merit-order solver. workers > 1 fans the
// per-period solves out to that many goroutines; periods share no state, and
// results merge by period key, so the output is identical to the sequential
// run.
func NewGreedySolver(workers int) Solver {
	if workers < 1 {
		workers = 1
	}
	return greedySolver{workers: workers}
}

func (s greedySolver) Solve(ctx context.Context, candidates []Candidate, demand model.Demand, grid *model.TimeGrid) (Assignment, error) {
	if err := demand.Validate(grid); err != nil {
		return Assignment{}, err
	}

	byPeriod := make(map[model.Period][]Candidate)
	for _, c := range candidates {
		if !grid.Contains(c.Period) {
			continue
		}
		byPeriod[c.Period] = append(byPeriod[c.Period], c)
	}

	out := NewAssignment()

	if s.workers == 1 {
		for _, p := range grid.Periods() {
			if err := ctx.Err(); err != nil {
				return Assignment{}, err
			}
			solvePeriod(p, byPeriod[p], demand[p], &out)
		}
		return out, nil
	}

	// Parallel path: each worker fills a private assignment; merging is
	// order-independent because every period's cells land in exactly one
	// partial.
	periods := grid.Periods()
	partials := make([]Assignment, s.workers)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		partials[w] = NewAssignment()
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(periods); i += s.workers {
				if ctx.Err() != nil {
					return
				}
				p := periods[i]
				solvePeriod(p, byPeriod[p], demand[p], &partials[w])
			}
		}(w)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return Assignment{}, err
	}

	for _, part := range partials {
		for offerID, cells := range part.Cells {
			for p, c := range cells {
				out.set(offerID, p, c)
			}
		}
		for p, reason := range part.Unsolved {
			out.Unsolved[p] = reason
		}
	}
	return out, nil
}

// solvePeriod runs the merit-order fill for one period. Candidates sort
// ascending by price with offer ID as the tie-break, so reruns are
// bit-identical. Running out of offers leaves a deficit, which is a valid
// outcome, not an error.
func solvePeriod(p model.Period, candidates []Candidate, demand float64, out *Assignment) {
	for _, c := range candidates {
		if c.Quantity < 0 || c.Price < 0 {
			out.Unsolved[p] = "negative quantity or price in candidate set"
			return
		}
	}

	order := append([]Candidate(nil), candidates...)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Price != order[j].Price {
			return order[i].Price < order[j].Price
		}
		return order[i].OfferID < order[j].OfferID
	})

	remaining := demand
	for _, c := range order {
		if remaining <= 0 {
			break
		}
		if c.Quantity == 0 {
			continue
		}
		take := c.Quantity
		if take > remaining {
			take = remaining
		}
		prev := out.Cells[c.OfferID][p]
		out.set(c.OfferID, p, Cell{Quantity: prev.Quantity + take, Price: c.Price})
		remaining -= take
	}
}
