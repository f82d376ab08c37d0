// Package engine runs the evaluation pipeline: catalog build, eligibility,
// allocation, aggregation.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"offer-dispatch/internal/allocation"
	"offer-dispatch/internal/catalog"
	"offer-dispatch/internal/eligibility"
	"offer-dispatch/internal/model"
	"offer-dispatch/internal/result"
)

// Inputs is everything one run consumes, handed over by the I/O layer as
// in-memory structured data.
type Inputs struct {
	Grid     *model.TimeGrid
	Demand   model.Demand
	Offers   []model.RawOffer
	Indexers *model.IndexerTable
	Rule     eligibility.Rule
}

// Options control run behavior; all default to the conservative choice.
type Options struct {
	// Strict aborts the run on the first validation error instead of
	// skipping the affected record.
	Strict bool
	// SecondPass re-solves residual demand with the price ceiling lifted,
	// admitting offers that were priced out of the first pass.
	SecondPass bool
	// Parallelism fans per-period solves out to this many workers. Zero or
	// one keeps the sequential reference path.
	Parallelism int
}

type Engine struct {
	solver allocation.Solver
	log    *slog.Logger
	opts   Options
}

func New(log *slog.Logger, opts Options) *Engine {
	workers := opts.Parallelism
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		solver: allocation.NewGreedySolver(workers),
		log:    log,
		opts:   opts,
	}
}

// WithSolver swaps the allocation strategy, keeping everything else.
func (e *Engine) WithSolver(s allocation.Solver) *Engine {
	e.solver = s
	return e
}

// Run executes the full pipeline. Validation failures are returned alongside
// the result unless strict mode is on; a deficit is a reported outcome, not
// an error.
func (e *Engine) Run(ctx context.Context, in Inputs) (*result.ResultSet, []*model.ValidationError, error) {
	if in.Grid == nil || in.Grid.Len() == 0 {
		return nil, nil, fmt.Errorf("empty planning grid")
	}
	if err := in.Demand.Validate(in.Grid); err != nil {
		return nil, nil, err
	}

	cat, failures, err := catalog.Build(in.Offers, in.Indexers, in.Grid, e.opts.Strict)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog build: %w", err)
	}
	e.log.Info("catalog built", "offers", len(cat.Offers), "skipped_records", len(failures))

	elig := eligibility.Evaluate(cat, in.Rule)
	e.log.Info("eligibility evaluated", "fully_rejected", len(elig.FullyRejected))

	pass1, err := e.solver.Solve(ctx, eligibleCandidates(cat, elig), in.Demand, in.Grid)
	if err != nil {
		return nil, failures, fmt.Errorf("solve pass 1: %w", err)
	}
	iterations := []allocation.Iteration{{Index: 1, Assignment: pass1}}

	if e.opts.SecondPass {
		pass2, solved, err := e.secondPass(ctx, cat, in, pass1)
		if err != nil {
			return nil, failures, fmt.Errorf("solve pass 2: %w", err)
		}
		if solved {
			iterations = append(iterations, allocation.Iteration{Index: 2, Assignment: pass2})
		}
	}

	ids := make([]string, 0, len(cat.Offers))
	for i := range cat.Offers {
		ids = append(ids, cat.Offers[i].ID)
	}

	rs := result.Aggregate(iterations, in.Demand, in.Grid, ids, elig.FullyRejected)
	e.log.Info("run aggregated",
		"run_id", rs.RunID,
		"total_assigned_kwh", rs.Global.TotalAssigned,
		"total_deficit_kwh", rs.Global.TotalDeficit,
		"total_cost", rs.Global.TotalCost.StringFixed(2),
	)
	return rs, failures, nil
}

// secondPass re-solves the residual demand with the ceiling lifted. Cells it
// assigns are recorded as first-pass value plus the extra energy, so the
// highest-iteration-wins consolidation rule yields per-cell totals.
func (e *Engine) secondPass(ctx context.Context, cat *catalog.Catalog, in Inputs, pass1 allocation.Assignment) (allocation.Assignment, bool, error) {
	residual := make(model.Demand, in.Grid.Len())
	anyResidual := false
	for _, p := range in.Grid.Periods() {
		r := in.Demand[p] - pass1.TotalAssigned(p)
		if r < 0 {
			r = 0
		}
		if r > 0 {
			anyResidual = true
		}
		residual[p] = r
	}
	if !anyResidual {
		return allocation.Assignment{}, false, nil
	}

	relaxed := eligibility.Rule{
		MinQuantity: in.Rule.MinQuantity,
		RequireBoth: in.Rule.RequireBoth,
	}
	elig := eligibility.Evaluate(cat, relaxed)

	var candidates []allocation.Candidate
	for _, c := range eligibleCandidates(cat, elig) {
		remaining := c.Quantity - pass1.Assigned(c.OfferID, c.Period)
		if remaining <= 0 {
			continue
		}
		c.Quantity = remaining
		candidates = append(candidates, c)
	}

	extra, err := e.solver.Solve(ctx, candidates, residual, in.Grid)
	if err != nil {
		return allocation.Assignment{}, false, err
	}

	merged := allocation.NewAssignment()
	for offerID, cells := range extra.Cells {
		for p, c := range cells {
			prev := pass1.Assigned(offerID, p)
			merged.Cells[offerID] = ensure(merged.Cells[offerID])
			merged.Cells[offerID][p] = allocation.Cell{Quantity: prev + c.Quantity, Price: c.Price}
		}
	}
	for p, reason := range extra.Unsolved {
		merged.Unsolved[p] = reason
	}
	e.log.Info("second pass solved", "offers_touched", len(merged.Cells))
	return merged, true, nil
}

func ensure(m map[model.Period]allocation.Cell) map[model.Period]allocation.Cell {
	if m == nil {
		return make(map[model.Period]allocation.Cell)
	}
	return m
}

// eligibleCandidates flattens the catalog into the solver's candidate set,
// keeping only cells that passed eligibility with positive capacity.
func eligibleCandidates(cat *catalog.Catalog, elig *eligibility.Result) []allocation.Candidate {
	var out []allocation.Candidate
	for i := range cat.Offers {
		offer := &cat.Offers[i]
		for p, cell := range offer.Cells {
			if cell.Quantity <= 0 || !elig.Eligible(offer.ID, p) {
				continue
			}
			out = append(out, allocation.Candidate{
				OfferID:  offer.ID,
				Period:   p,
				Quantity: cell.Quantity,
				Price:    cell.Price,
			})
		}
	}
	return out
}
