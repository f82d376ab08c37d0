package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"offer-dispatch/internal/eligibility"
	"offer-dispatch/internal/model"
)

var (
	day1 = model.Date{Year: 2026, Month: time.January, Day: 1}
	p1   = model.Period{Date: day1, Hour: 1}
	p2   = model.Period{Date: day1, Hour: 2}
)

func testEngine(opts Options) *Engine {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
}

func directOffer(id string, cells map[model.Period][2]float64) model.RawOffer {
	raw := model.RawOffer{
		ID:         id,
		Pricing:    model.PricingDirect,
		Quantities: make(map[model.Period]float64),
		Prices:     make(map[model.Period]float64),
	}
	for p, qp := range cells {
		raw.Quantities[p] = qp[0]
		raw.Prices[p] = qp[1]
	}
	return raw
}

func TestRun_EndToEnd(t *testing.T) {
	grid, err := model.NewTimeGrid([]model.Period{p1})
	if err != nil {
		t.Fatal(err)
	}
	in := Inputs{
		Grid:   grid,
		Demand: model.Demand{p1: 100},
		Offers: []model.RawOffer{
			directOffer("O1", map[model.Period][2]float64{p1: {60, 10}}),
			directOffer("O2", map[model.Period][2]float64{p1: {50, 8}}),
		},
	}

	rs, failures, err := testEngine(Options{}).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("failures: %v", failures)
	}
	if got := rs.Assignment.Assigned("O2", p1); got != 50 {
		t.Errorf("O2 = %v, want 50", got)
	}
	if got := rs.Assignment.Assigned("O1", p1); got != 50 {
		t.Errorf("O1 = %v, want 50", got)
	}
	if got := rs.Global.TotalCost.StringFixed(2); got != "900.00" {
		t.Errorf("cost = %s, want 900.00", got)
	}
}

func TestRun_CeilingExcludesOffer(t *testing.T) {
	grid, err := model.NewTimeGrid([]model.Period{p1})
	if err != nil {
		t.Fatal(err)
	}
	max := 12.0
	in := Inputs{
		Grid:   grid,
		Demand: model.Demand{p1: 100},
		Offers: []model.RawOffer{
			directOffer("CHEAP", map[model.Period][2]float64{p1: {40, 9}}),
			directOffer("DEAR", map[model.Period][2]float64{p1: {100, 15}}),
		},
		Rule: eligibility.Rule{MaxPrice: &max},
	}

	rs, _, err := testEngine(Options{}).Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if got := rs.Assignment.Assigned("DEAR", p1); got != 0 {
		t.Errorf("DEAR assigned %v despite the ceiling", got)
	}
	if len(rs.FullyRejected) != 1 || rs.FullyRejected[0] != "DEAR" {
		t.Errorf("FullyRejected = %v", rs.FullyRejected)
	}
	if rs.Global.TotalDeficit != 60 {
		t.Errorf("deficit = %v, want 60", rs.Global.TotalDeficit)
	}
}

func TestRun_SecondPassCoversResidual(t *testing.T) {
	grid, err := model.NewTimeGrid([]model.Period{p1})
	if err != nil {
		t.Fatal(err)
	}
	max := 12.0
	in := Inputs{
		Grid:   grid,
		Demand: model.Demand{p1: 100},
		Offers: []model.RawOffer{
			directOffer("CHEAP", map[model.Period][2]float64{p1: {40, 9}}),
			directOffer("DEAR", map[model.Period][2]float64{p1: {100, 15}}),
		},
		Rule: eligibility.Rule{MaxPrice: &max},
	}

	rs, _, err := testEngine(Options{SecondPass: true}).Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	// Pass 1 fills 40 from CHEAP; pass 2 lifts the ceiling and fills the
	// residual 60 from DEAR.
	if got := rs.Assignment.Assigned("CHEAP", p1); got != 40 {
		t.Errorf("CHEAP = %v, want 40", got)
	}
	if got := rs.Assignment.Assigned("DEAR", p1); got != 60 {
		t.Errorf("DEAR = %v, want 60", got)
	}
	if rs.Global.TotalDeficit != 0 {
		t.Errorf("deficit = %v, want 0 after second pass", rs.Global.TotalDeficit)
	}
}

func TestRun_SecondPassSkippedWhenCovered(t *testing.T) {
	grid, err := model.NewTimeGrid([]model.Period{p1})
	if err != nil {
		t.Fatal(err)
	}
	in := Inputs{
		Grid:   grid,
		Demand: model.Demand{p1: 50},
		Offers: []model.RawOffer{
			directOffer("O1", map[model.Period][2]float64{p1: {60, 10}}),
		},
	}

	rs, _, err := testEngine(Options{SecondPass: true}).Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if got := rs.Assignment.Assigned("O1", p1); got != 50 {
		t.Errorf("O1 = %v, want 50", got)
	}
}

func TestRun_IndexedOfferPartialEligibility(t *testing.T) {
	// The indexer covers January but not February: the offer participates
	// in January and is out, with a skip record, for February.
	feb := model.Period{Date: model.Date{Year: 2026, Month: time.February, Day: 1}, Hour: 1}
	grid, err := model.NewTimeGrid([]model.Period{p1, feb})
	if err != nil {
		t.Fatal(err)
	}
	indexers := &model.IndexerTable{
		Observed: []model.IndexerPoint{
			{Month: model.YearMonth{Year: 2025, Month: time.December}, CPI: 100},
			{Month: model.YearMonth{Year: 2026, Month: time.January}, CPI: 100},
		},
	}
	offer := model.RawOffer{
		ID:      "IDX",
		Pricing: model.PricingIndexed,
		Formula: &model.IndexerFormula{
			Indexer:     model.IndexerCPI,
			Numerator:   model.SeriesProvisional,
			Denominator: model.SeriesProvisional,
			BaseDate:    model.Date{Year: 2025, Month: time.December, Day: 1},
		},
		Quantities: map[model.Period]float64{p1: 30, feb: 30},
		Prices:     map[model.Period]float64{p1: 5, feb: 5},
	}
	in := Inputs{
		Grid:     grid,
		Demand:   model.Demand{p1: 30, feb: 30},
		Offers:   []model.RawOffer{offer},
		Indexers: indexers,
	}

	rs, failures, err := testEngine(Options{}).Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 {
		t.Fatalf("got %d skip records, want 1", len(failures))
	}
	if got := rs.Assignment.Assigned("IDX", p1); got != 30 {
		t.Errorf("January assigned %v, want 30", got)
	}
	if got := rs.Assignment.Assigned("IDX", feb); got != 0 {
		t.Errorf("February assigned %v, want 0", got)
	}
}

func TestRun_StrictValidationAborts(t *testing.T) {
	grid, err := model.NewTimeGrid([]model.Period{p1})
	if err != nil {
		t.Fatal(err)
	}
	in := Inputs{
		Grid:   grid,
		Demand: model.Demand{p1: 10},
		Offers: []model.RawOffer{
			directOffer("BAD", map[model.Period][2]float64{p1: {-1, 5}}),
		},
	}

	if _, _, err := testEngine(Options{Strict: true}).Run(context.Background(), in); err == nil {
		t.Fatal("strict run should abort on validation error")
	}
}

func TestRun_NegativeDemandFails(t *testing.T) {
	grid, err := model.NewTimeGrid([]model.Period{p1})
	if err != nil {
		t.Fatal(err)
	}
	in := Inputs{Grid: grid, Demand: model.Demand{p1: -5}}
	if _, _, err := testEngine(Options{}).Run(context.Background(), in); err == nil {
		t.Fatal("negative demand must fail")
	}
}

func TestRun_ParallelismMatchesSequential(t *testing.T) {
	var periods []model.Period
	demand := model.Demand{}
	for h := 1; h <= 24; h++ {
		p := model.Period{Date: day1, Hour: h}
		periods = append(periods, p)
		demand[p] = 80
	}
	grid, err := model.NewTimeGrid(periods)
	if err != nil {
		t.Fatal(err)
	}
	cells := make(map[model.Period][2]float64, len(periods))
	for _, p := range periods {
		cells[p] = [2]float64{50, float64(p.Hour)}
	}
	in := Inputs{
		Grid:   grid,
		Demand: demand,
		Offers: []model.RawOffer{
			directOffer("A", cells),
			directOffer("B", cells),
		},
	}

	seq, _, err := testEngine(Options{}).Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	par, _, err := testEngine(Options{Parallelism: 8}).Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if !seq.Global.TotalCost.Equal(par.Global.TotalCost) {
		t.Errorf("cost differs: %s vs %s", seq.Global.TotalCost, par.Global.TotalCost)
	}
	if seq.Global.TotalAssigned != par.Global.TotalAssigned {
		t.Errorf("assigned differs: %v vs %v", seq.Global.TotalAssigned, par.Global.TotalAssigned)
	}
}
