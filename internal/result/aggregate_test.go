package result

import (
	"testing"
	"time"

	"offer-dispatch/internal/allocation"
	"offer-dispatch/internal/model"
)

var (
	day1 = model.Date{Year: 2026, Month: time.January, Day: 1}
	p1   = model.Period{Date: day1, Hour: 1}
	p2   = model.Period{Date: day1, Hour: 2}
)

func grid(t *testing.T, periods ...model.Period) *model.TimeGrid {
	t.Helper()
	g, err := model.NewTimeGrid(periods)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func singleIteration(cells map[string]map[model.Period]allocation.Cell) []allocation.Iteration {
	a := allocation.NewAssignment()
	for id, m := range cells {
		a.Cells[id] = m
	}
	return []allocation.Iteration{{Index: 1, Assignment: a}}
}

func TestAggregate_OfferAndGlobalStats(t *testing.T) {
	iters := singleIteration(map[string]map[model.Period]allocation.Cell{
		"O1": {p1: {Quantity: 50, Price: 10}},
		"O2": {p1: {Quantity: 50, Price: 8}},
	})
	demand := model.Demand{p1: 100}

	rs := Aggregate(iters, demand, grid(t, p1), []string{"O1", "O2"}, nil)

	if rs.RunID == "" {
		t.Error("run ID must be set")
	}
	if got := rs.Global.TotalCost.StringFixed(2); got != "900.00" {
		t.Errorf("total cost = %s, want 900.00", got)
	}
	if got := rs.Global.AvgPrice.StringFixed(6); got != "9.000000" {
		t.Errorf("avg price = %s, want 9.000000", got)
	}
	if rs.Global.TotalAssigned != 100 || rs.Global.TotalDeficit != 0 {
		t.Errorf("global = %+v", rs.Global)
	}

	if len(rs.Offers) != 2 {
		t.Fatalf("got %d offer stats, want 2", len(rs.Offers))
	}
	o1 := rs.Offers[0]
	if o1.OfferID != "O1" || o1.TotalAssigned != 50 || o1.AvgPrice.StringFixed(2) != "10.00" {
		t.Errorf("O1 stat = %+v", o1)
	}
}

func TestAggregate_DeficitAndCoverage(t *testing.T) {
	iters := singleIteration(map[string]map[model.Period]allocation.Cell{
		"O1": {p1: {Quantity: 40, Price: 5}},
	})
	demand := model.Demand{p1: 100, p2: 0}

	rs := Aggregate(iters, demand, grid(t, p1, p2), []string{"O1"}, nil)

	if len(rs.Periods) != 2 {
		t.Fatalf("got %d period stats", len(rs.Periods))
	}
	ps := rs.Periods[0]
	if ps.Deficit != 60 || ps.Coverage != 0.4 {
		t.Errorf("p1 stat = %+v, want deficit 60 coverage 0.4", ps)
	}
	// Zero demand: zero assigned, coverage 1, deficit 0.
	zero := rs.Periods[1]
	if zero.Assigned != 0 || zero.Coverage != 1.0 || zero.Deficit != 0 {
		t.Errorf("zero-demand stat = %+v", zero)
	}

	deficits := rs.Deficits()
	if len(deficits) != 1 || deficits[0].Period != p1 {
		t.Errorf("deficits = %+v", deficits)
	}
	if rs.Global.TotalDeficit != 60 {
		t.Errorf("total deficit = %v", rs.Global.TotalDeficit)
	}
}

func TestAggregate_RejectionAudit(t *testing.T) {
	iters := singleIteration(map[string]map[model.Period]allocation.Cell{
		"WIN": {p1: {Quantity: 10, Price: 5}},
	})
	demand := model.Demand{p1: 10}

	// LOSE was eligible but ended up with nothing; DEAD had zero eligible
	// periods. They must land in different buckets.
	rs := Aggregate(iters, demand, grid(t, p1), []string{"WIN", "LOSE", "DEAD"}, []string{"DEAD"})

	if len(rs.FullyRejected) != 1 || rs.FullyRejected[0] != "DEAD" {
		t.Errorf("FullyRejected = %v", rs.FullyRejected)
	}
	if len(rs.PricedOut) != 1 || rs.PricedOut[0] != "LOSE" {
		t.Errorf("PricedOut = %v", rs.PricedOut)
	}

	// Unassigned offers still get a stats row with neutral values.
	var lose *OfferStat
	for i := range rs.Offers {
		if rs.Offers[i].OfferID == "LOSE" {
			lose = &rs.Offers[i]
		}
	}
	if lose == nil {
		t.Fatal("LOSE missing from offer stats")
	}
	if lose.TotalAssigned != 0 || !lose.AvgPrice.IsZero() || !lose.TotalCost.IsZero() {
		t.Errorf("LOSE stat = %+v, want zeros", lose)
	}
}

func TestAggregate_NoOffersNoDemand(t *testing.T) {
	demand := model.Demand{p1: 0}
	rs := Aggregate(nil, demand, grid(t, p1), nil, nil)

	if !rs.Global.TotalCost.IsZero() || !rs.Global.AvgPrice.IsZero() {
		t.Errorf("degenerate run must report neutral values: %+v", rs.Global)
	}
	if rs.Global.TotalAssigned != 0 || rs.Global.TotalDeficit != 0 {
		t.Errorf("global = %+v", rs.Global)
	}
}

func TestAggregate_ConsolidatesIterations(t *testing.T) {
	a1 := allocation.NewAssignment()
	a1.Cells["O1"] = map[model.Period]allocation.Cell{p1: {Quantity: 10, Price: 5}}
	a2 := allocation.NewAssignment()
	a2.Cells["O1"] = map[model.Period]allocation.Cell{p1: {Quantity: 25, Price: 5}}

	rs := Aggregate([]allocation.Iteration{
		{Index: 1, Assignment: a1},
		{Index: 2, Assignment: a2},
	}, model.Demand{p1: 30}, grid(t, p1), []string{"O1"}, nil)

	if got := rs.Offers[0].TotalAssigned; got != 25 {
		t.Errorf("consolidated total = %v, want 25 (highest iteration wins)", got)
	}
}
