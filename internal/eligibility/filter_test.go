package eligibility

import (
	"testing"
	"time"

	"offer-dispatch/internal/catalog"
	"offer-dispatch/internal/model"
)

var (
	day1 = model.Date{Year: 2026, Month: time.January, Day: 1}
	p1   = model.Period{Date: day1, Hour: 1}
	p2   = model.Period{Date: day1, Hour: 2}
)

func makeCatalog(offers ...model.Offer) *catalog.Catalog {
	return &catalog.Catalog{Offers: offers}
}

func cell(qty, price float64) model.Cell {
	return model.Cell{Quantity: qty, Price: price, PriceResolved: true}
}

func TestEvaluate_MaxPriceCeiling(t *testing.T) {
	// An offer priced at 15 against a ceiling of 12 is excluded from the
	// period's candidate set and appears with a reason.
	cat := makeCatalog(model.Offer{
		ID:    "OF1",
		Cells: map[model.Period]model.Cell{p1: cell(10, 15), p2: cell(10, 11)},
	})
	max := 12.0

	res := Evaluate(cat, Rule{MaxPrice: &max})

	if res.Eligible("OF1", p1) {
		t.Error("price 15 above ceiling 12 must be rejected")
	}
	if got := res.Cells["OF1"][p1].Reason; got != ReasonPriceAboveCeiling {
		t.Errorf("reason = %q", got)
	}
	if !res.Eligible("OF1", p2) {
		t.Error("price 11 must pass")
	}
	if len(res.FullyRejected) != 0 {
		t.Errorf("partially eligible offer must not be fully rejected: %v", res.FullyRejected)
	}
}

func TestEvaluate_FullyRejected(t *testing.T) {
	cat := makeCatalog(
		model.Offer{ID: "HIGH", Cells: map[model.Period]model.Cell{p1: cell(10, 99), p2: cell(10, 80)}},
		model.Offer{ID: "OK", Cells: map[model.Period]model.Cell{p1: cell(10, 5)}},
	)
	max := 12.0

	res := Evaluate(cat, Rule{MaxPrice: &max})

	if len(res.FullyRejected) != 1 || res.FullyRejected[0] != "HIGH" {
		t.Errorf("FullyRejected = %v, want [HIGH]", res.FullyRejected)
	}
}

func TestEvaluate_MinQuantity(t *testing.T) {
	cat := makeCatalog(model.Offer{
		ID:    "OF1",
		Cells: map[model.Period]model.Cell{p1: cell(3, 5), p2: cell(12, 5)},
	})

	res := Evaluate(cat, Rule{MinQuantity: 5})

	if res.Eligible("OF1", p1) {
		t.Error("quantity below the floor must be rejected")
	}
	if got := res.Cells["OF1"][p1].Reason; got != ReasonBelowMinQuantity {
		t.Errorf("reason = %q", got)
	}
	if !res.Eligible("OF1", p2) {
		t.Error("quantity above the floor must pass")
	}
}

func TestEvaluate_MissingPrice(t *testing.T) {
	cat := makeCatalog(model.Offer{
		ID:    "OF1",
		Cells: map[model.Period]model.Cell{p1: {Quantity: 10}},
	})

	res := Evaluate(cat, Rule{})

	if res.Eligible("OF1", p1) {
		t.Error("unresolved price must never be eligible")
	}
	if got := res.Cells["OF1"][p1].Reason; got != ReasonMissingPrice {
		t.Errorf("reason = %q", got)
	}
}

func TestEvaluate_ReferenceCeiling(t *testing.T) {
	jan := day1.YearMonth()
	refs := &model.ReferencePrices{
		Market:   map[model.YearMonth]float64{jan: 10},
		Exchange: map[model.YearMonth]float64{jan: 11},
	}
	// ceiling = min(1.2*10, 11) = 11
	rule := Rule{Reference: &ReferenceRule{K: 1.2, Prices: refs}}

	cat := makeCatalog(model.Offer{
		ID:    "OF1",
		Cells: map[model.Period]model.Cell{p1: cell(10, 11), p2: cell(10, 11.5)},
	})

	res := Evaluate(cat, rule)

	if !res.Eligible("OF1", p1) {
		t.Error("price at the ceiling must pass")
	}
	if res.Eligible("OF1", p2) {
		t.Error("price above min(k*market, exchange) must be rejected")
	}
}

func TestEvaluate_ReferenceMissingMonth(t *testing.T) {
	feb := model.Period{Date: model.Date{Year: 2026, Month: time.February, Day: 1}, Hour: 1}
	refs := &model.ReferencePrices{
		Market:   map[model.YearMonth]float64{day1.YearMonth(): 10},
		Exchange: map[model.YearMonth]float64{day1.YearMonth(): 11},
	}
	rule := Rule{Reference: &ReferenceRule{K: 1.0, Prices: refs}}

	cat := makeCatalog(model.Offer{
		ID:    "OF1",
		Cells: map[model.Period]model.Cell{p1: cell(10, 5), feb: cell(10, 5)},
	})

	res := Evaluate(cat, rule)

	if !res.Eligible("OF1", p1) {
		t.Error("covered month must pass")
	}
	if res.Eligible("OF1", feb) {
		t.Error("month without reference data must be rejected")
	}
	if got := res.Cells["OF1"][feb].Reason; got != ReasonMissingReference {
		t.Errorf("reason = %q", got)
	}
}
