// Package catalog turns raw offer submissions into a validated,
// price-resolved offer set.
package catalog

import (
	"fmt"
	"sort"

	"offer-dispatch/internal/indexer"
	"offer-dispatch/internal/model"
)

// Catalog is the validated offer set for one run. Offers are kept in ID
// order so downstream passes are deterministic.
type Catalog struct {
	Offers []model.Offer
}

// Offer returns the offer with the given ID, or nil.
func (c *Catalog) Offer(id string) *model.Offer {
	for i := range c.Offers {
		if c.Offers[i].ID == id {
			return &c.Offers[i]
		}
	}
	return nil
}

// Build validates raw offers against the grid and resolves a price for every
// declared period. Invalid cells are skipped and reported; a cell with a
// quantity but no resolvable price keeps its quantity with PriceResolved
// false, so it still shows up in rejection audits without ever being
// allocatable. When strict is set the first validation problem aborts the
// build.
func Build(raws []model.RawOffer, indexers *model.IndexerTable, grid *model.TimeGrid, strict bool) (*Catalog, []*model.ValidationError, error) {
	var failures []*model.ValidationError
	fail := func(e *model.ValidationError) error {
		if strict {
			return e
		}
		failures = append(failures, e)
		return nil
	}

	cat := &Catalog{Offers: make([]model.Offer, 0, len(raws))}
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		if raw.ID == "" {
			if err := fail(&model.ValidationError{Msg: "offer with empty ID"}); err != nil {
				return nil, nil, err
			}
			continue
		}
		if seen[raw.ID] {
			if err := fail(&model.ValidationError{OfferID: raw.ID, Msg: "duplicate offer ID"}); err != nil {
				return nil, nil, err
			}
			continue
		}
		seen[raw.ID] = true

		if raw.Pricing == model.PricingIndexed && raw.Formula == nil {
			if err := fail(&model.ValidationError{OfferID: raw.ID, Msg: "indexed offer without indexer formula"}); err != nil {
				return nil, nil, err
			}
			continue
		}

		offer := model.Offer{
			ID:      raw.ID,
			Pricing: raw.Pricing,
			Cells:   make(map[model.Period]model.Cell, len(raw.Quantities)),
		}

		for p, qty := range raw.Quantities {
			if !grid.Contains(p) {
				if err := fail(&model.ValidationError{OfferID: raw.ID, Period: p, Msg: "period outside the planning grid"}); err != nil {
					return nil, nil, err
				}
				continue
			}
			if qty < 0 {
				if err := fail(&model.ValidationError{OfferID: raw.ID, Period: p, Msg: "negative quantity"}); err != nil {
					return nil, nil, err
				}
				continue
			}
			if qty == 0 {
				continue
			}

			cell := model.Cell{Quantity: qty}
			base, hasPrice := raw.Prices[p]
			switch {
			case !hasPrice:
				if err := fail(&model.ValidationError{OfferID: raw.ID, Period: p, Msg: "quantity declared without a price"}); err != nil {
					return nil, nil, err
				}
			case base < 0:
				if err := fail(&model.ValidationError{OfferID: raw.ID, Period: p, Msg: "negative price"}); err != nil {
					return nil, nil, err
				}
			case raw.Pricing == model.PricingIndexed:
				price, ok := indexer.IndexedPrice(base, *raw.Formula, p, indexers)
				if !ok {
					// The indexer does not cover this month. The offer stays
					// valid elsewhere; this period just cannot price.
					if err := fail(&model.ValidationError{OfferID: raw.ID, Period: p, Msg: "indexer value unresolvable for period"}); err != nil {
						return nil, nil, err
					}
				} else {
					cell.Price = price
					cell.PriceResolved = true
				}
			default:
				cell.Price = base
				cell.PriceResolved = true
			}
			offer.Cells[p] = cell
		}

		cat.Offers = append(cat.Offers, offer)
	}

	sort.Slice(cat.Offers, func(i, j int) bool { return cat.Offers[i].ID < cat.Offers[j].ID })
	return cat, failures, nil
}

// TotalCapacity sums the priced capacity offered in a period, for reporting.
func (c *Catalog) TotalCapacity(p model.Period) float64 {
	var sum float64
	for i := range c.Offers {
		cell := c.Offers[i].Cells[p]
		if cell.PriceResolved {
			sum += cell.Quantity
		}
	}
	return sum
}

// String summarizes the catalog for logs.
func (c *Catalog) String() string {
	cells := 0
	for i := range c.Offers {
		cells += len(c.Offers[i].Cells)
	}
	return fmt.Sprintf("catalog{offers: %d, cells: %d}", len(c.Offers), cells)
}
