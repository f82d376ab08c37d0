// Package data loads run inputs from local JSON files. The core itself is
// format-agnostic; these loaders are the boundary where files become the
// in-memory tables the engine consumes.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"offer-dispatch/internal/model"
)

// DemandFile is the JSON shape of the demand table: one row per day with 24
// hourly values.
type DemandFile struct {
	Rows []DemandRow `json:"rows"`
}

type DemandRow struct {
	Date  string     `json:"date"`
	Hours [24]float64 `json:"hours"`
}

// LoadDemandJSON reads the demand table and derives the planning grid from
// its days: every hour of every listed day.
func LoadDemandJSON(path string) (model.Demand, *model.TimeGrid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var file DemandFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, err
	}
	return file.Tables()
}

// Tables converts the wire rows into the demand map and its grid.
func (file DemandFile) Tables() (model.Demand, *model.TimeGrid, error) {
	demand := make(model.Demand, len(file.Rows)*24)
	periods := make([]model.Period, 0, len(file.Rows)*24)
	for _, row := range file.Rows {
		d, err := model.ParseDate(row.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("demand row %q: %w", row.Date, err)
		}
		for h := 1; h <= 24; h++ {
			p := model.Period{Date: d, Hour: h}
			demand[p] = row.Hours[h-1]
			periods = append(periods, p)
		}
	}

	grid, err := model.NewTimeGrid(periods)
	if err != nil {
		return nil, nil, err
	}
	return demand, grid, nil
}

// OffersFile is the JSON shape of the raw offer table.
type OffersFile struct {
	Offers []OfferEntry `json:"offers"`
}

type OfferEntry struct {
	ID      string        `json:"id"`
	Pricing string        `json:"pricing"` // DIRECT or INDEXED
	Indexer *IndexerEntry `json:"indexer,omitempty"`
	Days    []OfferDay    `json:"days"`
}

type IndexerEntry struct {
	Kind        string `json:"kind"` // CPI or DOMESTIC_SUPPLY
	Numerator   string `json:"numerator"`
	Denominator string `json:"denominator"`
	BaseDate    string `json:"base_date"`
}

// OfferDay carries a day's hourly quantities and prices. Prices use nulls
// for hours where no price is resolvable; quantities default to zero.
type OfferDay struct {
	Date       string       `json:"date"`
	Quantities [24]float64  `json:"quantities_kwh"`
	Prices     [24]*float64 `json:"prices"`
}

func LoadOffersJSON(path string) ([]model.RawOffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file OffersFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	return file.RawOffers()
}

// RawOffers converts the wire entries into raw offers.
func (file OffersFile) RawOffers() ([]model.RawOffer, error) {
	offers := make([]model.RawOffer, 0, len(file.Offers))
	for _, entry := range file.Offers {
		offer := model.RawOffer{
			ID:         entry.ID,
			Pricing:    model.PricingMode(entry.Pricing),
			Quantities: make(map[model.Period]float64),
			Prices:     make(map[model.Period]float64),
		}
		if entry.Indexer != nil {
			base, err := model.ParseDate(entry.Indexer.BaseDate)
			if err != nil {
				return nil, fmt.Errorf("offer %s indexer base date: %w", entry.ID, err)
			}
			offer.Formula = &model.IndexerFormula{
				Indexer:     model.IndexerKind(entry.Indexer.Kind),
				Numerator:   model.SeriesSelector(entry.Indexer.Numerator),
				Denominator: model.SeriesSelector(entry.Indexer.Denominator),
				BaseDate:    base,
			}
		}
		for _, day := range entry.Days {
			d, err := model.ParseDate(day.Date)
			if err != nil {
				return nil, fmt.Errorf("offer %s day %q: %w", entry.ID, day.Date, err)
			}
			for h := 1; h <= 24; h++ {
				p := model.Period{Date: d, Hour: h}
				if day.Quantities[h-1] != 0 {
					offer.Quantities[p] = day.Quantities[h-1]
				}
				if price := day.Prices[h-1]; price != nil {
					offer.Prices[p] = *price
				}
			}
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// IndexersFile is the JSON shape of the monthly indexer series.
type IndexersFile struct {
	Observed  []IndexerPointEntry `json:"observed"`
	Projected []IndexerPointEntry `json:"projected,omitempty"`
}

type IndexerPointEntry struct {
	Month             string  `json:"month"` // YYYY-MM
	CPI               float64 `json:"cpi"`
	SupplyProvisional float64 `json:"supply_provisional"`
	SupplyDefinitive  float64 `json:"supply_definitive"`
}

func LoadIndexersJSON(path string) (*model.IndexerTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file IndexersFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	return file.Table()
}

// Table converts the wire series into an indexer table.
func (file IndexersFile) Table() (*model.IndexerTable, error) {
	table := &model.IndexerTable{}
	for _, e := range file.Observed {
		pt, err := e.point()
		if err != nil {
			return nil, err
		}
		table.Observed = append(table.Observed, pt)
	}
	for _, e := range file.Projected {
		pt, err := e.point()
		if err != nil {
			return nil, err
		}
		table.Projected = append(table.Projected, pt)
	}
	return table, nil
}

func (e IndexerPointEntry) point() (model.IndexerPoint, error) {
	ym, err := ParseYearMonth(e.Month)
	if err != nil {
		return model.IndexerPoint{}, err
	}
	return model.IndexerPoint{
		Month:             ym,
		CPI:               e.CPI,
		SupplyProvisional: e.SupplyProvisional,
		SupplyDefinitive:  e.SupplyDefinitive,
	}, nil
}

// ReferencesFile is the JSON shape of the monthly reference price series.
type ReferencesFile struct {
	Market   []ReferenceEntry `json:"market"`
	Exchange []ReferenceEntry `json:"exchange"`
}

type ReferenceEntry struct {
	Month string  `json:"month"`
	Price float64 `json:"price"`
}

func LoadReferencesJSON(path string) (*model.ReferencePrices, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file ReferencesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	return file.Prices()
}

// Prices converts the wire series into reference price maps.
func (file ReferencesFile) Prices() (*model.ReferencePrices, error) {
	refs := &model.ReferencePrices{
		Market:   make(map[model.YearMonth]float64, len(file.Market)),
		Exchange: make(map[model.YearMonth]float64, len(file.Exchange)),
	}
	for _, e := range file.Market {
		ym, err := ParseYearMonth(e.Month)
		if err != nil {
			return nil, err
		}
		refs.Market[ym] = e.Price
	}
	for _, e := range file.Exchange {
		ym, err := ParseYearMonth(e.Month)
		if err != nil {
			return nil, err
		}
		refs.Exchange[ym] = e.Price
	}
	return refs, nil
}

// ParseYearMonth parses "YYYY-MM".
func ParseYearMonth(s string) (model.YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return model.YearMonth{}, fmt.Errorf("month %q: %w", s, err)
	}
	return model.YearMonth{Year: t.Year(), Month: t.Month()}, nil
}
