package result

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"offer-dispatch/internal/allocation"
	"offer-dispatch/internal/model"
)

// WriteAssignmentCSV writes the (offer, period) assignment table.
func WriteAssignmentCSV(path string, rs *ResultSet, grid *model.TimeGrid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"offer_id", "date", "hour", "assigned_kwh", "price"}); err != nil {
		return err
	}

	offerIDs := make([]string, 0, len(rs.Assignment.Cells))
	for id := range rs.Assignment.Cells {
		offerIDs = append(offerIDs, id)
	}
	sort.Strings(offerIDs)

	for _, id := range offerIDs {
		cells := rs.Assignment.Cells[id]
		for _, p := range grid.Periods() {
			cell, ok := cells[p]
			if !ok || cell.Quantity == 0 {
				continue
			}
			row := []string{
				id,
				p.Date.String(),
				strconv.Itoa(p.Hour),
				fmtFloat(cell.Quantity),
				fmtFloat(cell.Price),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

// WriteOfferStatsCSV writes the per-offer statistics plus a TOTAL row.
func WriteOfferStatsCSV(path string, rs *ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"offer_id", "total_assigned_kwh", "avg_price", "total_cost"}); err != nil {
		return err
	}
	for _, s := range rs.Offers {
		row := []string{
			s.OfferID,
			fmtFloat(s.TotalAssigned),
			s.AvgPrice.StringFixed(6),
			s.TotalCost.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	total := []string{
		"TOTAL",
		fmtFloat(rs.Global.TotalAssigned),
		rs.Global.AvgPrice.StringFixed(6),
		rs.Global.TotalCost.StringFixed(2),
	}
	if err := w.Write(total); err != nil {
		return err
	}
	return w.Error()
}

// WritePeriodStatsCSV writes demand, assignment, deficit and coverage per
// period.
func WritePeriodStatsCSV(path string, rs *ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "hour", "demand_kwh", "assigned_kwh", "deficit_kwh", "coverage", "unsolved"}); err != nil {
		return err
	}
	for _, s := range rs.Periods {
		row := []string{
			s.Period.Date.String(),
			strconv.Itoa(s.Period.Hour),
			fmtFloat(s.Demand),
			fmtFloat(s.Assigned),
			fmtFloat(s.Deficit),
			fmtFloat(s.Coverage),
			s.Unsolved,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteDeficitCSV writes only the periods with unmet demand.
func WriteDeficitCSV(path string, rs *ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "hour", "demand_kwh", "deficit_kwh", "covered_pct"}); err != nil {
		return err
	}
	for _, s := range rs.Deficits() {
		row := []string{
			s.Period.Date.String(),
			strconv.Itoa(s.Period.Hour),
			fmtFloat(s.Demand),
			fmtFloat(s.Deficit),
			fmtFloat(s.Coverage * 100),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// ReadAssignmentCSV reads back an assignment table written by
// WriteAssignmentCSV, for offline re-aggregation.
func ReadAssignmentCSV(path string) (allocation.Assignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return allocation.Assignment{}, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return allocation.Assignment{}, err
	}

	out := allocation.NewAssignment()
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 5 {
			return allocation.Assignment{}, fmt.Errorf("row %d: expected 5 columns, got %d", i+1, len(row))
		}
		date, err := model.ParseDate(row[1])
		if err != nil {
			return allocation.Assignment{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		hour, err := strconv.Atoi(row[2])
		if err != nil {
			return allocation.Assignment{}, fmt.Errorf("row %d hour: %w", i+1, err)
		}
		qty, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return allocation.Assignment{}, fmt.Errorf("row %d quantity: %w", i+1, err)
		}
		price, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return allocation.Assignment{}, fmt.Errorf("row %d price: %w", i+1, err)
		}
		p := model.Period{Date: date, Hour: hour}
		if out.Cells[row[0]] == nil {
			out.Cells[row[0]] = make(map[model.Period]allocation.Cell)
		}
		out.Cells[row[0]][p] = allocation.Cell{Quantity: qty, Price: price}
	}
	return out, nil
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
