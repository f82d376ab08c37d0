package model

import (
	"fmt"
	"sort"
	"time"
)

// Date is a calendar day without time-of-day or location. Offers and demand
// are keyed by day, so a plain comparable struct avoids the time.Time
// equality pitfalls when used as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// YearMonth identifies the month a date falls in. Indexer and reference
// price series are monthly, so lookups key on this.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

func (ym YearMonth) After(o YearMonth) bool {
	return ym.Year > o.Year || (ym.Year == o.Year && ym.Month > o.Month)
}

func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year, Month: d.Month}
}

// Period is one (date, hour) slot of the planning horizon. Hours run 1..24,
// matching the hourly columns of the upstream demand and offer tables.
type Period struct {
	Date Date
	Hour int
}

func (p Period) String() string {
	return fmt.Sprintf("%s H%d", p.Date, p.Hour)
}

// Less orders periods by (date, hour).
func (p Period) Less(o Period) bool {
	if p.Date != o.Date {
		return p.Date.Before(o.Date)
	}
	return p.Hour < o.Hour
}

// TimeGrid is the canonical ordered set of periods for a run. Every demand
// value and every offer cell is keyed by one of its periods.
type TimeGrid struct {
	periods []Period
	index   map[Period]int
}

// NewTimeGrid builds a grid from the given periods, sorting them and
// rejecting duplicates or out-of-range hours.
func NewTimeGrid(periods []Period) (*TimeGrid, error) {
	g := &TimeGrid{
		periods: make([]Period, len(periods)),
		index:   make(map[Period]int, len(periods)),
	}
	copy(g.periods, periods)
	sort.Slice(g.periods, func(i, j int) bool { return g.periods[i].Less(g.periods[j]) })
	for i, p := range g.periods {
		if p.Hour < 1 || p.Hour > 24 {
			return nil, fmt.Errorf("period %s: hour must be in 1..24", p)
		}
		if _, dup := g.index[p]; dup {
			return nil, fmt.Errorf("duplicate period %s", p)
		}
		g.index[p] = i
	}
	return g, nil
}

// DailyGrid is a convenience constructor covering every hour of each day
// from first to last inclusive.
func DailyGrid(first, last Date) (*TimeGrid, error) {
	if last.Before(first) {
		return nil, fmt.Errorf("grid end %s before start %s", last, first)
	}
	var periods []Period
	for d := first; !last.Before(d); d = nextDay(d) {
		for h := 1; h <= 24; h++ {
			periods = append(periods, Period{Date: d, Hour: h})
		}
	}
	return NewTimeGrid(periods)
}

func nextDay(d Date) Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Periods returns the ordered periods. Callers must not mutate the slice.
func (g *TimeGrid) Periods() []Period { return g.periods }

func (g *TimeGrid) Contains(p Period) bool {
	_, ok := g.index[p]
	return ok
}

func (g *TimeGrid) Len() int { return len(g.periods) }

// LastMonth returns the year-month of the final period, which bounds how
// far indexer projections must reach.
func (g *TimeGrid) LastMonth() YearMonth {
	if len(g.periods) == 0 {
		return YearMonth{}
	}
	return g.periods[len(g.periods)-1].Date.YearMonth()
}
