package models

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AllocateResponse is the result set in wire form.
type AllocateResponse struct {
	RunID      string          `json:"run_id"`
	Global     GlobalStats     `json:"global"`
	Offers     []OfferStats    `json:"offers"`
	Periods    []PeriodStats   `json:"periods"`
	Assignment []AssignmentRow `json:"assignment"`
	Deficits   []PeriodStats   `json:"deficits,omitempty"`
	Rejections Rejections      `json:"rejections"`
	Skipped    []SkippedRecord `json:"skipped_records,omitempty"`
}

type GlobalStats struct {
	TotalAssignedKWh float64 `json:"total_assigned_kwh"`
	TotalDeficitKWh  float64 `json:"total_deficit_kwh"`
	TotalCost        string  `json:"total_cost"`
	AvgPrice         string  `json:"avg_price"`
}

type OfferStats struct {
	OfferID          string  `json:"offer_id"`
	TotalAssignedKWh float64 `json:"total_assigned_kwh"`
	AvgPrice         string  `json:"avg_price"`
	TotalCost        string  `json:"total_cost"`
}

type PeriodStats struct {
	Date        string  `json:"date"`
	Hour        int     `json:"hour"`
	DemandKWh   float64 `json:"demand_kwh"`
	AssignedKWh float64 `json:"assigned_kwh"`
	DeficitKWh  float64 `json:"deficit_kwh"`
	Coverage    float64 `json:"coverage"`
	Unsolved    string  `json:"unsolved,omitempty"`
}

type AssignmentRow struct {
	OfferID     string  `json:"offer_id"`
	Date        string  `json:"date"`
	Hour        int     `json:"hour"`
	AssignedKWh float64 `json:"assigned_kwh"`
	Price       float64 `json:"price"`
}

type Rejections struct {
	FullyRejected []string `json:"fully_rejected"`
	PricedOut     []string `json:"priced_out"`
}

type SkippedRecord struct {
	OfferID string `json:"offer_id"`
	Date    string `json:"date,omitempty"`
	Hour    int    `json:"hour,omitempty"`
	Reason  string `json:"reason"`
}
