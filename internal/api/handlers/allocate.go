package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"offer-dispatch/internal/api/models"
	"offer-dispatch/internal/config"
	"offer-dispatch/internal/data"
	"offer-dispatch/internal/engine"
	"offer-dispatch/internal/indexer"
	"offer-dispatch/internal/model"
	"offer-dispatch/internal/result"
)

// AllocateHandler runs the evaluation pipeline for inline payloads.
type AllocateHandler struct {
	base config.Config
	log  *slog.Logger
}

func NewAllocateHandler(base config.Config, log *slog.Logger) *AllocateHandler {
	return &AllocateHandler{base: base, log: log}
}

// Allocate handles POST /api/v1/allocate.
func (h *AllocateHandler) Allocate(c *gin.Context) {
	var req models.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	cfg := config.Merge(h.base, overrideConfig(req.Options))
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
		return
	}

	demand, grid, err := data.DemandFile{Rows: req.Demand}.Tables()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_DEMAND", Message: err.Error()},
		})
		return
	}

	offers, err := data.OffersFile{Offers: req.Offers}.RawOffers()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_OFFERS", Message: err.Error()},
		})
		return
	}

	var indexers *model.IndexerTable
	if req.Indexers != nil {
		indexers, err = req.Indexers.Table()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_INDEXERS", Message: err.Error()},
			})
			return
		}
		if cfg.Projection.AnnualGrowthPct > 0 {
			projected, err := indexer.Project(*indexers, cfg.Projection.AnnualGrowthPct, grid.LastMonth())
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Error: models.ErrorDetail{Code: "PROJECTION_ERROR", Message: err.Error()},
				})
				return
			}
			indexers = &projected
		}
	}

	var refs *model.ReferencePrices
	if req.References != nil {
		refs, err = req.References.Prices()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_REFERENCES", Message: err.Error()},
			})
			return
		}
	}

	rule, err := cfg.Rule(refs)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
		return
	}

	eng := engine.New(h.log, cfg.Options())
	rs, failures, err := eng.Run(c.Request.Context(), engine.Inputs{
		Grid:     grid,
		Demand:   demand,
		Offers:   offers,
		Indexers: indexers,
		Rule:     rule,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "ALLOCATION_ERROR"
		var verr *model.ValidationError
		var ierr *model.InfeasibleInputError
		if errors.As(err, &verr) || errors.As(err, &ierr) {
			status = http.StatusUnprocessableEntity
			code = "INVALID_INPUT"
		}
		c.JSON(status, models.ErrorResponse{
			Error: models.ErrorDetail{Code: code, Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, buildResponse(rs, grid, failures))
}

// Project handles POST /api/v1/indexers/project.
func (h *AllocateHandler) Project(c *gin.Context) {
	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	table, err := req.Indexers.Table()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_INDEXERS", Message: err.Error()},
		})
		return
	}
	until, err := data.ParseYearMonth(req.UntilMonth)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}
	growth := req.AnnualGrowthPct
	if growth == 0 {
		growth = h.base.Projection.AnnualGrowthPct
	}

	projected, err := indexer.Project(*table, growth, until)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "PROJECTION_ERROR", Message: err.Error()},
		})
		return
	}

	out := data.IndexersFile{}
	for _, pt := range projected.Observed {
		out.Observed = append(out.Observed, pointEntry(pt))
	}
	for _, pt := range projected.Projected {
		out.Projected = append(out.Projected, pointEntry(pt))
	}
	c.JSON(http.StatusOK, out)
}

func periodStats(s result.PeriodStat) models.PeriodStats {
	return models.PeriodStats{
		Date:        s.Period.Date.String(),
		Hour:        s.Period.Hour,
		DemandKWh:   s.Demand,
		AssignedKWh: s.Assigned,
		DeficitKWh:  s.Deficit,
		Coverage:    s.Coverage,
		Unsolved:    s.Unsolved,
	}
}

func pointEntry(pt model.IndexerPoint) data.IndexerPointEntry {
	return data.IndexerPointEntry{
		Month:             pt.Month.String(),
		CPI:               pt.CPI,
		SupplyProvisional: pt.SupplyProvisional,
		SupplyDefinitive:  pt.SupplyDefinitive,
	}
}

func overrideConfig(o models.RequestOptions) config.Config {
	return config.Config{
		Acceptance: config.AcceptanceConfig{
			MaxPrice:    o.MaxPrice,
			MinQuantity: o.MinQuantity,
			RequireBoth: o.RequireBoth,
			KFactor:     o.KFactor,
		},
		Run: config.RunConfig{
			StrictValidation: o.StrictValidation,
			SecondPass:       o.SecondPass,
			Parallelism:      o.Parallelism,
		},
		Projection: config.ProjectionConfig{AnnualGrowthPct: o.AnnualGrowthPct},
	}
}

func buildResponse(rs *result.ResultSet, grid *model.TimeGrid, failures []*model.ValidationError) models.AllocateResponse {
	resp := models.AllocateResponse{
		RunID: rs.RunID,
		Global: models.GlobalStats{
			TotalAssignedKWh: rs.Global.TotalAssigned,
			TotalDeficitKWh:  rs.Global.TotalDeficit,
			TotalCost:        rs.Global.TotalCost.StringFixed(2),
			AvgPrice:         rs.Global.AvgPrice.StringFixed(6),
		},
		Rejections: models.Rejections{
			FullyRejected: rs.FullyRejected,
			PricedOut:     rs.PricedOut,
		},
	}

	for _, s := range rs.Offers {
		resp.Offers = append(resp.Offers, models.OfferStats{
			OfferID:          s.OfferID,
			TotalAssignedKWh: s.TotalAssigned,
			AvgPrice:         s.AvgPrice.StringFixed(6),
			TotalCost:        s.TotalCost.StringFixed(2),
		})
	}
	for _, s := range rs.Periods {
		resp.Periods = append(resp.Periods, periodStats(s))
	}
	for _, s := range rs.Deficits() {
		resp.Deficits = append(resp.Deficits, periodStats(s))
	}
	for _, p := range grid.Periods() {
		for _, s := range rs.Offers {
			q := rs.Assignment.Assigned(s.OfferID, p)
			if q == 0 {
				continue
			}
			resp.Assignment = append(resp.Assignment, models.AssignmentRow{
				OfferID:     s.OfferID,
				Date:        p.Date.String(),
				Hour:        p.Hour,
				AssignedKWh: q,
				Price:       rs.Assignment.Cells[s.OfferID][p].Price,
			})
		}
	}
	for _, f := range failures {
		rec := models.SkippedRecord{OfferID: f.OfferID, Reason: f.Msg}
		if f.Period != (model.Period{}) {
			rec.Date = f.Period.Date.String()
			rec.Hour = f.Period.Hour
		}
		resp.Skipped = append(resp.Skipped, rec)
	}
	return resp
}
