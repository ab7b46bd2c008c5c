package handlers

import (
	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/service"
	"github.com/gin-gonic/gin"
)

type FinancialHandler struct {
	service *service.FinancialService
}

func NewFinancialHandler(service *service.FinancialService) *FinancialHandler {
	return &FinancialHandler{service: service}
}

func (h *FinancialHandler) GetCreditRisk(c *gin.Context) {
	records, err := h.service.CreditRisk(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch credit risk", err)
		return
	}
	respondData(c, records)
}

func (h *FinancialHandler) GetAging(c *gin.Context) {
	records, err := h.service.Aging(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch receivables aging", err)
		return
	}
	respondData(c, records)
}

// GetCashFlowHistory handles GET /financial/cash-flow-history?months=12.
func (h *FinancialHandler) GetCashFlowHistory(c *gin.Context) {
	months, err := queryInt(c, "months")
	if err != nil {
		respondError(c, "invalid months", err)
		return
	}

	records, err := h.service.CashFlowHistory(c.Request.Context(), months)
	if err != nil {
		respondError(c, "failed to fetch cash flow history", err)
		return
	}
	respondData(c, records)
}

// GetCashFlowForecast handles GET /financial/cash-flow-forecast?months=6&order=asc.
func (h *FinancialHandler) GetCashFlowForecast(c *gin.Context) {
	h.forecast(c, domain.PaymentsSource, "failed to fetch cash flow forecast")
}

func (h *FinancialHandler) GetRevenueForecast(c *gin.Context) {
	h.forecast(c, domain.RevenueSource, "failed to fetch revenue forecast")
}

func (h *FinancialHandler) GetSeasonalAnalysis(c *gin.Context) {
	source := domain.RevenueSource
	if name := c.Query("series"); name != "" {
		var err error
		if source, err = domain.ParseSeriesSource(name); err != nil {
			respondError(c, "invalid series", err)
			return
		}
	}

	records, err := h.service.SeasonalAnalysis(c.Request.Context(), source)
	if err != nil {
		respondError(c, "failed to fetch seasonal analysis", err)
		return
	}
	respondData(c, records)
}

func (h *FinancialHandler) forecast(c *gin.Context, source domain.SeriesSource, message string) {
	horizon, err := queryInt(c, "months")
	if err != nil {
		respondError(c, "invalid forecast horizon", err)
		return
	}
	order := analytics.ParseSortOrder(c.Query("order"))

	records, err := h.service.Forecast(c.Request.Context(), source, horizon, order)
	if err != nil {
		respondError(c, message, err)
		return
	}
	respondData(c, records)
}
