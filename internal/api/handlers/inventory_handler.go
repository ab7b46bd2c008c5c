package handlers

import (
	"github.com/andresuchdata/dialfa-analytics/internal/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) GetABCAnalysis(c *gin.Context) {
	records, err := h.service.ABCAnalysis(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch abc analysis", err)
		return
	}
	respondData(c, records)
}

func (h *InventoryHandler) GetStockHealth(c *gin.Context) {
	records, err := h.service.StockHealth(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch stock health", err)
		return
	}
	respondData(c, records)
}

func (h *InventoryHandler) GetSlowMoving(c *gin.Context) {
	records, err := h.service.SlowMoving(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch slow moving inventory", err)
		return
	}
	respondData(c, records)
}

func (h *InventoryHandler) GetKPIs(c *gin.Context) {
	kpis, err := h.service.KPIs(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch inventory kpis", err)
		return
	}
	respondData(c, kpis)
}

func (h *InventoryHandler) GetStockAlerts(c *gin.Context) {
	records, err := h.service.StockAlerts(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch stock alerts", err)
		return
	}
	respondData(c, records)
}

func (h *InventoryHandler) GetCategoryAnalysis(c *gin.Context) {
	records, err := h.service.CategoryAnalysis(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch category analysis", err)
		return
	}
	respondData(c, records)
}
