package handlers

import (
	"github.com/andresuchdata/dialfa-analytics/internal/service"
	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	service *service.PurchaseService
}

func NewPurchaseHandler(service *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// GetReorderAnalysis handles GET /purchase/reorder-analysis?window=90.
func (h *PurchaseHandler) GetReorderAnalysis(c *gin.Context) {
	window, err := queryInt(c, "window")
	if err != nil {
		respondError(c, "invalid demand window", err)
		return
	}

	records, err := h.service.ReorderAnalysis(c.Request.Context(), window)
	if err != nil {
		respondError(c, "failed to fetch reorder analysis", err)
		return
	}
	respondData(c, records)
}

func (h *PurchaseHandler) GetReorderSummary(c *gin.Context) {
	window, err := queryInt(c, "window")
	if err != nil {
		respondError(c, "invalid demand window", err)
		return
	}

	summary, err := h.service.ReorderSummary(c.Request.Context(), window)
	if err != nil {
		respondError(c, "failed to fetch reorder summary", err)
		return
	}
	respondData(c, summary)
}

func (h *PurchaseHandler) GetSupplierPerformance(c *gin.Context) {
	records, err := h.service.SupplierPerformance(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch supplier performance", err)
		return
	}
	respondData(c, records)
}
