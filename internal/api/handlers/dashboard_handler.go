package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andresuchdata/dialfa-analytics/internal/cache"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service *service.DashboardService
}

func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) GetOverview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch dashboard overview", err)
		return
	}
	respondData(c, overview)
}

// AdminHandler exposes cache maintenance and health checks.
type AdminHandler struct {
	cache  cache.AnalyticsCache
	checks map[string]func(ctx context.Context) error
}

func NewAdminHandler(cacheImpl cache.AnalyticsCache, checks map[string]func(ctx context.Context) error) *AdminHandler {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalyticsCache()
	}
	return &AdminHandler{cache: cacheImpl, checks: checks}
}

func (h *AdminHandler) ClearCache(c *gin.Context) {
	deleted, err := h.cache.InvalidateAll(c.Request.Context())
	if err != nil {
		respondError(c, "failed to clear cache", err)
		return
	}
	respondData(c, gin.H{"deleted_keys": deleted})
}

func (h *AdminHandler) ClearDataset(c *gin.Context) {
	dataset := c.Param("dataset")
	if !service.KnownDataset(dataset) {
		respondError(c, "unknown dataset", fmt.Errorf("%w: unknown dataset %q", domain.ErrInvalidParameter, dataset))
		return
	}

	deleted, err := h.cache.InvalidateDataset(c.Request.Context(), dataset)
	if err != nil {
		respondError(c, "failed to clear cache", err)
		return
	}
	respondData(c, gin.H{"dataset": dataset, "deleted_keys": deleted})
}

// Health reports 503 when any dependency check fails.
func (h *AdminHandler) Health(c *gin.Context) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
