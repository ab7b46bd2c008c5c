package api

import (
	"context"
	"strings"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/api/handlers"
	"github.com/andresuchdata/dialfa-analytics/internal/api/middleware"
	"github.com/andresuchdata/dialfa-analytics/internal/cache"
	"github.com/andresuchdata/dialfa-analytics/internal/metrics"
	"github.com/andresuchdata/dialfa-analytics/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Purchase  *service.PurchaseService
	Inventory *service.InventoryService
	Financial *service.FinancialService
	Dashboard *service.DashboardService
	Cache     cache.AnalyticsCache

	// HealthChecks are run by GET /health, keyed by dependency name.
	HealthChecks map[string]func(ctx context.Context) error
}

type RouterOptions struct {
	AllowedOrigins []string

	// RateLimitRPS of 0 disables per-client rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// Done, when set, stops the limiter's background cleanup once closed.
	Done <-chan struct{}
}

func NewRouter(services *Services, opts RouterOptions) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if services == nil {
		return router
	}

	adminHandler := handlers.NewAdminHandler(services.Cache, services.HealthChecks)
	router.GET("/health", adminHandler.Health)

	apiGroup := router.Group("/api/v1")
	if opts.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
		if opts.Done != nil {
			limiter.StartCleanup(10*time.Minute, opts.Done)
		}
		apiGroup.Use(limiter.Handler())
	}

	if services.Purchase != nil {
		purchaseHandler := handlers.NewPurchaseHandler(services.Purchase)
		purchaseGroup := apiGroup.Group("/purchase")
		{
			purchaseGroup.GET("/reorder-analysis", purchaseHandler.GetReorderAnalysis)
			purchaseGroup.GET("/reorder-summary", purchaseHandler.GetReorderSummary)
			purchaseGroup.GET("/supplier-performance", purchaseHandler.GetSupplierPerformance)
		}
	}

	if services.Inventory != nil {
		inventoryHandler := handlers.NewInventoryHandler(services.Inventory)
		inventoryGroup := apiGroup.Group("/inventory")
		{
			inventoryGroup.GET("/abc-analysis", inventoryHandler.GetABCAnalysis)
			inventoryGroup.GET("/stock-health", inventoryHandler.GetStockHealth)
			inventoryGroup.GET("/slow-moving", inventoryHandler.GetSlowMoving)
			inventoryGroup.GET("/kpis", inventoryHandler.GetKPIs)
			inventoryGroup.GET("/stock-alerts", inventoryHandler.GetStockAlerts)
			inventoryGroup.GET("/category-analysis", inventoryHandler.GetCategoryAnalysis)
		}
	}

	if services.Financial != nil {
		financialHandler := handlers.NewFinancialHandler(services.Financial)
		financialGroup := apiGroup.Group("/financial")
		{
			financialGroup.GET("/credit-risk", financialHandler.GetCreditRisk)
			financialGroup.GET("/aging", financialHandler.GetAging)
			financialGroup.GET("/cash-flow-history", financialHandler.GetCashFlowHistory)
			financialGroup.GET("/cash-flow-forecast", financialHandler.GetCashFlowForecast)
		}

		salesGroup := apiGroup.Group("/sales")
		{
			salesGroup.GET("/revenue-forecast", financialHandler.GetRevenueForecast)
			salesGroup.GET("/seasonal-analysis", financialHandler.GetSeasonalAnalysis)
		}
	}

	if services.Dashboard != nil {
		dashboardHandler := handlers.NewDashboardHandler(services.Dashboard)
		apiGroup.GET("/dashboard/overview", dashboardHandler.GetOverview)
	}

	adminGroup := apiGroup.Group("/admin/cache")
	{
		adminGroup.POST("/clear", adminHandler.ClearCache)
		adminGroup.POST("/clear/:dataset", adminHandler.ClearDataset)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
