package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/api"
	"github.com/andresuchdata/dialfa-analytics/internal/cache"
	"github.com/andresuchdata/dialfa-analytics/internal/config"
	"github.com/andresuchdata/dialfa-analytics/internal/export"
	"github.com/andresuchdata/dialfa-analytics/internal/repository"
	"github.com/andresuchdata/dialfa-analytics/internal/repository/postgres"
	"github.com/andresuchdata/dialfa-analytics/internal/service"
	"github.com/andresuchdata/dialfa-analytics/internal/storage"
	"github.com/andresuchdata/dialfa-analytics/internal/warmup"
	"github.com/rs/zerolog/log"
)

// App holds the connections and services shared by the server and the CLI.
type App struct {
	Config *config.Config

	Transactional *postgres.DB
	ERP           *postgres.DB
	Cache         cache.AnalyticsCache

	Purchase  *service.PurchaseService
	Inventory *service.InventoryService
	Financial *service.FinancialService
	Dashboard *service.DashboardService

	// Exporter is nil when no object storage is configured.
	Exporter *export.ReorderExporter
}

// New connects both databases and builds the services. The ERP database is
// optional: without it revenue series fail at request time.
func New(cfg *config.Config) (*App, error) {
	transactional, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Transactional: transactional}

	if cfg.ERPDatabase.Host != "" {
		erp, err := postgres.NewDB(cfg.ERPDatabase)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.ERP = erp
	} else {
		log.Warn().Msg("ERP database not configured, revenue analytics disabled")
	}

	analyticsCache, err := cache.NewAnalyticsCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("analytics cache unavailable, continuing without cache")
		analyticsCache = cache.NewNoopAnalyticsCache()
	}
	a.Cache = analyticsCache

	if err := a.buildServices(
		postgres.NewInventoryRepository(transactional),
		postgres.NewSupplierRepository(transactional),
		postgres.NewFinancialRepository(transactional, a.ERP),
	); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Storage.Configured() {
		store, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("object storage unavailable, exports disabled")
		} else {
			a.Exporter = export.NewReorderExporter(store, cfg.Storage.ExportPrefix)
		}
	}

	return a, nil
}

func (a *App) buildServices(inventory repository.InventoryRepository, suppliers repository.SupplierRepository, financial repository.FinancialRepository) error {
	cfg := a.Config
	opts := service.Options{Cache: a.Cache, TTL: cfg.Cache.TTLFor, Now: time.Now}

	purchase, err := service.NewPurchaseService(inventory, suppliers, service.ReorderConfigFrom(cfg.Analytics), opts)
	if err != nil {
		return fmt.Errorf("invalid reorder settings: %w", err)
	}
	a.Purchase = purchase
	a.Inventory = service.NewInventoryService(inventory, service.ABCThresholdsFrom(cfg.Analytics), opts)
	a.Financial = service.NewFinancialService(financial, service.FinancialSettingsFrom(cfg.Analytics), opts)
	a.Dashboard = service.NewDashboardService(a.Purchase, a.Inventory, a.Financial, cfg.Analytics.TopRiskCustomers, opts)
	return nil
}

// APIServices exposes the services to the HTTP router.
func (a *App) APIServices() *api.Services {
	checks := map[string]func(ctx context.Context) error{
		"transactional_db": a.Transactional.PingContext,
	}
	if a.ERP != nil {
		checks["erp_db"] = a.ERP.PingContext
	}
	return &api.Services{
		Purchase:     a.Purchase,
		Inventory:    a.Inventory,
		Financial:    a.Financial,
		Dashboard:    a.Dashboard,
		Cache:        a.Cache,
		HealthChecks: checks,
	}
}

// WarmupRunner builds a runner over every dataset job.
func (a *App) WarmupRunner() *warmup.Runner {
	jobs := warmup.DatasetJobs(a.Cache, warmup.Services{
		Purchase:  a.Purchase,
		Inventory: a.Inventory,
		Financial: a.Financial,
		Dashboard: a.Dashboard,

		SkipRevenue: a.ERP == nil,
	})

	cfg := warmup.DefaultConfig()
	if a.Config.Warmup.Workers > 0 {
		cfg.WorkerCount = a.Config.Warmup.Workers
	}
	if a.Config.Warmup.TimeoutSeconds > 0 {
		cfg.JobTimeout = time.Duration(a.Config.Warmup.TimeoutSeconds) * time.Second
	}
	return warmup.NewRunner(jobs, cfg)
}

// ExportReorder computes the reorder analysis for window and uploads it.
func (a *App) ExportReorder(ctx context.Context, window int) (string, error) {
	if a.Exporter == nil {
		return "", errors.New("object storage is not configured")
	}
	records, err := a.Purchase.ReorderAnalysis(ctx, window)
	if err != nil {
		return "", err
	}
	if window == 0 {
		window = a.Purchase.DefaultWindowDays()
	}
	return a.Exporter.Export(ctx, window, records)
}

func (a *App) Close() {
	for name, db := range map[string]*postgres.DB{"transactional": a.Transactional, "erp": a.ERP} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Str("database", name).Msg("failed to close database")
		}
	}
}
