package service

import (
	"context"
	"strconv"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/repository"
	"golang.org/x/sync/errgroup"
)

// PurchaseService answers replenishment questions: what to reorder, how much
// and from whom.
type PurchaseService struct {
	inventory repository.InventoryRepository
	suppliers repository.SupplierRepository
	reorder   analytics.ReorderConfig
	loader    *cachedLoader
}

func NewPurchaseService(inventory repository.InventoryRepository, suppliers repository.SupplierRepository, reorder analytics.ReorderConfig, opts Options) (*PurchaseService, error) {
	if err := reorder.Validate(); err != nil {
		return nil, err
	}
	return &PurchaseService{
		inventory: inventory,
		suppliers: suppliers,
		reorder:   reorder,
		loader:    newCachedLoader(opts),
	}, nil
}

// DefaultWindowDays is the demand window used when a caller passes 0.
func (s *PurchaseService) DefaultWindowDays() int {
	return s.reorder.WindowDays
}

// ReorderAnalysis returns one record per item with demand in the window,
// most urgent first.
func (s *PurchaseService) ReorderAnalysis(ctx context.Context, windowDays int) ([]analytics.ReorderRecord, error) {
	calc, err := s.calculator(windowDays)
	if err != nil {
		return nil, err
	}

	return loadCached(ctx, s.loader, DatasetReorderAnalysis, windowParams(calc), func(ctx context.Context) ([]analytics.ReorderRecord, error) {
		recs, err := s.recommendations(ctx, calc)
		if err != nil {
			return nil, err
		}
		return analytics.ReorderRecords(recs), nil
	})
}

// ReorderSummary totals suggested orders by supplier and priority.
func (s *PurchaseService) ReorderSummary(ctx context.Context, windowDays int) (domain.ReorderSummary, error) {
	calc, err := s.calculator(windowDays)
	if err != nil {
		return domain.ReorderSummary{}, err
	}

	return loadCached(ctx, s.loader, DatasetReorderSummary, windowParams(calc), func(ctx context.Context) (domain.ReorderSummary, error) {
		recs, err := s.recommendations(ctx, calc)
		if err != nil {
			return domain.ReorderSummary{}, err
		}
		return analytics.SummarizeReorder(recs), nil
	})
}

// SupplierPerformance lists suppliers with their lead time history.
func (s *PurchaseService) SupplierPerformance(ctx context.Context) ([]analytics.SupplierRecord, error) {
	return loadCached(ctx, s.loader, DatasetSupplierPerformance, nil, func(ctx context.Context) ([]analytics.SupplierRecord, error) {
		profiles, err := s.suppliers.GetSupplierProfiles(ctx)
		if err != nil {
			return nil, domain.NewFetchError("supplier profiles", err)
		}
		return analytics.SupplierRecords(profiles), nil
	})
}

func (s *PurchaseService) calculator(windowDays int) (*analytics.ReorderCalculator, error) {
	cfg := s.reorder
	if windowDays != 0 {
		cfg = cfg.WithWindow(windowDays)
	}
	return analytics.NewReorderCalculator(cfg)
}

// recommendations reads the snapshot and supplier history concurrently. Either
// failing aborts the analysis.
func (s *PurchaseService) recommendations(ctx context.Context, calc *analytics.ReorderCalculator) ([]domain.ReorderRecommendation, error) {
	now := s.loader.now()

	var (
		items     []domain.StockSnapshot
		suppliers []domain.SupplierProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.inventory.GetStockSnapshot(gctx, now)
		return domain.NewFetchError("stock snapshot", err)
	})
	g.Go(func() error {
		var err error
		suppliers, err = s.suppliers.GetSupplierProfiles(gctx)
		return domain.NewFetchError("supplier profiles", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return calc.Analyze(items, suppliers, now), nil
}

func windowParams(calc *analytics.ReorderCalculator) []string {
	return []string{"window=" + strconv.Itoa(calc.Config().WindowDays)}
}
