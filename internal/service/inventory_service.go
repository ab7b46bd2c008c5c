package service

import (
	"context"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/repository"
)

// InventoryService classifies the active catalogue.
type InventoryService struct {
	inventory  repository.InventoryRepository
	thresholds analytics.ABCThresholds
	loader     *cachedLoader
}

func NewInventoryService(inventory repository.InventoryRepository, thresholds analytics.ABCThresholds, opts Options) *InventoryService {
	if thresholds.A <= 0 || thresholds.B <= 0 {
		thresholds = analytics.DefaultABCThresholds()
	}
	return &InventoryService{
		inventory:  inventory,
		thresholds: thresholds,
		loader:     newCachedLoader(opts),
	}
}

func (s *InventoryService) ABCAnalysis(ctx context.Context) ([]analytics.ABCRecord, error) {
	return loadCached(ctx, s.loader, DatasetABCAnalysis, nil, func(ctx context.Context) ([]analytics.ABCRecord, error) {
		items, err := s.activeItems(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.ABCRecords(analytics.ClassifyActiveABC(items, s.thresholds)), nil
	})
}

func (s *InventoryService) StockHealth(ctx context.Context) ([]analytics.StockHealthRecord, error) {
	return loadCached(ctx, s.loader, DatasetStockHealth, nil, func(ctx context.Context) ([]analytics.StockHealthRecord, error) {
		items, err := s.activeItems(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.StockHealthRecords(analytics.ClassifyStockHealth(items)), nil
	})
}

func (s *InventoryService) SlowMoving(ctx context.Context) ([]analytics.SlowMovingRecord, error) {
	return loadCached(ctx, s.loader, DatasetSlowMoving, nil, func(ctx context.Context) ([]analytics.SlowMovingRecord, error) {
		items, err := s.activeItems(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.SlowMovingRecords(analytics.ClassifyMovement(items, s.loader.now())), nil
	})
}

func (s *InventoryService) KPIs(ctx context.Context) (domain.InventoryKPIs, error) {
	return loadCached(ctx, s.loader, DatasetInventoryKPIs, nil, func(ctx context.Context) (domain.InventoryKPIs, error) {
		items, err := s.activeItems(ctx)
		if err != nil {
			return domain.InventoryKPIs{}, err
		}
		return analytics.ComputeInventoryKPIs(items, s.loader.now()), nil
	})
}

func (s *InventoryService) StockAlerts(ctx context.Context) ([]analytics.StockAlertRecord, error) {
	return loadCached(ctx, s.loader, DatasetStockAlerts, nil, func(ctx context.Context) ([]analytics.StockAlertRecord, error) {
		items, err := s.activeItems(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.StockAlertRecords(analytics.StockAlerts(items)), nil
	})
}

// CategoryAnalysis shares the ABC population: in stock and not discontinued.
func (s *InventoryService) CategoryAnalysis(ctx context.Context) ([]analytics.CategoryRecord, error) {
	return loadCached(ctx, s.loader, DatasetCategoryAnalysis, nil, func(ctx context.Context) ([]analytics.CategoryRecord, error) {
		items, err := s.activeItems(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.CategoryRecords(analytics.AnalyzeCategories(items)), nil
	})
}

// activeItems returns the snapshot without discontinued articles.
func (s *InventoryService) activeItems(ctx context.Context) ([]domain.StockSnapshot, error) {
	items, err := s.inventory.GetStockSnapshot(ctx, s.loader.now())
	if err != nil {
		return nil, domain.NewFetchError("stock snapshot", err)
	}

	active := items[:0:0]
	for _, item := range items {
		if !item.Discontinued {
			active = append(active, item)
		}
	}
	return active, nil
}
