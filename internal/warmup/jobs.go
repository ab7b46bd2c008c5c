package warmup

import (
	"context"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/cache"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/service"
)

// Services are the analytics services whose default views get warmed.
type Services struct {
	Purchase  *service.PurchaseService
	Inventory *service.InventoryService
	Financial *service.FinancialService
	Dashboard *service.DashboardService

	// SkipRevenue drops the jobs reading the ERP revenue series.
	SkipRevenue bool
}

// DatasetJobs returns one job per dataset served with default parameters.
// Each job drops the dataset's entries and recomputes them.
func DatasetJobs(c cache.AnalyticsCache, s Services) []Job {
	if c == nil {
		c = cache.NewNoopAnalyticsCache()
	}

	var jobs []Job
	add := func(dataset string, fn func(ctx context.Context) error) {
		jobs = append(jobs, JobFunc{
			JobName: dataset,
			Fn: func(ctx context.Context) error {
				if _, err := c.InvalidateDataset(ctx, dataset); err != nil {
					return err
				}
				return fn(ctx)
			},
		})
	}

	if p := s.Purchase; p != nil {
		add(service.DatasetReorderAnalysis, func(ctx context.Context) error {
			_, err := p.ReorderAnalysis(ctx, 0)
			return err
		})
		add(service.DatasetReorderSummary, func(ctx context.Context) error {
			_, err := p.ReorderSummary(ctx, 0)
			return err
		})
		add(service.DatasetSupplierPerformance, func(ctx context.Context) error {
			_, err := p.SupplierPerformance(ctx)
			return err
		})
	}

	if i := s.Inventory; i != nil {
		add(service.DatasetABCAnalysis, func(ctx context.Context) error {
			_, err := i.ABCAnalysis(ctx)
			return err
		})
		add(service.DatasetStockHealth, func(ctx context.Context) error {
			_, err := i.StockHealth(ctx)
			return err
		})
		add(service.DatasetSlowMoving, func(ctx context.Context) error {
			_, err := i.SlowMoving(ctx)
			return err
		})
		add(service.DatasetInventoryKPIs, func(ctx context.Context) error {
			_, err := i.KPIs(ctx)
			return err
		})
		add(service.DatasetStockAlerts, func(ctx context.Context) error {
			_, err := i.StockAlerts(ctx)
			return err
		})
		add(service.DatasetCategoryAnalysis, func(ctx context.Context) error {
			_, err := i.CategoryAnalysis(ctx)
			return err
		})
	}

	if f := s.Financial; f != nil {
		add(service.DatasetCreditRisk, func(ctx context.Context) error {
			_, err := f.CreditRisk(ctx)
			return err
		})
		add(service.DatasetAgingAnalysis, func(ctx context.Context) error {
			_, err := f.Aging(ctx)
			return err
		})
		add(service.DatasetCashFlowHistory, func(ctx context.Context) error {
			_, err := f.CashFlowHistory(ctx, 0)
			return err
		})
		add(service.DatasetCashFlowForecast, func(ctx context.Context) error {
			_, err := f.Forecast(ctx, domain.PaymentsSource, 0, analytics.OrderAscending)
			return err
		})
		if !s.SkipRevenue {
			add(service.DatasetRevenueForecast, func(ctx context.Context) error {
				_, err := f.Forecast(ctx, domain.RevenueSource, 0, analytics.OrderAscending)
				return err
			})
			add(service.DatasetSeasonalAnalysis, func(ctx context.Context) error {
				_, err := f.SeasonalAnalysis(ctx, domain.RevenueSource)
				return err
			})
		}
	}

	if d := s.Dashboard; d != nil {
		add(service.DatasetDashboardOverview, func(ctx context.Context) error {
			_, err := d.Overview(ctx)
			return err
		})
	}

	return jobs
}
