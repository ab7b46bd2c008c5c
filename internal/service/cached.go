package service

import (
	"context"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/cache"
	"github.com/andresuchdata/dialfa-analytics/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Dataset names double as cache namespaces and warm-up job names.
const (
	DatasetReorderAnalysis     = "reorder_analysis"
	DatasetReorderSummary      = "reorder_summary"
	DatasetSupplierPerformance = "supplier_performance"
	DatasetABCAnalysis         = "abc_analysis"
	DatasetStockHealth         = "stock_health"
	DatasetSlowMoving          = "slow_moving"
	DatasetInventoryKPIs       = "inventory_kpis"
	DatasetStockAlerts         = "stock_alerts"
	DatasetCategoryAnalysis    = "category_analysis"
	DatasetCreditRisk          = "credit_risk"
	DatasetAgingAnalysis       = "aging_analysis"
	DatasetCashFlowHistory     = "cash_flow_history"
	DatasetCashFlowForecast    = "cash_flow_forecast"
	DatasetRevenueForecast     = "revenue_forecast"
	DatasetSeasonalAnalysis    = "seasonal_analysis"
	DatasetDashboardOverview   = "dashboard_overview"
)

var datasets = map[string]struct{}{
	DatasetReorderAnalysis:     {},
	DatasetReorderSummary:      {},
	DatasetSupplierPerformance: {},
	DatasetABCAnalysis:         {},
	DatasetStockHealth:         {},
	DatasetSlowMoving:          {},
	DatasetInventoryKPIs:       {},
	DatasetStockAlerts:         {},
	DatasetCategoryAnalysis:    {},
	DatasetCreditRisk:          {},
	DatasetAgingAnalysis:       {},
	DatasetCashFlowHistory:     {},
	DatasetCashFlowForecast:    {},
	DatasetRevenueForecast:     {},
	DatasetSeasonalAnalysis:    {},
	DatasetDashboardOverview:   {},
}

// KnownDataset reports whether name is a cacheable dataset.
func KnownDataset(name string) bool {
	_, ok := datasets[name]
	return ok
}

// Options are shared by every analytics service.
type Options struct {
	Cache cache.AnalyticsCache
	// TTL returns the cache lifetime of a dataset.
	TTL func(dataset string) time.Duration
	// Now is the analysis clock.
	Now func() time.Time
	// ComputeTimeout bounds a shared computation on a cache miss.
	ComputeTimeout time.Duration
}

const defaultComputeTimeout = 2 * time.Minute

type cachedLoader struct {
	cache   cache.AnalyticsCache
	ttl     func(dataset string) time.Duration
	now     func() time.Time
	timeout time.Duration
	group   singleflight.Group
}

func newCachedLoader(opts Options) *cachedLoader {
	l := &cachedLoader{cache: opts.Cache, ttl: opts.TTL, now: opts.Now, timeout: opts.ComputeTimeout}
	if l.timeout <= 0 {
		l.timeout = defaultComputeTimeout
	}
	if l.cache == nil {
		l.cache = cache.NewNoopAnalyticsCache()
	}
	if l.ttl == nil {
		l.ttl = func(string) time.Duration { return 5 * time.Minute }
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// loadCached serves dataset from the cache or computes it once for all
// concurrent callers with the same key. Cache failures are logged and never
// fail the request.
func loadCached[T any](ctx context.Context, l *cachedLoader, dataset string, params []string, compute func(ctx context.Context) (T, error)) (T, error) {
	key := l.cache.Key(dataset, params...)

	var cached T
	hit, err := l.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		metrics.RecordCacheLookup(dataset, "error")
		log.Warn().Err(err).Str("dataset", dataset).Msg("analytics: cache get failed")
	case hit:
		metrics.RecordCacheLookup(dataset, "hit")
		return cached, nil
	default:
		metrics.RecordCacheLookup(dataset, "miss")
	}

	// The shared computation outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := l.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		start := time.Now()
		result, err := compute(shared)
		metrics.ObserveAnalysis(dataset, err, time.Since(start))
		if err != nil {
			return nil, err
		}

		if err := l.cache.Set(shared, key, result, l.ttl(dataset)); err != nil {
			log.Warn().Err(err).Str("dataset", dataset).Msg("analytics: cache set failed")
		}
		return result, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
