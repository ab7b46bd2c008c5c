package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/repository"
)

const maxHistoryMonths = 120

type FinancialSettings struct {
	MinCustomerBalance    float64
	ForecastHorizonMonths int
	ForecastHistoryMonths int
	CashFlowHistoryMonths int
}

func (s FinancialSettings) withDefaults() FinancialSettings {
	if s.MinCustomerBalance <= 0 {
		s.MinCustomerBalance = 1000
	}
	if s.ForecastHorizonMonths <= 0 {
		s.ForecastHorizonMonths = 6
	}
	if s.ForecastHistoryMonths <= 0 {
		s.ForecastHistoryMonths = 24
	}
	if s.CashFlowHistoryMonths <= 0 {
		s.CashFlowHistoryMonths = 12
	}
	return s
}

// FinancialService covers receivables risk and the monthly money series.
type FinancialService struct {
	repo     repository.FinancialRepository
	settings FinancialSettings
	loader   *cachedLoader
}

func NewFinancialService(repo repository.FinancialRepository, settings FinancialSettings, opts Options) *FinancialService {
	return &FinancialService{
		repo:     repo,
		settings: settings.withDefaults(),
		loader:   newCachedLoader(opts),
	}
}

// DefaultHorizon is the forecast horizon used when a caller passes 0.
func (s *FinancialService) DefaultHorizon() int {
	return s.settings.ForecastHorizonMonths
}

// CreditRisk scores customers above the minimum balance, riskiest first.
func (s *FinancialService) CreditRisk(ctx context.Context) ([]analytics.CreditRiskRecord, error) {
	return loadCached(ctx, s.loader, DatasetCreditRisk, nil, func(ctx context.Context) ([]analytics.CreditRiskRecord, error) {
		balances, err := s.repo.GetCustomerBalances(ctx, s.settings.MinCustomerBalance)
		if err != nil {
			return nil, domain.NewFetchError("customer balances", err)
		}
		return analytics.CreditRiskRecords(analytics.AssessCreditRisk(balances)), nil
	})
}

// Aging splits every positive receivable into aging buckets, largest first.
func (s *FinancialService) Aging(ctx context.Context) ([]analytics.AgingRecord, error) {
	return loadCached(ctx, s.loader, DatasetAgingAnalysis, nil, func(ctx context.Context) ([]analytics.AgingRecord, error) {
		balances, err := s.repo.GetCustomerBalances(ctx, 0)
		if err != nil {
			return nil, domain.NewFetchError("customer balances", err)
		}
		return analytics.AgingRecords(analytics.AgeReceivables(balances)), nil
	})
}

// CashFlowHistory returns monthly payments with rolling means and growth.
func (s *FinancialService) CashFlowHistory(ctx context.Context, months int) ([]analytics.CashFlowRecord, error) {
	if months == 0 {
		months = s.settings.CashFlowHistoryMonths
	}
	if err := validateMonths(months); err != nil {
		return nil, err
	}

	params := []string{"months=" + strconv.Itoa(months)}
	return loadCached(ctx, s.loader, DatasetCashFlowHistory, params, func(ctx context.Context) ([]analytics.CashFlowRecord, error) {
		series, err := s.series(ctx, domain.PaymentsSource, months)
		if err != nil {
			return nil, err
		}
		return analytics.CashFlowRecords(analytics.CashFlowHistory(series)), nil
	})
}

// Forecast projects source horizon months ahead and returns the trailing
// actuals followed by the projections.
func (s *FinancialService) Forecast(ctx context.Context, source domain.SeriesSource, horizon int, order analytics.SortOrder) ([]analytics.ForecastRecord, error) {
	if horizon == 0 {
		horizon = s.settings.ForecastHorizonMonths
	}
	if err := analytics.ValidateHorizon(horizon); err != nil {
		return nil, err
	}

	dataset := DatasetCashFlowForecast
	if source.Name == domain.RevenueSource.Name {
		dataset = DatasetRevenueForecast
	}

	params := []string{"horizon=" + strconv.Itoa(horizon), "order=" + string(order)}
	return loadCached(ctx, s.loader, dataset, params, func(ctx context.Context) ([]analytics.ForecastRecord, error) {
		history, err := s.series(ctx, source, s.settings.ForecastHistoryMonths)
		if err != nil {
			return nil, err
		}
		points := analytics.Forecast(history, horizon, s.loader.now())
		return analytics.ForecastRecords(history, points, source.Currency, order), nil
	})
}

// SeasonalAnalysis indexes each calendar month of source against its mean.
func (s *FinancialService) SeasonalAnalysis(ctx context.Context, source domain.SeriesSource) ([]analytics.SeasonalRecord, error) {
	return loadCached(ctx, s.loader, DatasetSeasonalAnalysis, []string{"source=" + source.Name}, func(ctx context.Context) ([]analytics.SeasonalRecord, error) {
		series, err := s.series(ctx, source, s.settings.ForecastHistoryMonths)
		if err != nil {
			return nil, err
		}
		return analytics.SeasonalRecords(analytics.SeasonalAnalysis(series)), nil
	})
}

// Snapshot compares the last two months of source and projects the next one.
func (s *FinancialService) Snapshot(ctx context.Context, source domain.SeriesSource) (SeriesSnapshot, error) {
	series, err := s.series(ctx, source, s.settings.ForecastHistoryMonths)
	if err != nil {
		return SeriesSnapshot{}, err
	}

	snap := SeriesSnapshot{Series: source.Name, Currency: source.Currency}
	recent := analytics.TrailingMonths(series, 2)
	if n := len(recent); n > 0 {
		snap.CurrentMonth = recent[n-1].Amount
		if n > 1 {
			snap.PreviousMonth = recent[n-2].Amount
		}
	}
	snap.GrowthRate = analytics.GrowthRate(snap.CurrentMonth, snap.PreviousMonth)

	if next := analytics.Forecast(series, 1, s.loader.now()); len(next) == 1 {
		snap.NextMonthForecast = next[0].Ensemble
	}
	return snap, nil
}

func (s *FinancialService) series(ctx context.Context, source domain.SeriesSource, months int) ([]domain.MonthlyPoint, error) {
	series, err := s.repo.GetMonthlySeries(ctx, source, months, s.loader.now())
	if err != nil {
		return nil, domain.NewFetchError(source.Name+" series", err)
	}
	return series, nil
}

func validateMonths(months int) error {
	if months < 1 || months > maxHistoryMonths {
		return fmt.Errorf("%w: months must be between 1 and %d, got %d", domain.ErrInvalidParameter, maxHistoryMonths, months)
	}
	return nil
}
