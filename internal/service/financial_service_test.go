package service

import (
	"context"
	"testing"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func months(year, month int, values ...float64) []domain.MonthlyPoint {
	out := make([]domain.MonthlyPoint, 0, len(values))
	for _, v := range values {
		out = append(out, domain.MonthlyPoint{Year: year, Month: month, Amount: v})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return out
}

func TestCreditRisk(t *testing.T) {
	repo := &stubFinancial{balances: []domain.CustomerBalance{
		{Name: "Small", CurrentBalance: 5000, OverdueAmount: 0, OverduePercentage: ptr(0.0)},
		{Name: "Acme SA", CurrentBalance: 2_000_000, OverdueAmount: 1_200_000, OverduePercentage: ptr(60.0)},
	}}
	svc := NewFinancialService(repo, FinancialSettings{}, testOptions(t))

	records, err := svc.CreditRisk(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Acme SA", records[0].Name)
	assert.Equal(t, 70, records[0].RiskScore)
	assert.Equal(t, "HIGH", records[0].RiskLevel)

	_, err = svc.CreditRisk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestCashFlowHistory(t *testing.T) {
	repo := &stubFinancial{series: map[string][]domain.MonthlyPoint{
		"payments": months(2024, 1, 100, 200, 300),
	}}
	svc := NewFinancialService(repo, FinancialSettings{}, testOptions(t))

	records, err := svc.CashFlowHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 12, repo.months)
	assert.Equal(t, "2024-03", records[2].MonthYear)
	assert.InDelta(t, 200, records[2].MovingAvg3, 1e-9)

	_, err = svc.CashFlowHistory(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	_, err = svc.CashFlowHistory(context.Background(), 121)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestForecastPayments(t *testing.T) {
	repo := &stubFinancial{series: map[string][]domain.MonthlyPoint{
		"payments": months(2023, 10, 100, 100, 100, 100, 100, 100, 100),
	}}
	svc := NewFinancialService(repo, FinancialSettings{ForecastHistoryMonths: 18}, testOptions(t))
	assert.Equal(t, 6, svc.DefaultHorizon())

	records, err := svc.Forecast(context.Background(), domain.PaymentsSource, 0, analytics.OrderAscending)
	require.NoError(t, err)
	require.Len(t, records, 12)
	assert.Equal(t, 18, repo.months)

	first := records[6]
	assert.False(t, first.IsHistorical)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, 5, first.Month)
	assert.Equal(t, "USD", first.Currency)
	require.NotNil(t, first.ForecastedPayments)
	assert.InDelta(t, 100, *first.ForecastedPayments, 1e-9)
}

func TestForecastRevenueUsesItsOwnCacheEntry(t *testing.T) {
	repo := &stubFinancial{series: map[string][]domain.MonthlyPoint{
		"payments": months(2024, 1, 10, 10, 10),
		"revenue":  months(2024, 1, 1210, 1210, 1210),
	}}
	svc := NewFinancialService(repo, FinancialSettings{}, testOptions(t))

	payments, err := svc.Forecast(context.Background(), domain.PaymentsSource, 1, analytics.OrderAscending)
	require.NoError(t, err)
	revenue, err := svc.Forecast(context.Background(), domain.RevenueSource, 1, analytics.OrderAscending)
	require.NoError(t, err)

	assert.Equal(t, "ARS", revenue[len(revenue)-1].Currency)
	assert.InDelta(t, 1210, *revenue[len(revenue)-1].ForecastedPayments, 1e-9)
	assert.InDelta(t, 10, *payments[len(payments)-1].ForecastedPayments, 1e-9)
}

func TestForecastRejectsHorizon(t *testing.T) {
	repo := &stubFinancial{}
	svc := NewFinancialService(repo, FinancialSettings{}, testOptions(t))

	_, err := svc.Forecast(context.Background(), domain.PaymentsSource, analytics.MaxForecastHorizon+1, analytics.OrderAscending)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Zero(t, repo.calls.Load())
}

func TestSeasonalAnalysis(t *testing.T) {
	repo := &stubFinancial{series: map[string][]domain.MonthlyPoint{
		"revenue": months(2023, 1, 50, 100, 150),
	}}
	svc := NewFinancialService(repo, FinancialSettings{}, testOptions(t))

	records, err := svc.SeasonalAnalysis(context.Background(), domain.RevenueSource)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "January", records[0].MonthName)
}

func TestSnapshot(t *testing.T) {
	repo := &stubFinancial{series: map[string][]domain.MonthlyPoint{
		"revenue": months(2024, 1, 100, 100, 150),
	}}
	svc := NewFinancialService(repo, FinancialSettings{}, testOptions(t))

	snap, err := svc.Snapshot(context.Background(), domain.RevenueSource)
	require.NoError(t, err)
	assert.Equal(t, "revenue", snap.Series)
	assert.Equal(t, "ARS", snap.Currency)
	assert.Equal(t, 150.0, snap.CurrentMonth)
	assert.Equal(t, 100.0, snap.PreviousMonth)
	assert.InDelta(t, 50, snap.GrowthRate, 1e-9)
	assert.Greater(t, snap.NextMonthForecast, 0.0)
}

func TestAgingIgnoresCreditRiskMinimum(t *testing.T) {
	repo := &stubFinancial{balances: []domain.CustomerBalance{
		{Name: "Small", CurrentBalance: 500, OverdueAmount: 400},
		{Name: "Acme SA", CurrentBalance: 2_000_000, OverdueAmount: 0},
	}}
	svc := NewFinancialService(repo, FinancialSettings{MinCustomerBalance: 1000}, testOptions(t))

	records, err := svc.Aging(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repo.minimum)
	require.Len(t, records, 2)
	assert.Equal(t, "Acme SA", records[0].Name)
	assert.InDelta(t, 2_000_000, records[0].Current, 1e-9)
	assert.InDelta(t, 400, records[1].Days90Plus, 1e-9)

	_, err = svc.Aging(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.calls.Load())
}
