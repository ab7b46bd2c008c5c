package analytics

import (
	"testing"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlySeries(startYear, startMonth int, values ...float64) []domain.MonthlyPoint {
	out := make([]domain.MonthlyPoint, len(values))
	for i, v := range values {
		y, m := addMonths(startYear, startMonth, i)
		out[i] = domain.MonthlyPoint{Year: y, Month: m, Amount: v}
	}
	return out
}

func TestEnsembleWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, WeightTrend+WeightSeasonal+WeightExponential+WeightMovingAverage, 1e-12)
}

func TestLinearTrendConstantSeries(t *testing.T) {
	got := LinearTrendForecast([]float64{100, 100, 100, 100}, 3)
	require.Len(t, got, 3)
	for _, v := range got {
		assert.InDelta(t, 100, v, 1e-9)
	}
}

func TestLinearTrendProjectsSlope(t *testing.T) {
	got := LinearTrendForecast([]float64{10, 20, 30}, 2)
	assert.InDelta(t, 40, got[0], 1e-9)
	assert.InDelta(t, 50, got[1], 1e-9)
}

func TestLinearTrendClampsDecline(t *testing.T) {
	got := LinearTrendForecast([]float64{300, 200, 100}, 3)
	assert.Equal(t, []float64{0, 0, 0}, got)
}

func TestLinearTrendShortHistory(t *testing.T) {
	assert.Equal(t, []float64{42, 42}, LinearTrendForecast([]float64{42}, 2))
	assert.Equal(t, []float64{0, 0}, LinearTrendForecast(nil, 2))
}

func TestSeasonalFallsBackToTrend(t *testing.T) {
	series := monthlySeries(2024, 1, 10, 20, 30)
	assert.Equal(t, LinearTrendForecast([]float64{10, 20, 30}, 4), SeasonalForecast(series, 4))
}

func TestSeasonalAppliesCalendarFactor(t *testing.T) {
	// flat series with a December spike
	values := make([]float64, 24)
	for i := range values {
		values[i] = 100
	}
	values[11], values[23] = 220, 220
	series := monthlySeries(2022, 1, values...)

	got := SeasonalForecast(series, 12)
	trend := LinearTrendForecast(values, 12)
	overall := (22*100 + 2*220) / 24.0

	assert.InDelta(t, trend[0]*100/overall, got[0], 1e-9)
	assert.InDelta(t, trend[11]*220/overall, got[11], 1e-9)
	assert.Greater(t, got[11], got[10])
}

func TestExponentialSmoothing(t *testing.T) {
	got := ExponentialSmoothingForecast([]float64{100, 130, 160}, 2)
	s1 := 0.3*130 + 0.7*100
	s2 := 0.3*160 + 0.7*s1
	trend := (s2 - 100) / 2
	assert.InDelta(t, s2+trend, got[0], 1e-9)
	assert.InDelta(t, s2+2*trend, got[1], 1e-9)

	short := ExponentialSmoothingForecast([]float64{80, 90}, 2)
	s := 0.3*90 + 0.7*80
	assert.InDelta(t, s, short[0], 1e-9)
	assert.InDelta(t, s, short[1], 1e-9)

	assert.Equal(t, []float64{0}, ExponentialSmoothingForecast(nil, 1))
}

func TestMovingAverageGrowth(t *testing.T) {
	got := MovingAverageGrowthForecast([]float64{100, 110, 121}, 2)
	ma := (100 + 110 + 121) / 3.0
	assert.InDelta(t, ma*1.1, got[0], 1e-9)
	assert.InDelta(t, ma*1.1*1.1, got[1], 1e-9)
}

func TestMovingAverageGrowthSkipsZeroPriors(t *testing.T) {
	got := MovingAverageGrowthForecast([]float64{0, 50, 100, 100}, 1)
	ma := 250 / 4.0
	// transitions: 0->50 skipped, 50->100 = 1, 100->100 = 0
	assert.InDelta(t, ma*1.5, got[0], 1e-9)
}

func TestMovingAverageGrowthShortHistory(t *testing.T) {
	assert.Equal(t, []float64{15, 15}, MovingAverageGrowthForecast([]float64{10, 20}, 2))
}

func TestForecastNonNegativeAndBanded(t *testing.T) {
	series := monthlySeries(2023, 1, 900, 800, 700, 600, 500, 400, 300, 200, 100, 50, 20, 5, 1)
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	points := Forecast(series, 6, now)
	require.Len(t, points, 6)
	assert.Equal(t, 2024, points[0].Year)
	assert.Equal(t, 2, points[0].Month)
	for _, p := range points {
		for _, v := range []float64{p.Trend, p.Seasonal, p.Exponential, p.MovingAverage, p.Ensemble, p.Lower, p.Upper} {
			assert.GreaterOrEqual(t, v, 0.0)
		}
		assert.LessOrEqual(t, p.Lower, p.Ensemble)
		assert.LessOrEqual(t, p.Ensemble, p.Upper)
	}
}

func TestForecastBlendsComponents(t *testing.T) {
	points := Forecast(monthlySeries(2024, 1, 100, 100, 100, 100), 2, time.Now())
	require.Len(t, points, 2)
	for _, p := range points {
		assert.InDelta(t, 100, p.Trend, 1e-9)
		assert.InDelta(t, 100, p.Seasonal, 1e-9)
		assert.InDelta(t, 100, p.Exponential, 1e-9)
		assert.InDelta(t, 100, p.MovingAverage, 1e-9)
		assert.InDelta(t, 100, p.Ensemble, 1e-9)
		assert.InDelta(t, 85, p.Lower, 1e-9)
		assert.InDelta(t, 115, p.Upper, 1e-9)
	}
	assert.Equal(t, 5, points[0].Month)
	assert.Equal(t, 6, points[1].Month)
}

func TestForecastEmptyHistoryStartsAfterNow(t *testing.T) {
	now := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)
	points := Forecast(nil, 2, now)
	require.Len(t, points, 2)
	assert.Equal(t, 2025, points[0].Year)
	assert.Equal(t, 1, points[0].Month)
	assert.Zero(t, points[1].Ensemble)
}

func TestNormalizeSeries(t *testing.T) {
	got := NormalizeSeries([]domain.MonthlyPoint{
		{Year: 2024, Month: 3, Amount: 30},
		{Year: 2023, Month: 12, Amount: 5},
		{Year: 2024, Month: 3, Amount: 12},
		{Year: 2024, Month: 0, Amount: 99},
		{Year: 2024, Month: 13, Amount: 99},
		{Year: 2024, Month: 1, Amount: 10},
	})
	assert.Equal(t, []domain.MonthlyPoint{
		{Year: 2023, Month: 12, Amount: 5},
		{Year: 2024, Month: 1, Amount: 10},
		{Year: 2024, Month: 3, Amount: 42},
	}, got)
}

func TestValidateHorizon(t *testing.T) {
	assert.NoError(t, ValidateHorizon(6))
	assert.ErrorIs(t, ValidateHorizon(0), domain.ErrInvalidParameter)
	assert.ErrorIs(t, ValidateHorizon(MaxForecastHorizon+1), domain.ErrInvalidParameter)
}

func TestAddMonths(t *testing.T) {
	y, m := addMonths(2024, 11, 3)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 2, m)
}
