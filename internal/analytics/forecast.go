package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
)

const (
	smoothingAlpha     = 0.3
	movingAverageSpan  = 6
	growthLookback     = 6
	seasonalMinHistory = 12
	confidenceBand     = 0.15

	// MaxForecastHorizon bounds the number of projected months.
	MaxForecastHorizon = 36
)

// Ensemble weights. They sum to 1.
const (
	WeightTrend         = 0.25
	WeightSeasonal      = 0.35
	WeightExponential   = 0.25
	WeightMovingAverage = 0.15
)

// ValidateHorizon rejects horizons outside 1..MaxForecastHorizon.
func ValidateHorizon(horizon int) error {
	if horizon < 1 || horizon > MaxForecastHorizon {
		return fmt.Errorf("%w: forecast horizon must be between 1 and %d months, got %d", domain.ErrInvalidParameter, MaxForecastHorizon, horizon)
	}
	return nil
}

// NormalizeSeries drops points with an invalid month, sums duplicates of the
// same month and sorts ascending by year and month.
func NormalizeSeries(series []domain.MonthlyPoint) []domain.MonthlyPoint {
	totals := make(map[[2]int]float64, len(series))
	for _, p := range series {
		if !p.Valid() || math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) {
			continue
		}
		totals[[2]int{p.Year, p.Month}] += p.Amount
	}

	out := make([]domain.MonthlyPoint, 0, len(totals))
	for k, amount := range totals {
		out = append(out, domain.MonthlyPoint{Year: k[0], Month: k[1], Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// LinearTrendForecast projects an ordinary least squares line fitted over
// indices 0..N-1. With fewer than two points the mean is repeated.
func LinearTrendForecast(history []float64, horizon int) []float64 {
	out := make([]float64, horizon)
	n := len(history)
	if n < 2 {
		fill(out, mean(history))
		return out
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range history {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	slope := (nf*sumXY - sumX*sumY) / (nf*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / nf

	for h := range out {
		out[h] = clamp(intercept + slope*float64(n+h))
	}
	return out
}

// SeasonalForecast scales the linear trend by each calendar month's average
// relative to the overall average. Fewer than twelve points fall back to the
// trend. A month with no history, or a zero overall average, has factor 1.
func SeasonalForecast(series []domain.MonthlyPoint, horizon int) []float64 {
	history := amounts(series)
	trend := LinearTrendForecast(history, horizon)
	if len(series) < seasonalMinHistory {
		return trend
	}

	var sums, counts [13]float64
	for _, p := range series {
		sums[p.Month] += p.Amount
		counts[p.Month]++
	}
	overall := mean(history)

	last := series[len(series)-1]
	out := make([]float64, horizon)
	for h := range out {
		_, month := addMonths(last.Year, last.Month, h+1)
		factor := 1.0
		if overall != 0 && counts[month] > 0 {
			factor = (sums[month] / counts[month]) / overall
		}
		out[h] = clamp(trend[h] * factor)
	}
	return out
}

// ExponentialSmoothingForecast smooths with alpha 0.3 and extends the last
// smoothed value by half its change over the last two steps per month.
func ExponentialSmoothingForecast(history []float64, horizon int) []float64 {
	out := make([]float64, horizon)
	n := len(history)
	if n == 0 {
		return out
	}

	smoothed := make([]float64, n)
	smoothed[0] = history[0]
	for i := 1; i < n; i++ {
		smoothed[i] = smoothingAlpha*history[i] + (1-smoothingAlpha)*smoothed[i-1]
	}

	var trend float64
	if n >= 3 {
		trend = (smoothed[n-1] - smoothed[n-3]) / 2
	}

	for h := range out {
		out[h] = clamp(smoothed[n-1] + trend*float64(h+1))
	}
	return out
}

// MovingAverageGrowthForecast compounds the trailing moving average by the
// mean month over month growth of the last six observations, skipping
// transitions from zero. With fewer than three points the mean is repeated.
func MovingAverageGrowthForecast(history []float64, horizon int) []float64 {
	out := make([]float64, horizon)
	n := len(history)
	if n < 3 {
		fill(out, mean(history))
		return out
	}

	window := history[n-min(movingAverageSpan, n):]
	ma := mean(window)

	recent := history[n-min(growthLookback, n):]
	var growthSum float64
	var transitions int
	for i := 1; i < len(recent); i++ {
		if recent[i-1] == 0 {
			continue
		}
		growthSum += (recent[i] - recent[i-1]) / recent[i-1]
		transitions++
	}
	var growth float64
	if transitions > 0 {
		growth = growthSum / float64(transitions)
	}

	for h := range out {
		out[h] = clamp(ma * math.Pow(1+growth, float64(h+1)))
	}
	return out
}

// Forecast runs the four models over a series and blends them. The series is
// normalized first. Projected months follow the last observed month, or the
// month of now when there is no history.
func Forecast(series []domain.MonthlyPoint, horizon int, now time.Time) []domain.ForecastPoint {
	if horizon <= 0 {
		return nil
	}

	series = NormalizeSeries(series)
	history := amounts(series)

	trend := LinearTrendForecast(history, horizon)
	seasonal := SeasonalForecast(series, horizon)
	exponential := ExponentialSmoothingForecast(history, horizon)
	movingAvg := MovingAverageGrowthForecast(history, horizon)

	year, month := now.Year(), int(now.Month())
	if len(series) > 0 {
		last := series[len(series)-1]
		year, month = last.Year, last.Month
	}

	points := make([]domain.ForecastPoint, horizon)
	for h := range points {
		y, m := addMonths(year, month, h+1)
		ensemble := WeightTrend*trend[h] +
			WeightSeasonal*seasonal[h] +
			WeightExponential*exponential[h] +
			WeightMovingAverage*movingAvg[h]

		points[h] = domain.ForecastPoint{
			Year:          y,
			Month:         m,
			Trend:         trend[h],
			Seasonal:      seasonal[h],
			Exponential:   exponential[h],
			MovingAverage: movingAvg[h],
			Ensemble:      ensemble,
			Lower:         ensemble * (1 - confidenceBand),
			Upper:         ensemble * (1 + confidenceBand),
		}
	}
	return points
}

// TrailingMonths returns the last n points of a normalized series.
func TrailingMonths(series []domain.MonthlyPoint, n int) []domain.MonthlyPoint {
	series = NormalizeSeries(series)
	if n <= 0 {
		return nil
	}
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

func addMonths(year, month, k int) (int, int) {
	idx := year*12 + (month - 1) + k
	return idx / 12, idx%12 + 1
}

func amounts(series []domain.MonthlyPoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Amount
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func fill(out []float64, v float64) {
	v = clamp(v)
	for i := range out {
		out[i] = v
	}
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
