package analytics

import "github.com/andresuchdata/dialfa-analytics/internal/domain"

// GrowthRate is the percentage change from prev to cur, 0 when prev is 0.
func GrowthRate(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// CashFlowHistory adds 3 and 6 month rolling means and month over month
// growth to a normalized series. Rolling means use whatever is available at
// the start of the series.
func CashFlowHistory(series []domain.MonthlyPoint) []domain.CashFlowPoint {
	series = NormalizeSeries(series)
	values := amounts(series)

	out := make([]domain.CashFlowPoint, len(series))
	for i, p := range series {
		out[i] = domain.CashFlowPoint{
			MonthlyPoint: p,
			MovingAvg3:   rollingMean(values, i, 3),
			MovingAvg6:   rollingMean(values, i, 6),
		}
		if i > 0 {
			out[i].MonthOverMonth = GrowthRate(values[i], values[i-1])
		}
	}
	return out
}

func rollingMean(values []float64, end, window int) float64 {
	start := end - window + 1
	if start < 0 {
		start = 0
	}
	return mean(values[start : end+1])
}

// SeasonalAnalysis averages each calendar month over the series and indexes
// it against the overall mean (100 = average month). Months without data are
// omitted.
func SeasonalAnalysis(series []domain.MonthlyPoint) []domain.SeasonalIndex {
	series = NormalizeSeries(series)
	overall := mean(amounts(series))

	var sums [13]float64
	var counts [13]int
	for _, p := range series {
		sums[p.Month] += p.Amount
		counts[p.Month]++
	}

	out := make([]domain.SeasonalIndex, 0, 12)
	for m := 1; m <= 12; m++ {
		if counts[m] == 0 {
			continue
		}
		avg := sums[m] / float64(counts[m])
		var index float64
		if overall != 0 {
			index = avg / overall * 100
		}
		out = append(out, domain.SeasonalIndex{
			Month:            m,
			AverageAmount:    avg,
			Observations:     counts[m],
			SeasonalityIndex: index,
			Category:         SeasonalCategoryFor(index),
		})
	}
	return out
}

// SeasonalCategoryFor labels a seasonality index.
func SeasonalCategoryFor(index float64) domain.SeasonalCategory {
	switch {
	case index > 120:
		return domain.SeasonPeak
	case index > 110:
		return domain.SeasonHigh
	case index < 80:
		return domain.SeasonLow
	case index < 90:
		return domain.SeasonSlow
	default:
		return domain.SeasonNormal
	}
}
