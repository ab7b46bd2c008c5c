package analytics

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderRecordsShape(t *testing.T) {
	calc := newCalculator(t, DefaultReorderConfig())
	recs := calc.Analyze([]domain.StockSnapshot{
		reorderItem(1, 50, 10, 180, "China"),
		reorderItem(2, 5000, 10, 90, "China"),
	}, nil, analysisDate)

	records := ReorderRecords(recs)
	require.Len(t, records, 2)
	assert.Equal(t, "HIGH", records[0].Priority)
	require.NotNil(t, records[0].ExpectedStockoutDate)
	assert.Equal(t, "2024-04-09", *records[0].ExpectedStockoutDate)
	assert.Equal(t, 60.0, records[0].EstimatedLeadTimeDays)

	raw, err := json.Marshal(records[0])
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"Priority", "SuggestedOrderQuantity", "ReorderPoint", "DaysOfCoverage", "ExpectedStockoutDate"} {
		assert.Contains(t, decoded, key)
	}
}

func TestReorderRecordsDefaultMalformedNumbers(t *testing.T) {
	rec := domain.ReorderRecommendation{
		Item:           reorderItem(1, 10, 10, 10, ""),
		AvgDailyDemand: math.NaN(),
		EOQ:            math.Inf(1),
		Priority:       domain.PriorityLow,
	}
	records := ReorderRecords([]domain.ReorderRecommendation{rec})
	require.Len(t, records, 1)
	assert.Zero(t, records[0].AvgDailyDemand)
	assert.Zero(t, records[0].EOQ)
	assert.Nil(t, records[0].ExpectedStockoutDate)

	_, err := json.Marshal(records)
	assert.NoError(t, err)
}

func TestSummarizeReorder(t *testing.T) {
	mk := func(supplier string, p domain.Priority, qty, value float64) domain.ReorderRecommendation {
		r := domain.ReorderRecommendation{Priority: p, SuggestedOrderQuantity: qty, SuggestedOrderValue: value}
		r.Item.SupplierName = supplier
		return r
	}

	summary := SummarizeReorder([]domain.ReorderRecommendation{
		mk("Acme", domain.PriorityOutOfStock, 10, 100.10),
		mk("Acme", domain.PriorityUrgent, 5, 50.20),
		mk("Bolt", domain.PriorityHigh, 3, 0.30),
		mk("", domain.PriorityLow, 1, 1000),
		mk("Bolt", domain.PriorityAdequate, 0, 0),
	})

	assert.Equal(t, 4, summary.TotalItemsToReorder)
	assert.Equal(t, 2, summary.UrgentItems)
	assert.Equal(t, 1, summary.HighPriorityItems)
	assert.Equal(t, 1150.6, summary.TotalOrderValue)

	require.Len(t, summary.BySupplier, 3)
	assert.Equal(t, domain.OrderTotal{Key: "Unknown", OrderValue: 1000, ItemCount: 1}, summary.BySupplier[0])
	assert.Equal(t, domain.OrderTotal{Key: "Acme", OrderValue: 150.3, ItemCount: 2}, summary.BySupplier[1])

	keys := make([]string, 0, len(summary.ByPriority))
	for _, g := range summary.ByPriority {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"OUT_OF_STOCK", "URGENT", "HIGH", "LOW"}, keys)
}

func TestForecastRecords(t *testing.T) {
	history := monthlySeries(2023, 1, 10, 20, 30, 40, 50, 60, 70, 80)
	points := Forecast(history, 3, time.Now())

	records := ForecastRecords(history, points, "USD", OrderAscending)
	require.Len(t, records, 9)

	for _, r := range records[:6] {
		assert.True(t, r.IsHistorical)
		assert.NotNil(t, r.ActualPayments)
		assert.Nil(t, r.ForecastedPayments)
		assert.Nil(t, r.ConfidenceInterval)
	}
	assert.Equal(t, 3, records[0].Month)
	assert.Equal(t, 30.0, *records[0].ActualPayments)

	last := records[8]
	assert.False(t, last.IsHistorical)
	assert.Nil(t, last.ActualPayments)
	require.NotNil(t, last.ForecastedPayments)
	require.NotNil(t, last.ConfidenceInterval)
	require.NotNil(t, last.ComponentForecasts)
	assert.LessOrEqual(t, last.ConfidenceInterval.Lower, *last.ForecastedPayments)
	assert.Equal(t, 11, last.Month)

	desc := ForecastRecords(history, points, "USD", OrderDescending)
	assert.Equal(t, 11, desc[0].Month)
	assert.Equal(t, 3, desc[len(desc)-1].Month)
}

func TestForecastRecordsJSONKeys(t *testing.T) {
	points := Forecast(monthlySeries(2024, 1, 1, 2, 3), 1, time.Now())
	raw, err := json.Marshal(ForecastRecords(nil, points, "ARS", OrderAscending)[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Year": 2024, "Month": 4, "Currency": "ARS",
		"ActualPayments": null,
		"ForecastedPayments": `+jsonNumber(points[0].Ensemble)+`,
		"IsHistorical": false,
		"ConfidenceInterval": {"lower": `+jsonNumber(points[0].Lower)+`, "upper": `+jsonNumber(points[0].Upper)+`},
		"ComponentForecasts": {"trend": `+jsonNumber(points[0].Trend)+`, "seasonal": `+jsonNumber(points[0].Seasonal)+`, "exponential": `+jsonNumber(points[0].Exponential)+`, "movingAverage": `+jsonNumber(points[0].MovingAverage)+`}
	}`, string(raw))
}

func TestCreditRiskRecordsDefaultMissingPercentage(t *testing.T) {
	records := CreditRiskRecords(AssessCreditRisk([]domain.CustomerBalance{{Name: "zero", CurrentBalance: 0}}))
	require.Len(t, records, 1)
	assert.Zero(t, records[0].OverduePercentage)
	assert.Equal(t, "LOW", records[0].RiskLevel)
}

func TestSupplierRecords(t *testing.T) {
	lead := 42.0
	records := SupplierRecords([]domain.SupplierProfile{
		{Name: "Small", Country: "India", CurrentStockValue: 10},
		{Name: "Big", Country: "China", CurrentStockValue: 1000, AvgLeadTimeDays: &lead},
	})
	require.Len(t, records, 2)
	assert.Equal(t, "Big", records[0].SupplierName)
	assert.Equal(t, 42.0, records[0].EstimatedLeadTimeDays)
	assert.Equal(t, 45.0, records[1].EstimatedLeadTimeDays)
	assert.Nil(t, records[1].AvgLeadTimeDays)
}

func TestSeasonalRecordsMonthNames(t *testing.T) {
	records := SeasonalRecords([]domain.SeasonalIndex{{Month: 3, SeasonalityIndex: 100, Category: domain.SeasonNormal}})
	require.Len(t, records, 1)
	assert.Equal(t, "March", records[0].MonthName)
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, OrderDescending, ParseSortOrder("DESC"))
	assert.Equal(t, OrderAscending, ParseSortOrder(""))
	assert.Equal(t, OrderAscending, ParseSortOrder("sideways"))
}

func jsonNumber(v float64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
