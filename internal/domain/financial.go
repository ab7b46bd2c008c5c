package domain

import (
	"fmt"
	"strings"
)

// CustomerBalance is a customer's outstanding and overdue balance.
// OverduePercentage is nil when the balance is zero.
type CustomerBalance struct {
	Name              string   `json:"name" db:"name"`
	CurrentBalance    float64  `json:"current_balance" db:"current_balance"`
	OverdueAmount     float64  `json:"overdue_amount" db:"overdue_amount"`
	OverduePercentage *float64 `json:"overdue_percentage" db:"overdue_percentage"`
}

// ReceivablesAging splits a customer's balance into aging buckets. The
// overdue amount lands in one bucket chosen by its share of the balance.
type ReceivablesAging struct {
	Name         string
	TotalBalance float64
	Current      float64
	Days30       float64
	Days60       float64
	Days90Plus   float64
}

// CustomerRiskProfile is a balance with its credit risk assessment.
type CustomerRiskProfile struct {
	CustomerBalance
	RiskScore int       `json:"risk_score"`
	RiskLabel RiskLabel `json:"risk_label"`
}

// MonthlyPoint is the total of a series for one calendar month.
type MonthlyPoint struct {
	Year   int     `json:"year" db:"year"`
	Month  int     `json:"month" db:"month"`
	Amount float64 `json:"amount" db:"amount"`
}

// Valid reports whether Month is a calendar month.
func (p MonthlyPoint) Valid() bool {
	return p.Month >= 1 && p.Month <= 12
}

// ForecastPoint is one projected month with every component model's value.
type ForecastPoint struct {
	Year          int
	Month         int
	Trend         float64
	Seasonal      float64
	Exponential   float64
	MovingAverage float64
	Ensemble      float64
	Lower         float64
	Upper         float64
}

// CashFlowPoint is a month of payments with smoothing and growth.
type CashFlowPoint struct {
	MonthlyPoint
	MovingAvg3     float64
	MovingAvg6     float64
	MonthOverMonth float64
}

// SeasonalIndex describes one calendar month relative to the overall mean.
type SeasonalIndex struct {
	Month            int
	AverageAmount    float64
	Observations     int
	SeasonalityIndex float64
	Category         SeasonalCategory
}

// SeriesSource identifies a monthly series and the database it comes from.
// Amounts are multiplied by TaxMultiplier when read so that every series is
// reported gross of tax in its own Currency.
type SeriesSource struct {
	Name          string
	Database      string
	Currency      string
	TaxMultiplier float64
}

const (
	DatabaseTransactional = "transactional"
	DatabaseERP           = "erp"
)

var (
	// PaymentsSource is customer payments from the transactional store.
	PaymentsSource = SeriesSource{Name: "payments", Database: DatabaseTransactional, Currency: "USD", TaxMultiplier: 1}
	// RevenueSource is invoiced sales from the ERP, stored net of 21% VAT.
	RevenueSource = SeriesSource{Name: "revenue", Database: DatabaseERP, Currency: "ARS", TaxMultiplier: 1.21}
)

// ParseSeriesSource resolves a series by name.
func ParseSeriesSource(name string) (SeriesSource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PaymentsSource.Name:
		return PaymentsSource, nil
	case RevenueSource.Name:
		return RevenueSource, nil
	}
	return SeriesSource{}, fmt.Errorf("%w: unknown series %q", ErrInvalidParameter, name)
}
