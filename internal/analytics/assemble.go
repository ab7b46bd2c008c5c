package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	dateLayout        = "2006-01-02"
	unknownSupplier   = "Unknown"
	historicalContext = 6
)

// SortOrder controls the display order of monthly records.
type SortOrder string

const (
	OrderAscending  SortOrder = "asc"
	OrderDescending SortOrder = "desc"
)

// ParseSortOrder defaults to ascending for anything but "desc".
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(OrderDescending)) {
		return OrderDescending
	}
	return OrderAscending
}

// ReorderRecord is the reorder analysis row sent to the dashboard.
type ReorderRecord struct {
	ItemID                 int64   `json:"ItemID"`
	ProductCode            string  `json:"ProductCode"`
	ProductName            string  `json:"ProductName"`
	Category               string  `json:"Category"`
	PreferredSupplier      string  `json:"PreferredSupplier"`
	SupplierCountry        string  `json:"SupplierCountry"`
	ABCClass               string  `json:"ABCClass"`
	CurrentStock           float64 `json:"CurrentStock"`
	UnitPrice              float64 `json:"UnitPrice"`
	StockValue             float64 `json:"StockValue"`
	Last30DaysSales        float64 `json:"Last30DaysSales"`
	Last90DaysSales        float64 `json:"Last90DaysSales"`
	Last180DaysSales       float64 `json:"Last180DaysSales"`
	Last365DaysSales       float64 `json:"Last365DaysSales"`
	DemandWindowDays       int     `json:"DemandWindowDays"`
	AvgDailyDemand         float64 `json:"AvgDailyDemand"`
	DemandStdDev           float64 `json:"DemandStdDev"`
	EstimatedLeadTimeDays  float64 `json:"EstimatedLeadTimeDays"`
	ServiceLevelZ          float64 `json:"ServiceLevelZ"`
	SafetyStock            float64 `json:"SafetyStock"`
	ReorderPoint           float64 `json:"ReorderPoint"`
	EOQ                    float64 `json:"EOQ"`
	DaysOfCoverage         float64 `json:"DaysOfCoverage"`
	SuggestedOrderQuantity float64 `json:"SuggestedOrderQuantity"`
	SuggestedOrderValue    float64 `json:"SuggestedOrderValue"`
	Priority               string  `json:"Priority"`
	ExpectedStockoutDate   *string `json:"ExpectedStockoutDate"`
}

// ReorderRecords maps recommendations to rows, keeping their order.
func ReorderRecords(recs []domain.ReorderRecommendation) []ReorderRecord {
	out := make([]ReorderRecord, 0, len(recs))
	for _, r := range recs {
		item := r.Item
		out = append(out, ReorderRecord{
			ItemID:                 item.ID,
			ProductCode:            item.Code,
			ProductName:            item.Description,
			Category:               item.Category,
			PreferredSupplier:      item.SupplierName,
			SupplierCountry:        item.SupplierCountry,
			ABCClass:               string(r.ABCClass),
			CurrentStock:           num(item.Quantity),
			UnitPrice:              num(item.UnitPrice),
			StockValue:             num(item.StockValue()),
			Last30DaysSales:        num(item.Last30),
			Last90DaysSales:        num(item.Last90),
			Last180DaysSales:       num(item.Last180),
			Last365DaysSales:       num(item.Last365),
			DemandWindowDays:       r.WindowDays,
			AvgDailyDemand:         num(r.AvgDailyDemand),
			DemandStdDev:           num(r.DemandStdDev),
			EstimatedLeadTimeDays:  num(r.LeadTimeDays),
			ServiceLevelZ:          num(r.ServiceLevelZ),
			SafetyStock:            num(r.SafetyStock),
			ReorderPoint:           num(r.ReorderPoint),
			EOQ:                    num(r.EOQ),
			DaysOfCoverage:         num(r.DaysOfCoverage),
			SuggestedOrderQuantity: num(r.SuggestedOrderQuantity),
			SuggestedOrderValue:    num(r.SuggestedOrderValue),
			Priority:               string(r.Priority),
			ExpectedStockoutDate:   formatDate(r.ExpectedStockoutDate),
		})
	}
	return out
}

// SummarizeReorder totals the recommendations that need an order. Money is
// summed in decimal so totals do not depend on row order.
func SummarizeReorder(recs []domain.ReorderRecommendation) domain.ReorderSummary {
	type group struct {
		value decimal.Decimal
		count int
	}

	var summary domain.ReorderSummary
	total := decimal.Zero
	bySupplier := make(map[string]*group)
	byPriority := make(map[domain.Priority]*group)

	for _, r := range recs {
		if !r.NeedsOrder() {
			continue
		}
		value := decimal.NewFromFloat(num(r.SuggestedOrderValue))

		summary.TotalItemsToReorder++
		switch r.Priority {
		case domain.PriorityOutOfStock, domain.PriorityUrgent:
			summary.UrgentItems++
		case domain.PriorityHigh:
			summary.HighPriorityItems++
		}
		total = total.Add(value)

		supplier := strings.TrimSpace(r.Item.SupplierName)
		if supplier == "" {
			supplier = unknownSupplier
		}
		if bySupplier[supplier] == nil {
			bySupplier[supplier] = &group{value: decimal.Zero}
		}
		bySupplier[supplier].value = bySupplier[supplier].value.Add(value)
		bySupplier[supplier].count++

		if byPriority[r.Priority] == nil {
			byPriority[r.Priority] = &group{value: decimal.Zero}
		}
		byPriority[r.Priority].value = byPriority[r.Priority].value.Add(value)
		byPriority[r.Priority].count++
	}

	summary.TotalOrderValue = total.Round(2).InexactFloat64()

	summary.BySupplier = make([]domain.OrderTotal, 0, len(bySupplier))
	for name, g := range bySupplier {
		summary.BySupplier = append(summary.BySupplier, domain.OrderTotal{
			Key:        name,
			OrderValue: g.value.Round(2).InexactFloat64(),
			ItemCount:  g.count,
		})
	}
	sort.Slice(summary.BySupplier, func(i, j int) bool {
		a, b := summary.BySupplier[i], summary.BySupplier[j]
		if a.OrderValue != b.OrderValue {
			return a.OrderValue > b.OrderValue
		}
		return a.Key < b.Key
	})

	summary.ByPriority = make([]domain.OrderTotal, 0, len(byPriority))
	for _, p := range domain.Priorities() {
		if g, ok := byPriority[p]; ok {
			summary.ByPriority = append(summary.ByPriority, domain.OrderTotal{
				Key:        string(p),
				OrderValue: g.value.Round(2).InexactFloat64(),
				ItemCount:  g.count,
			})
		}
	}

	return summary
}

// ConfidenceInterval bounds a projected month.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ComponentForecasts are the per-method projections behind an ensemble value.
type ComponentForecasts struct {
	Trend         float64 `json:"trend"`
	Seasonal      float64 `json:"seasonal"`
	Exponential   float64 `json:"exponential"`
	MovingAverage float64 `json:"movingAverage"`
}

// ForecastRecord is either an actual month (IsHistorical) or a projection.
type ForecastRecord struct {
	Year               int                 `json:"Year"`
	Month              int                 `json:"Month"`
	Currency           string              `json:"Currency"`
	ActualPayments     *float64            `json:"ActualPayments"`
	ForecastedPayments *float64            `json:"ForecastedPayments"`
	IsHistorical       bool                `json:"IsHistorical"`
	ConfidenceInterval *ConfidenceInterval `json:"ConfidenceInterval"`
	ComponentForecasts *ComponentForecasts `json:"ComponentForecasts"`
}

// ForecastRecords emits the trailing six actual months followed by the
// projections, in the requested display order.
func ForecastRecords(history []domain.MonthlyPoint, points []domain.ForecastPoint, currency string, order SortOrder) []ForecastRecord {
	trailing := TrailingMonths(history, historicalContext)
	out := make([]ForecastRecord, 0, len(trailing)+len(points))

	for _, p := range trailing {
		actual := num(p.Amount)
		out = append(out, ForecastRecord{
			Year:           p.Year,
			Month:          p.Month,
			Currency:       currency,
			ActualPayments: &actual,
			IsHistorical:   true,
		})
	}

	for _, p := range points {
		ensemble := num(p.Ensemble)
		out = append(out, ForecastRecord{
			Year:               p.Year,
			Month:              p.Month,
			Currency:           currency,
			ForecastedPayments: &ensemble,
			ConfidenceInterval: &ConfidenceInterval{Lower: num(p.Lower), Upper: num(p.Upper)},
			ComponentForecasts: &ComponentForecasts{
				Trend:         num(p.Trend),
				Seasonal:      num(p.Seasonal),
				Exponential:   num(p.Exponential),
				MovingAverage: num(p.MovingAverage),
			},
		})
	}

	if order == OrderDescending {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Year != out[j].Year {
				return out[i].Year > out[j].Year
			}
			return out[i].Month > out[j].Month
		})
	}
	return out
}

// CreditRiskRecord is a customer's risk row. A missing overdue percentage is
// reported as 0.
type CreditRiskRecord struct {
	Name              string  `json:"Name"`
	CurrentBalance    float64 `json:"CurrentBalance"`
	OverdueAmount     float64 `json:"OverdueAmount"`
	OverduePercentage float64 `json:"OverduePercentage"`
	RiskScore         int     `json:"RiskScore"`
	RiskLevel         string  `json:"RiskLevel"`
}

// CreditRiskRecords maps profiles to rows, keeping their order.
func CreditRiskRecords(profiles []domain.CustomerRiskProfile) []CreditRiskRecord {
	out := make([]CreditRiskRecord, 0, len(profiles))
	for _, p := range profiles {
		pct, _ := finite(p.OverduePercentage)
		out = append(out, CreditRiskRecord{
			Name:              p.Name,
			CurrentBalance:    num(p.CurrentBalance),
			OverdueAmount:     num(p.OverdueAmount),
			OverduePercentage: pct,
			RiskScore:         p.RiskScore,
			RiskLevel:         string(p.RiskLabel),
		})
	}
	return out
}

// ABCRecord is an item's Pareto class row.
type ABCRecord struct {
	ItemID               int64   `json:"ItemID"`
	ProductCode          string  `json:"ProductCode"`
	ProductName          string  `json:"ProductName"`
	Category             string  `json:"Category"`
	CurrentStock         float64 `json:"CurrentStock"`
	StockValue           float64 `json:"StockValue"`
	SalesValue           float64 `json:"SalesValue"`
	SalesPercentage      float64 `json:"SalesPercentage"`
	CumulativePercentage float64 `json:"CumulativePercentage"`
	ABCClass             string  `json:"ABCClass"`
}

func ABCRecords(items []domain.ABCItem) []ABCRecord {
	out := make([]ABCRecord, 0, len(items))
	for _, a := range items {
		out = append(out, ABCRecord{
			ItemID:               a.Item.ID,
			ProductCode:          a.Item.Code,
			ProductName:          a.Item.Description,
			Category:             a.Item.Category,
			CurrentStock:         num(a.Item.Quantity),
			StockValue:           num(a.Item.StockValue()),
			SalesValue:           num(a.SalesValue),
			SalesPercentage:      num(a.SalesPercentage),
			CumulativePercentage: num(a.CumulativePercentage),
			ABCClass:             string(a.Class),
		})
	}
	return out
}

// StockHealthRecord is an item's stock health row.
type StockHealthRecord struct {
	ItemID            int64   `json:"ItemID"`
	ProductCode       string  `json:"ProductCode"`
	ProductName       string  `json:"ProductName"`
	Category          string  `json:"Category"`
	CurrentStock      float64 `json:"CurrentStock"`
	StockValue        float64 `json:"StockValue"`
	AvgMonthlySales   float64 `json:"AvgMonthlySales"`
	MonthsOfInventory float64 `json:"MonthsOfInventory"`
	StockStatus       string  `json:"StockStatus"`
}

func StockHealthRecords(items []domain.StockHealthItem) []StockHealthRecord {
	out := make([]StockHealthRecord, 0, len(items))
	for _, h := range items {
		out = append(out, StockHealthRecord{
			ItemID:            h.Item.ID,
			ProductCode:       h.Item.Code,
			ProductName:       h.Item.Description,
			Category:          h.Item.Category,
			CurrentStock:      num(h.Item.Quantity),
			StockValue:        num(h.Item.StockValue()),
			AvgMonthlySales:   num(h.AvgMonthlySales),
			MonthsOfInventory: num(h.MonthsOfInventory),
			StockStatus:       string(h.Status),
		})
	}
	return out
}

// SlowMovingRecord is an item's movement row. Dates use YYYY-MM-DD.
type SlowMovingRecord struct {
	ItemID              int64   `json:"ItemID"`
	ProductCode         string  `json:"ProductCode"`
	ProductName         string  `json:"ProductName"`
	Category            string  `json:"Category"`
	CurrentStock        float64 `json:"CurrentStock"`
	StockValue          float64 `json:"StockValue"`
	LastSaleDate        *string `json:"LastSaleDate"`
	DaysSinceLastSale   *int    `json:"DaysSinceLastSale"`
	MovementCategory    string  `json:"MovementCategory"`
	MonthlyCarryingCost float64 `json:"MonthlyCarryingCost"`
	AnnualCarryingCost  float64 `json:"AnnualCarryingCost"`
}

func SlowMovingRecords(items []domain.SlowMovingItem) []SlowMovingRecord {
	out := make([]SlowMovingRecord, 0, len(items))
	for _, s := range items {
		out = append(out, SlowMovingRecord{
			ItemID:              s.Item.ID,
			ProductCode:         s.Item.Code,
			ProductName:         s.Item.Description,
			Category:            s.Item.Category,
			CurrentStock:        num(s.Item.Quantity),
			StockValue:          num(s.Item.StockValue()),
			LastSaleDate:        formatDate(s.Item.LastSaleDate),
			DaysSinceLastSale:   s.DaysSinceLastSale,
			MovementCategory:    string(s.Category),
			MonthlyCarryingCost: num(s.MonthlyCarryingCost),
			AnnualCarryingCost:  num(s.AnnualCarryingCost),
		})
	}
	return out
}

// SupplierRecord is a supplier's performance row.
type SupplierRecord struct {
	SupplierName          string   `json:"SupplierName"`
	Country               string   `json:"Country"`
	TotalOrders           int      `json:"TotalOrders"`
	ProductCount          int      `json:"ProductCount"`
	CurrentStockValue     float64  `json:"CurrentStockValue"`
	AvgLeadTimeDays       *float64 `json:"AvgLeadTimeDays"`
	EstimatedLeadTimeDays float64  `json:"EstimatedLeadTimeDays"`
	TotalPurchaseValue    float64  `json:"TotalPurchaseValue"`
}

// SupplierRecords orders suppliers by current stock value, highest first.
// EstimatedLeadTimeDays is the lead time the reorder calculator would use.
func SupplierRecords(profiles []domain.SupplierProfile) []SupplierRecord {
	out := make([]SupplierRecord, 0, len(profiles))
	for _, p := range profiles {
		estimated := CountryLeadTimeDays(p.Country)
		avg := p.AvgLeadTimeDays
		if v, ok := finite(avg); ok && v > 0 {
			estimated = v
		} else if !ok {
			avg = nil
		}
		out = append(out, SupplierRecord{
			SupplierName:          p.Name,
			Country:               p.Country,
			TotalOrders:           p.TotalOrders,
			ProductCount:          p.ProductCount,
			CurrentStockValue:     num(p.CurrentStockValue),
			AvgLeadTimeDays:       avg,
			EstimatedLeadTimeDays: estimated,
			TotalPurchaseValue:    num(p.TotalPurchaseValue),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CurrentStockValue > out[j].CurrentStockValue
	})
	return out
}

// CashFlowRecord is one month of payments with its smoothing and growth.
type CashFlowRecord struct {
	Year           int     `json:"Year"`
	Month          int     `json:"Month"`
	MonthYear      string  `json:"MonthYear"`
	ActualPayments float64 `json:"ActualPayments"`
	MovingAvg3     float64 `json:"MovingAvg3"`
	MovingAvg6     float64 `json:"MovingAvg6"`
	MonthOverMonth float64 `json:"MonthOverMonth"`
}

func CashFlowRecords(points []domain.CashFlowPoint) []CashFlowRecord {
	out := make([]CashFlowRecord, 0, len(points))
	for _, p := range points {
		out = append(out, CashFlowRecord{
			Year:           p.Year,
			Month:          p.Month,
			MonthYear:      fmt.Sprintf("%d-%02d", p.Year, p.Month),
			ActualPayments: num(p.Amount),
			MovingAvg3:     num(p.MovingAvg3),
			MovingAvg6:     num(p.MovingAvg6),
			MonthOverMonth: num(p.MonthOverMonth),
		})
	}
	return out
}

// SeasonalRecord is the seasonality of one calendar month.
type SeasonalRecord struct {
	Month            int     `json:"Month"`
	MonthName        string  `json:"MonthName"`
	AverageAmount    float64 `json:"AverageAmount"`
	Observations     int     `json:"Observations"`
	SeasonalityIndex float64 `json:"SeasonalityIndex"`
	SeasonalCategory string  `json:"SeasonalCategory"`
}

func SeasonalRecords(indices []domain.SeasonalIndex) []SeasonalRecord {
	out := make([]SeasonalRecord, 0, len(indices))
	for _, s := range indices {
		out = append(out, SeasonalRecord{
			Month:            s.Month,
			MonthName:        time.Month(s.Month).String(),
			AverageAmount:    num(s.AverageAmount),
			Observations:     s.Observations,
			SeasonalityIndex: num(s.SeasonalityIndex),
			SeasonalCategory: string(s.Category),
		})
	}
	return out
}

// AgingRecord is a customer's receivables split into aging buckets.
type AgingRecord struct {
	Name         string  `json:"Name"`
	TotalBalance float64 `json:"TotalBalance"`
	Current      float64 `json:"Current"`
	Days30       float64 `json:"Days_30"`
	Days60       float64 `json:"Days_60"`
	Days90Plus   float64 `json:"Days_90_Plus"`
}

func AgingRecords(items []domain.ReceivablesAging) []AgingRecord {
	out := make([]AgingRecord, 0, len(items))
	for _, a := range items {
		out = append(out, AgingRecord{
			Name:         a.Name,
			TotalBalance: num(a.TotalBalance),
			Current:      num(a.Current),
			Days30:       num(a.Days30),
			Days60:       num(a.Days60),
			Days90Plus:   num(a.Days90Plus),
		})
	}
	return out
}

// StockAlertRecord is an active item whose stock needs attention.
type StockAlertRecord struct {
	ItemID       int64   `json:"ItemID"`
	ProductCode  string  `json:"ProductCode"`
	ProductName  string  `json:"ProductName"`
	Category     string  `json:"Category"`
	CurrentStock float64 `json:"CurrentStock"`
	AlertType    string  `json:"AlertType"`
}

func StockAlertRecords(items []domain.StockAlertItem) []StockAlertRecord {
	out := make([]StockAlertRecord, 0, len(items))
	for _, a := range items {
		out = append(out, StockAlertRecord{
			ItemID:       a.Item.ID,
			ProductCode:  a.Item.Code,
			ProductName:  a.Item.Description,
			Category:     a.Item.Category,
			CurrentStock: num(a.Item.Quantity),
			AlertType:    string(a.Alert),
		})
	}
	return out
}

// CategoryRecord is a category's share of the in-stock inventory value.
type CategoryRecord struct {
	Category        string  `json:"Category"`
	ProductCount    int     `json:"ProductCount"`
	TotalQuantity   float64 `json:"TotalQuantity"`
	TotalValue      float64 `json:"TotalValue"`
	AvgUnitPrice    float64 `json:"AvgUnitPrice"`
	ValuePercentage float64 `json:"ValuePercentage"`
}

func CategoryRecords(summaries []domain.CategorySummary) []CategoryRecord {
	out := make([]CategoryRecord, 0, len(summaries))
	for _, c := range summaries {
		out = append(out, CategoryRecord{
			Category:        c.Category,
			ProductCount:    c.ProductCount,
			TotalQuantity:   num(c.TotalQuantity),
			TotalValue:      num(c.TotalValue),
			AvgUnitPrice:    num(c.AvgUnitPrice),
			ValuePercentage: num(c.ValuePercentage),
		})
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// num keeps NaN and Inf out of JSON output.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
