package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
)

const maxRiskScore = 100

// CreditRiskScore adds overdue and balance points and caps the sum at 100.
// A missing or NaN overdue percentage contributes nothing.
func CreditRiskScore(b domain.CustomerBalance) int {
	score := 0

	if pct, ok := finite(b.OverduePercentage); ok {
		switch {
		case pct > 50:
			score += 40
		case pct > 20:
			score += 20
		case pct > 10:
			score += 10
		}
	}

	switch {
	case b.CurrentBalance > 1_000_000:
		score += 30
	case b.CurrentBalance > 500_000:
		score += 20
	case b.CurrentBalance > 100_000:
		score += 10
	}

	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}

// CreditRiskLabel is computed from the overdue percentage alone and does not
// follow the score buckets.
func CreditRiskLabel(overduePercentage *float64) domain.RiskLabel {
	pct, ok := finite(overduePercentage)
	if !ok {
		return domain.RiskLow
	}
	switch {
	case pct > 50:
		return domain.RiskHigh
	case pct > 20:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// AssessCreditRisk scores every balance. Results are ordered by score, then
// by balance, both descending.
func AssessCreditRisk(balances []domain.CustomerBalance) []domain.CustomerRiskProfile {
	profiles := make([]domain.CustomerRiskProfile, 0, len(balances))
	for _, b := range balances {
		profiles = append(profiles, domain.CustomerRiskProfile{
			CustomerBalance: b,
			RiskScore:       CreditRiskScore(b),
			RiskLabel:       CreditRiskLabel(b.OverduePercentage),
		})
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].RiskScore != profiles[j].RiskScore {
			return profiles[i].RiskScore > profiles[j].RiskScore
		}
		return profiles[i].CurrentBalance > profiles[j].CurrentBalance
	})

	return profiles
}

// ABCThresholds are the cumulative sales percentages closing classes A and B.
type ABCThresholds struct {
	A float64
	B float64
}

// DefaultABCThresholds returns the 80/95 Pareto split.
func DefaultABCThresholds() ABCThresholds {
	return ABCThresholds{A: 80, B: 95}
}

// ClassifyABC ranks items by trailing twelve-month sales value and assigns a
// class from the running cumulative percentage. Ties keep item ID order.
func ClassifyABC(items []domain.StockSnapshot, th ABCThresholds) []domain.ABCItem {
	ranked := make([]domain.ABCItem, 0, len(items))
	var total float64
	for _, item := range items {
		value := nonNegative(item.Last365Value)
		total += value
		ranked = append(ranked, domain.ABCItem{Item: item, SalesValue: value})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].SalesValue != ranked[j].SalesValue {
			return ranked[i].SalesValue > ranked[j].SalesValue
		}
		return ranked[i].Item.ID < ranked[j].Item.ID
	})

	var running float64
	for i := range ranked {
		running += ranked[i].SalesValue
		if total > 0 {
			ranked[i].SalesPercentage = ranked[i].SalesValue * 100 / total
			ranked[i].CumulativePercentage = math.Min(running*100/total, 100)
		}

		switch {
		case ranked[i].CumulativePercentage <= th.A:
			ranked[i].Class = domain.ClassA
		case ranked[i].CumulativePercentage <= th.B:
			ranked[i].Class = domain.ClassB
		default:
			ranked[i].Class = domain.ClassC
		}
	}

	return ranked
}

// ABCCandidates keeps the items that take part in ABC ranking: in stock and
// not discontinued.
func ABCCandidates(items []domain.StockSnapshot) []domain.StockSnapshot {
	out := make([]domain.StockSnapshot, 0, len(items))
	for _, item := range items {
		if item.Quantity > 0 && !item.Discontinued {
			out = append(out, item)
		}
	}
	return out
}

// ClassifyActiveABC ranks the ABC candidates of a snapshot. Every consumer of
// ABC classes goes through it so they agree on the population.
func ClassifyActiveABC(items []domain.StockSnapshot, th ABCThresholds) []domain.ABCItem {
	return ClassifyABC(ABCCandidates(items), th)
}

// ABCClassIndex maps item IDs to their class.
func ABCClassIndex(items []domain.ABCItem) map[int64]domain.ABCClass {
	index := make(map[int64]domain.ABCClass, len(items))
	for _, item := range items {
		index[item.Item.ID] = item.Class
	}
	return index
}

// AvgMonthlySales uses the trailing 180 days spread over six months.
func AvgMonthlySales(item domain.StockSnapshot) float64 {
	return nonNegative(item.Last180) / 6
}

// StockHealthStatus evaluates the rules in order and returns the first match.
func StockHealthStatus(stock, avgMonthlySales float64) domain.StockStatus {
	switch {
	case stock <= 0:
		return domain.StockOutOfStock
	case avgMonthlySales <= 0:
		return domain.StockDead
	case stock/avgMonthlySales < 1:
		return domain.StockLow
	case stock/avgMonthlySales > 6:
		return domain.StockOverstock
	default:
		return domain.StockHealthy
	}
}

// ClassifyStockHealth returns one health entry per item in input order.
func ClassifyStockHealth(items []domain.StockSnapshot) []domain.StockHealthItem {
	out := make([]domain.StockHealthItem, 0, len(items))
	for _, item := range items {
		avg := AvgMonthlySales(item)
		entry := domain.StockHealthItem{
			Item:            item,
			AvgMonthlySales: avg,
			Status:          StockHealthStatus(item.Quantity, avg),
		}
		if avg > 0 {
			entry.MonthsOfInventory = item.Quantity / avg
		}
		out = append(out, entry)
	}
	return out
}

// monthlyCarryingRate is the share of stock value spent per month holding it.
const monthlyCarryingRate = 0.02

// MovementCategoryFor buckets items by days since their last sale.
func MovementCategoryFor(daysSinceLastSale *int) domain.MovementCategory {
	if daysSinceLastSale == nil {
		return domain.MovementNoData
	}
	switch days := *daysSinceLastSale; {
	case days > 365:
		return domain.MovementDead
	case days > 180:
		return domain.MovementSlow
	case days > 90:
		return domain.MovementModerate
	default:
		return domain.MovementFast
	}
}

// ClassifyMovement computes movement categories and carrying costs for items
// holding stock. Items are ordered by monthly carrying cost, highest first.
func ClassifyMovement(items []domain.StockSnapshot, now time.Time) []domain.SlowMovingItem {
	out := make([]domain.SlowMovingItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}

		var days *int
		if item.LastSaleDate != nil {
			d := int(now.Sub(*item.LastSaleDate).Hours() / 24)
			if d < 0 {
				d = 0
			}
			days = &d
		}

		monthly := item.StockValue() * monthlyCarryingRate
		out = append(out, domain.SlowMovingItem{
			Item:                item,
			DaysSinceLastSale:   days,
			Category:            MovementCategoryFor(days),
			MonthlyCarryingCost: monthly,
			AnnualCarryingCost:  monthly * 12,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MonthlyCarryingCost > out[j].MonthlyCarryingCost
	})
	return out
}

// ComputeInventoryKPIs summarizes the catalogue. Turnover is 0 and days in
// inventory 365 when there is no stock value or no sales.
func ComputeInventoryKPIs(items []domain.StockSnapshot, now time.Time) domain.InventoryKPIs {
	var kpis domain.InventoryKPIs
	for _, item := range items {
		kpis.TotalProducts++
		if item.Quantity > 0 {
			kpis.ActiveProducts++
		} else {
			kpis.OutOfStockProducts++
		}
		kpis.CurrentValue += item.StockValue()
		kpis.AnnualSalesValue += nonNegative(item.Last365Value)
	}

	for _, moving := range ClassifyMovement(items, now) {
		if moving.Category == domain.MovementDead || moving.Category == domain.MovementNoData {
			kpis.DeadStockValue += moving.Item.StockValue()
		}
	}

	kpis.TurnoverRatio = InventoryTurnover(kpis.AnnualSalesValue, kpis.CurrentValue)
	kpis.DaysInInventory = DaysInInventory(kpis.TurnoverRatio)
	kpis.MonthlyCarryingCost = kpis.CurrentValue * monthlyCarryingRate
	return kpis
}

// InventoryTurnover is annual sales over inventory value, 0 without inventory.
func InventoryTurnover(annualSales, inventoryValue float64) float64 {
	if inventoryValue <= 0 {
		return 0
	}
	return annualSales / inventoryValue
}

// DaysInInventory converts a turnover ratio to days, 365 when turnover is 0.
func DaysInInventory(turnover float64) float64 {
	if turnover <= 0 {
		return 365
	}
	return 365 / turnover
}

func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// Overdue shares of the balance closing the 30 and 60 day aging buckets.
const (
	agingDays30Share = 0.3
	agingDays60Share = 0.6
)

// AgeReceivables buckets every positive balance, largest first. A balance with
// nothing overdue is entirely current; otherwise the overdue amount goes to
// the bucket matching its share of the balance.
func AgeReceivables(balances []domain.CustomerBalance) []domain.ReceivablesAging {
	out := make([]domain.ReceivablesAging, 0, len(balances))
	for _, b := range balances {
		if !(b.CurrentBalance > 0) {
			continue
		}

		aging := domain.ReceivablesAging{Name: b.Name, TotalBalance: b.CurrentBalance}
		due := nonNegative(b.OverdueAmount)
		switch {
		case due == 0:
			aging.Current = b.CurrentBalance
		case due <= b.CurrentBalance*agingDays30Share:
			aging.Days30 = due
		case due <= b.CurrentBalance*agingDays60Share:
			aging.Days60 = due
		default:
			aging.Days90Plus = due
		}
		out = append(out, aging)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalBalance > out[j].TotalBalance
	})
	return out
}

// Units on hand bounding the normal stock band of an alert.
const (
	lowStockUnits  = 10
	overstockUnits = 1000
)

// StockAlertFor reports the alert raised by a stock level, if any.
func StockAlertFor(quantity float64) (domain.StockAlert, bool) {
	switch {
	case quantity <= 0:
		return domain.AlertOutOfStock, true
	case quantity < lowStockUnits:
		return domain.AlertLowStock, true
	case quantity > overstockUnits:
		return domain.AlertOverstock, true
	}
	return "", false
}

// StockAlerts lists the active items raising an alert: out of stock first,
// then low stock, then overstock. Ties keep item ID order.
func StockAlerts(items []domain.StockSnapshot) []domain.StockAlertItem {
	out := make([]domain.StockAlertItem, 0)
	for _, item := range items {
		if item.Discontinued {
			continue
		}
		if alert, ok := StockAlertFor(item.Quantity); ok {
			out = append(out, domain.StockAlertItem{Item: item, Alert: alert})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Alert.Rank() != out[j].Alert.Rank() {
			return out[i].Alert.Rank() < out[j].Alert.Rank()
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// AnalyzeCategories groups the ABC candidates by category, most valuable
// category first. Items without a category are grouped under "".
func AnalyzeCategories(items []domain.StockSnapshot) []domain.CategorySummary {
	byName := make(map[string]*domain.CategorySummary)
	priceSums := make(map[string]float64)
	order := make([]string, 0)
	var total float64

	for _, item := range ABCCandidates(items) {
		summary, ok := byName[item.Category]
		if !ok {
			summary = &domain.CategorySummary{Category: item.Category}
			byName[item.Category] = summary
			order = append(order, item.Category)
		}
		value := nonNegative(item.StockValue())
		summary.ProductCount++
		summary.TotalQuantity += item.Quantity
		summary.TotalValue += value
		priceSums[item.Category] += item.UnitPrice
		total += value
	}

	out := make([]domain.CategorySummary, 0, len(order))
	for _, name := range order {
		summary := byName[name]
		summary.AvgUnitPrice = priceSums[name] / float64(summary.ProductCount)
		if total > 0 {
			summary.ValuePercentage = summary.TotalValue * 100 / total
		}
		out = append(out, *summary)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Category < out[j].Category
	})
	return out
}
