package domain

import "strings"

// Priority is the urgency tier of a reorder recommendation.
type Priority string

const (
	PriorityOutOfStock Priority = "OUT_OF_STOCK"
	PriorityUrgent     Priority = "URGENT"
	PriorityHigh       Priority = "HIGH"
	PriorityMedium     Priority = "MEDIUM"
	PriorityLow        Priority = "LOW"
	PriorityAdequate   Priority = "ADEQUATE"
)

var priorityRanks = map[Priority]int{
	PriorityOutOfStock: 1,
	PriorityUrgent:     2,
	PriorityHigh:       3,
	PriorityMedium:     4,
	PriorityLow:        5,
	PriorityAdequate:   6,
}

// Rank orders priorities from most to least urgent. Unknown values sort last.
func (p Priority) Rank() int {
	if rank, ok := priorityRanks[p]; ok {
		return rank
	}
	return len(priorityRanks) + 1
}

// Priorities lists every tier in rank order.
func Priorities() []Priority {
	return []Priority{
		PriorityOutOfStock,
		PriorityUrgent,
		PriorityHigh,
		PriorityMedium,
		PriorityLow,
		PriorityAdequate,
	}
}

// RiskLabel is the coarse credit risk category of a customer.
type RiskLabel string

const (
	RiskLow    RiskLabel = "LOW"
	RiskMedium RiskLabel = "MEDIUM"
	RiskHigh   RiskLabel = "HIGH"
)

// ABCClass is the Pareto class of an item.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// ParseABCClass accepts "a", "B", ... and reports whether the value was known.
func ParseABCClass(s string) (ABCClass, bool) {
	switch ABCClass(strings.ToUpper(strings.TrimSpace(s))) {
	case ClassA:
		return ClassA, true
	case ClassB:
		return ClassB, true
	case ClassC:
		return ClassC, true
	}
	return "", false
}

// StockStatus is the health status of an item's stock level.
type StockStatus string

const (
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
	StockDead       StockStatus = "DEAD_STOCK"
	StockLow        StockStatus = "LOW_STOCK"
	StockOverstock  StockStatus = "OVERSTOCK"
	StockHealthy    StockStatus = "HEALTHY"
)

// MovementCategory buckets items by days since their last sale.
type MovementCategory string

const (
	MovementNoData   MovementCategory = "NO_SALES_DATA"
	MovementDead     MovementCategory = "DEAD_STOCK"
	MovementSlow     MovementCategory = "SLOW_MOVING"
	MovementModerate MovementCategory = "MODERATE"
	MovementFast     MovementCategory = "FAST_MOVING"
)

// SeasonalCategory labels a calendar month by its seasonality index.
type SeasonalCategory string

const (
	SeasonPeak   SeasonalCategory = "Peak Season"
	SeasonHigh   SeasonalCategory = "High Season"
	SeasonNormal SeasonalCategory = "Normal"
	SeasonSlow   SeasonalCategory = "Slow Season"
	SeasonLow    SeasonalCategory = "Low Season"
)

// StockAlert flags an active item whose stock left the normal band.
type StockAlert string

const (
	AlertOutOfStock StockAlert = "OUT_OF_STOCK"
	AlertLowStock   StockAlert = "LOW_STOCK"
	AlertOverstock  StockAlert = "OVERSTOCK"
)

var alertRanks = map[StockAlert]int{
	AlertOutOfStock: 1,
	AlertLowStock:   2,
	AlertOverstock:  3,
}

// Rank puts empty shelves first. Unknown values sort last.
func (a StockAlert) Rank() int {
	if rank, ok := alertRanks[a]; ok {
		return rank
	}
	return len(alertRanks) + 1
}
