package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
)

const (
	// CoverageSentinel stands in for unbounded days of coverage.
	CoverageSentinel = 999.0

	orderCost           = 100.0
	holdingRateFraction = 0.25
	countryServiceZ     = 1.65
	demandDispersion    = 1.5
	daysPerYear         = 365.0
)

// LeadTimeMode selects where replenishment lead times come from.
type LeadTimeMode string

const (
	// LeadTimeByCountry uses supplier history, then the supplier country, with
	// a fixed 95% service level.
	LeadTimeByCountry LeadTimeMode = "country"
	// LeadTimeFlat uses one configured lead time and ABC-tiered service levels.
	LeadTimeFlat LeadTimeMode = "flat"
)

// ServiceLevels are safety stock z-scores per ABC class.
type ServiceLevels struct {
	A float64
	B float64
	C float64
}

// Z returns the z-score for class. Unclassified items get the class A level.
func (s ServiceLevels) Z(class domain.ABCClass) float64 {
	switch class {
	case domain.ClassB:
		return s.B
	case domain.ClassC:
		return s.C
	default:
		return s.A
	}
}

// ReorderConfig parameterizes the calculator. It is copied at construction.
type ReorderConfig struct {
	WindowDays           int
	LeadTimeMode         LeadTimeMode
	LeadTimeOverrideDays float64
	FlatLeadTimeDays     float64
	ServiceLevels        ServiceLevels
	ABCThresholds        ABCThresholds
}

// DefaultReorderConfig returns a 90 day window with country lead times.
func DefaultReorderConfig() ReorderConfig {
	return ReorderConfig{
		WindowDays:       90,
		LeadTimeMode:     LeadTimeByCountry,
		FlatLeadTimeDays: 135,
		ServiceLevels:    ServiceLevels{A: 1.65, B: 1.28, C: 0.84},
		ABCThresholds:    DefaultABCThresholds(),
	}
}

// Validate rejects configurations the calculator cannot run with.
func (c ReorderConfig) Validate() error {
	if !domain.ValidDemandWindow(c.WindowDays) {
		return fmt.Errorf("%w: demand window must be 30, 90, 180 or 365 days, got %d", domain.ErrInvalidParameter, c.WindowDays)
	}
	switch c.LeadTimeMode {
	case LeadTimeByCountry:
	case LeadTimeFlat:
		if c.FlatLeadTimeDays <= 0 {
			return fmt.Errorf("%w: flat lead time must be positive", domain.ErrInvalidParameter)
		}
	default:
		return fmt.Errorf("%w: unknown lead time mode %q", domain.ErrInvalidParameter, c.LeadTimeMode)
	}
	if c.LeadTimeOverrideDays < 0 {
		return fmt.Errorf("%w: lead time override cannot be negative", domain.ErrInvalidParameter)
	}
	if c.ServiceLevels.A <= 0 || c.ServiceLevels.B <= 0 || c.ServiceLevels.C <= 0 {
		return fmt.Errorf("%w: service level z-scores must be positive", domain.ErrInvalidParameter)
	}
	if c.ABCThresholds.A <= 0 || c.ABCThresholds.A > c.ABCThresholds.B || c.ABCThresholds.B > 100 {
		return fmt.Errorf("%w: abc thresholds must satisfy 0 < A <= B <= 100", domain.ErrInvalidParameter)
	}
	return nil
}

// WithWindow returns a copy using a different demand window.
func (c ReorderConfig) WithWindow(windowDays int) ReorderConfig {
	c.WindowDays = windowDays
	return c
}

// CountryLeadTimeDays is the assumed lead time when a supplier has no history.
func CountryLeadTimeDays(country string) float64 {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "china":
		return 60
	case "india":
		return 45
	default:
		return 30
	}
}

// ReorderCalculator turns stock snapshots into reorder recommendations.
type ReorderCalculator struct {
	cfg ReorderConfig
}

func NewReorderCalculator(cfg ReorderConfig) (*ReorderCalculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ReorderCalculator{cfg: cfg}, nil
}

// Config returns the calculator's configuration.
func (c *ReorderCalculator) Config() ReorderConfig {
	return c.cfg
}

// Analyze returns one recommendation per active item with demand in the
// window, sorted by priority, days of coverage and item ID. Out of stock items
// have no ABC class. now is the only time input, so identical arguments give
// identical output.
func (c *ReorderCalculator) Analyze(items []domain.StockSnapshot, suppliers []domain.SupplierProfile, now time.Time) []domain.ReorderRecommendation {
	classes := ABCClassIndex(ClassifyActiveABC(items, c.cfg.ABCThresholds))

	profiles := make(map[string]domain.SupplierProfile, len(suppliers))
	for _, s := range suppliers {
		if s.ID != "" {
			profiles[s.ID] = s
		}
	}

	recs := make([]domain.ReorderRecommendation, 0, len(items))
	for _, item := range items {
		if item.Discontinued {
			continue
		}
		var supplier *domain.SupplierProfile
		if p, ok := profiles[item.SupplierID]; ok {
			supplier = &p
		}
		if rec, ok := c.Recommend(item, supplier, classes[item.ID], now); ok {
			recs = append(recs, rec)
		}
	}

	SortRecommendations(recs)
	return recs
}

// Recommend computes the replenishment figures for one item. It reports false
// when the item had no sales in the demand window.
func (c *ReorderCalculator) Recommend(item domain.StockSnapshot, supplier *domain.SupplierProfile, class domain.ABCClass, now time.Time) (domain.ReorderRecommendation, bool) {
	sales, _ := item.Sales(c.cfg.WindowDays)
	sales = nonNegative(sales)
	if sales <= 0 {
		return domain.ReorderRecommendation{}, false
	}

	stock := nonNegative(item.Quantity)
	price := nonNegative(item.UnitPrice)

	avgDaily := sales / float64(c.cfg.WindowDays)
	stdDev := math.Sqrt(avgDaily) * demandDispersion
	leadTime, z := c.leadTime(item, supplier, class)

	safety := stdDev * math.Sqrt(leadTime) * z
	reorderPoint := avgDaily*leadTime + safety
	eoq := EconomicOrderQuantity(avgDaily, price)
	coverage := DaysOfCoverage(stock, avgDaily)

	var qty float64
	if stock < reorderPoint {
		qty = math.Ceil(math.Max(eoq, reorderPoint-stock+safety))
	}

	rec := domain.ReorderRecommendation{
		Item:                   item,
		WindowDays:             c.cfg.WindowDays,
		ABCClass:               class,
		AvgDailyDemand:         avgDaily,
		DemandStdDev:           stdDev,
		LeadTimeDays:           leadTime,
		ServiceLevelZ:          z,
		SafetyStock:            safety,
		ReorderPoint:           reorderPoint,
		EOQ:                    eoq,
		DaysOfCoverage:         coverage,
		SuggestedOrderQuantity: qty,
		SuggestedOrderValue:    qty * price,
		Priority:               ReorderPriority(stock, reorderPoint, coverage),
	}

	if coverage < CoverageSentinel {
		date := now.AddDate(0, 0, int(math.Floor(coverage)))
		rec.ExpectedStockoutDate = &date
	}

	return rec, true
}

func (c *ReorderCalculator) leadTime(item domain.StockSnapshot, supplier *domain.SupplierProfile, class domain.ABCClass) (float64, float64) {
	if c.cfg.LeadTimeMode == LeadTimeFlat {
		return c.cfg.FlatLeadTimeDays, c.cfg.ServiceLevels.Z(class)
	}

	if c.cfg.LeadTimeOverrideDays > 0 {
		return c.cfg.LeadTimeOverrideDays, countryServiceZ
	}
	if supplier != nil && supplier.AvgLeadTimeDays != nil && *supplier.AvgLeadTimeDays > 0 {
		return *supplier.AvgLeadTimeDays, countryServiceZ
	}

	country := item.SupplierCountry
	if country == "" && supplier != nil {
		country = supplier.Country
	}
	return CountryLeadTimeDays(country), countryServiceZ
}

// EconomicOrderQuantity is the Wilson lot size, 0 without demand or price.
func EconomicOrderQuantity(avgDailyDemand, unitPrice float64) float64 {
	if avgDailyDemand <= 0 || unitPrice <= 0 {
		return 0
	}
	return math.Sqrt(2 * avgDailyDemand * daysPerYear * orderCost / (unitPrice * holdingRateFraction))
}

// DaysOfCoverage is stock over daily demand, CoverageSentinel without demand.
func DaysOfCoverage(stock, avgDailyDemand float64) float64 {
	if avgDailyDemand <= 0 {
		return CoverageSentinel
	}
	return stock / avgDailyDemand
}

// ReorderPriority tiers an item by days of coverage once it is below its
// reorder point.
func ReorderPriority(stock, reorderPoint, coverage float64) domain.Priority {
	if coverage <= 0 {
		return domain.PriorityOutOfStock
	}
	if stock >= reorderPoint {
		return domain.PriorityAdequate
	}
	switch {
	case coverage <= 15:
		return domain.PriorityUrgent
	case coverage <= 30:
		return domain.PriorityHigh
	case coverage <= 60:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// SortRecommendations orders by priority rank, coverage and item ID.
func SortRecommendations(recs []domain.ReorderRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recs[i].Priority.Rank(), recs[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		if recs[i].DaysOfCoverage != recs[j].DaysOfCoverage {
			return recs[i].DaysOfCoverage < recs[j].DaysOfCoverage
		}
		return recs[i].Item.ID < recs[j].Item.ID
	})
}
