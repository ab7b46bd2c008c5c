package domain

import "time"

// StockItem is a catalogue article as read from the transactional store.
type StockItem struct {
	ID              int64   `json:"id" db:"id"`
	Code            string  `json:"code" db:"code"`
	Description     string  `json:"description" db:"description"`
	Category        string  `json:"category" db:"category"`
	Quantity        float64 `json:"quantity" db:"quantity"`
	UnitPrice       float64 `json:"unit_price" db:"unit_price"`
	Discontinued    bool    `json:"discontinued" db:"discontinued"`
	SupplierID      string  `json:"supplier_id" db:"supplier_id"`
	SupplierName    string  `json:"supplier_name" db:"supplier_name"`
	SupplierCountry string  `json:"supplier_country" db:"supplier_country"`
}

// StockValue is quantity on hand times unit price.
func (i StockItem) StockValue() float64 {
	return i.Quantity * i.UnitPrice
}

// DemandWindows holds units sold over trailing windows ending today.
type DemandWindows struct {
	Last30       float64    `json:"last_30" db:"last_30"`
	Last90       float64    `json:"last_90" db:"last_90"`
	Last180      float64    `json:"last_180" db:"last_180"`
	Last365      float64    `json:"last_365" db:"last_365"`
	Last365Value float64    `json:"last_365_value" db:"last_365_value"`
	LastSaleDate *time.Time `json:"last_sale_date,omitempty" db:"last_sale_date"`
}

// Sales returns the units sold in the given window. Only 30, 90, 180 and 365
// day windows are tracked.
func (d DemandWindows) Sales(windowDays int) (float64, bool) {
	switch windowDays {
	case 30:
		return d.Last30, true
	case 90:
		return d.Last90, true
	case 180:
		return d.Last180, true
	case 365:
		return d.Last365, true
	}
	return 0, false
}

// ValidDemandWindow reports whether windowDays is one of the tracked windows.
func ValidDemandWindow(windowDays int) bool {
	_, ok := DemandWindows{}.Sales(windowDays)
	return ok
}

// StockSnapshot is one row of the stock snapshot query: the item and its demand.
type StockSnapshot struct {
	StockItem
	DemandWindows
}

// SupplierProfile aggregates a supplier's catalogue and purchase history.
type SupplierProfile struct {
	ID                 string   `json:"id" db:"id"`
	Name               string   `json:"name" db:"name"`
	Country            string   `json:"country" db:"country"`
	AvgLeadTimeDays    *float64 `json:"avg_lead_time_days" db:"avg_lead_time_days"`
	TotalOrders        int      `json:"total_orders" db:"total_orders"`
	ProductCount       int      `json:"product_count" db:"product_count"`
	CurrentStockValue  float64  `json:"current_stock_value" db:"current_stock_value"`
	TotalPurchaseValue float64  `json:"total_purchase_value" db:"total_purchase_value"`
}

// ReorderRecommendation is the demand and replenishment analysis for one item.
type ReorderRecommendation struct {
	Item                   StockSnapshot
	WindowDays             int
	ABCClass               ABCClass
	AvgDailyDemand         float64
	DemandStdDev           float64
	LeadTimeDays           float64
	ServiceLevelZ          float64
	SafetyStock            float64
	ReorderPoint           float64
	EOQ                    float64
	DaysOfCoverage         float64
	SuggestedOrderQuantity float64
	SuggestedOrderValue    float64
	Priority               Priority
	ExpectedStockoutDate   *time.Time
}

// NeedsOrder reports whether a replenishment order is suggested.
func (r ReorderRecommendation) NeedsOrder() bool {
	return r.SuggestedOrderQuantity > 0
}

// ABCItem is an item ranked by trailing twelve-month sales value.
type ABCItem struct {
	Item                 StockSnapshot
	SalesValue           float64
	SalesPercentage      float64
	CumulativePercentage float64
	Class                ABCClass
}

// StockHealthItem is the health status of one item.
type StockHealthItem struct {
	Item              StockSnapshot
	AvgMonthlySales   float64
	MonthsOfInventory float64
	Status            StockStatus
}

// SlowMovingItem classifies an item by time since its last sale.
type SlowMovingItem struct {
	Item                StockSnapshot
	DaysSinceLastSale   *int
	Category            MovementCategory
	MonthlyCarryingCost float64
	AnnualCarryingCost  float64
}

// InventoryKPIs are catalogue-wide inventory indicators.
type InventoryKPIs struct {
	TotalProducts       int     `json:"total_products"`
	ActiveProducts      int     `json:"active_products"`
	OutOfStockProducts  int     `json:"out_of_stock_products"`
	CurrentValue        float64 `json:"current_inventory_value"`
	AnnualSalesValue    float64 `json:"annual_sales_value"`
	TurnoverRatio       float64 `json:"turnover_ratio"`
	DaysInInventory     float64 `json:"days_in_inventory"`
	DeadStockValue      float64 `json:"dead_stock_value"`
	MonthlyCarryingCost float64 `json:"monthly_carrying_cost"`
}

// StockAlertItem is an active item raising a stock alert.
type StockAlertItem struct {
	Item  StockSnapshot
	Alert StockAlert
}

// CategorySummary aggregates the in-stock active items of one category.
type CategorySummary struct {
	Category        string
	ProductCount    int
	TotalQuantity   float64
	TotalValue      float64
	AvgUnitPrice    float64
	ValuePercentage float64
}
