package domain

// OrderTotal is the suggested order value and item count of one group.
type OrderTotal struct {
	Key        string  `json:"key"`
	OrderValue float64 `json:"order_value"`
	ItemCount  int     `json:"item_count"`
}

// ReorderSummary aggregates the recommendations that need an order.
type ReorderSummary struct {
	TotalItemsToReorder int          `json:"total_items_to_reorder"`
	UrgentItems         int          `json:"urgent_items"`
	HighPriorityItems   int          `json:"high_priority_items"`
	TotalOrderValue     float64      `json:"total_order_value"`
	BySupplier          []OrderTotal `json:"by_supplier"`
	ByPriority          []OrderTotal `json:"by_priority"`
}
