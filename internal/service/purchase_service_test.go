package service

import (
	"context"
	"errors"
	"testing"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPurchaseService(t *testing.T, inv *stubInventory, sup *stubSuppliers) *PurchaseService {
	t.Helper()
	svc, err := NewPurchaseService(inv, sup, analytics.DefaultReorderConfig(), testOptions(t))
	require.NoError(t, err)
	return svc
}

func TestReorderAnalysis(t *testing.T) {
	discontinued := snapshot(3, 0, 10, 500)
	discontinued.Discontinued = true

	inv := &stubInventory{items: []domain.StockSnapshot{
		snapshot(1, 50, 10, 180),
		snapshot(2, 0, 10, 90),
		discontinued,
		snapshot(4, 10, 10, 0),
	}}
	sup := &stubSuppliers{profiles: []domain.SupplierProfile{{ID: "S1", Name: "Acme", Country: "China"}}}
	svc := newPurchaseService(t, inv, sup)

	records, err := svc.ReorderAnalysis(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].ItemID)
	assert.Equal(t, "OUT_OF_STOCK", records[0].Priority)
	assert.Equal(t, "HIGH", records[1].Priority)
	assert.Equal(t, 90, records[1].DemandWindowDays)
	assert.True(t, fixedNow.Equal(inv.asOf))

	again, err := svc.ReorderAnalysis(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, records, again)
	assert.Equal(t, int32(1), inv.calls.Load())
	assert.Equal(t, int32(1), sup.calls.Load())

	_, err = svc.ReorderAnalysis(context.Background(), 180)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inv.calls.Load())
}

func TestReorderAnalysisRejectsUnsupportedWindow(t *testing.T) {
	inv := &stubInventory{}
	svc := newPurchaseService(t, inv, &stubSuppliers{})

	_, err := svc.ReorderAnalysis(context.Background(), 45)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Zero(t, inv.calls.Load())
}

func TestReorderAnalysisFetchFailure(t *testing.T) {
	inv := &stubInventory{items: []domain.StockSnapshot{snapshot(1, 1, 1, 10)}}
	sup := &stubSuppliers{err: errors.New("timeout")}
	svc := newPurchaseService(t, inv, sup)

	_, err := svc.ReorderAnalysis(context.Background(), 0)
	require.Error(t, err)
	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "supplier profiles", fe.Op)

	// failures are not cached
	sup.err = nil
	records, err := svc.ReorderAnalysis(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReorderSummary(t *testing.T) {
	inv := &stubInventory{items: []domain.StockSnapshot{
		snapshot(1, 0, 10, 90),
		snapshot(2, 50, 10, 180),
		snapshot(3, 100000, 10, 90),
	}}
	svc := newPurchaseService(t, inv, &stubSuppliers{})

	summary, err := svc.ReorderSummary(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItemsToReorder)
	assert.Equal(t, 1, summary.UrgentItems)
	assert.Equal(t, 1, summary.HighPriorityItems)
	require.Len(t, summary.BySupplier, 1)
	assert.Equal(t, "Acme", summary.BySupplier[0].Key)
}

func TestSupplierPerformance(t *testing.T) {
	sup := &stubSuppliers{profiles: []domain.SupplierProfile{
		{ID: "S1", Name: "Acme", Country: "China", CurrentStockValue: 10},
		{ID: "S2", Name: "Bolt", Country: "India", CurrentStockValue: 20, AvgLeadTimeDays: ptr(33.0)},
	}}
	svc := newPurchaseService(t, &stubInventory{}, sup)

	records, err := svc.SupplierPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Bolt", records[0].SupplierName)
	assert.Equal(t, 33.0, records[0].EstimatedLeadTimeDays)
	assert.Equal(t, 60.0, records[1].EstimatedLeadTimeDays)
}

func TestNewPurchaseServiceValidatesConfig(t *testing.T) {
	cfg := analytics.DefaultReorderConfig()
	cfg.LeadTimeMode = "guess"
	_, err := NewPurchaseService(&stubInventory{}, &stubSuppliers{}, cfg, Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestReorderClassesMatchABCAnalysis(t *testing.T) {
	discontinued := snapshot(1, 10, 1, 25)
	discontinued.Discontinued = true
	inv := &stubInventory{items: []domain.StockSnapshot{
		discontinued,
		snapshot(2, 10, 1, 20),
		snapshot(3, 10, 1, 5),
	}}

	cfg := analytics.DefaultReorderConfig()
	cfg.LeadTimeMode = analytics.LeadTimeFlat
	opts := testOptions(t)
	purchase, err := NewPurchaseService(inv, &stubSuppliers{}, cfg, opts)
	require.NoError(t, err)
	inventory := NewInventoryService(inv, cfg.ABCThresholds, opts)

	abc, err := inventory.ABCAnalysis(context.Background())
	require.NoError(t, err)
	abcClass := make(map[int64]string, len(abc))
	for _, r := range abc {
		abcClass[r.ItemID] = r.ABCClass
	}
	assert.Equal(t, map[int64]string{2: "A", 3: "C"}, abcClass)

	records, err := purchase.ReorderAnalysis(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, abcClass[r.ItemID], r.ABCClass, "item %d", r.ItemID)
		if r.ItemID == 2 {
			assert.Equal(t, 1.65, r.ServiceLevelZ)
		}
	}
}
