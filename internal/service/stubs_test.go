package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/dialfa-analytics/internal/cache"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/redis/go-redis/v9"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type stubInventory struct {
	items []domain.StockSnapshot
	err   error
	calls atomic.Int32
	asOf  time.Time
}

func (s *stubInventory) GetStockSnapshot(ctx context.Context, asOf time.Time) ([]domain.StockSnapshot, error) {
	s.calls.Add(1)
	s.asOf = asOf
	return s.items, s.err
}

type stubSuppliers struct {
	profiles []domain.SupplierProfile
	err      error
	calls    atomic.Int32
}

func (s *stubSuppliers) GetSupplierProfiles(ctx context.Context) ([]domain.SupplierProfile, error) {
	s.calls.Add(1)
	return s.profiles, s.err
}

type stubFinancial struct {
	balances  []domain.CustomerBalance
	series    map[string][]domain.MonthlyPoint
	seriesErr map[string]error
	err       error
	calls     atomic.Int32
	months    int
	minimum   float64
}

func (s *stubFinancial) GetCustomerBalances(ctx context.Context, minBalance float64) ([]domain.CustomerBalance, error) {
	s.calls.Add(1)
	s.minimum = minBalance
	return s.balances, s.err
}

func (s *stubFinancial) GetMonthlySeries(ctx context.Context, source domain.SeriesSource, months int, asOf time.Time) ([]domain.MonthlyPoint, error) {
	s.calls.Add(1)
	s.months = months
	if err := s.seriesErr[source.Name]; err != nil {
		return nil, err
	}
	return s.series[source.Name], s.err
}

func testOptions(t *testing.T) Options {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return Options{
		Cache: cache.NewRedisAnalyticsCache(client, "test"),
		TTL:   func(string) time.Duration { return time.Minute },
		Now:   func() time.Time { return fixedNow },
	}
}

func snapshot(id int64, stock, price, last90 float64) domain.StockSnapshot {
	s := domain.StockSnapshot{StockItem: domain.StockItem{
		ID:              id,
		Code:            "ART",
		Quantity:        stock,
		UnitPrice:       price,
		SupplierID:      "S1",
		SupplierName:    "Acme",
		SupplierCountry: "China",
	}}
	s.Last90 = last90
	s.Last180 = last90 * 2
	s.Last365 = last90 * 4
	s.Last365Value = last90 * 4 * price
	return s
}

func ptr[T any](v T) *T { return &v }
