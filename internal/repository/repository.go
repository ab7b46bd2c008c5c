package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
)

// InventoryRepository reads the article catalogue with its sales windows.
type InventoryRepository interface {
	// GetStockSnapshot returns every article with sales aggregated over the
	// 30/90/180/365 days preceding asOf.
	GetStockSnapshot(ctx context.Context, asOf time.Time) ([]domain.StockSnapshot, error)
}

// SupplierRepository reads supplier master data and purchase history.
type SupplierRepository interface {
	GetSupplierProfiles(ctx context.Context) ([]domain.SupplierProfile, error)
}

// FinancialRepository reads customer balances and monthly money series.
type FinancialRepository interface {
	GetCustomerBalances(ctx context.Context, minBalance float64) ([]domain.CustomerBalance, error)
	// GetMonthlySeries returns monthly totals for the months calendar months
	// ending with the month of asOf, oldest first. Months without activity
	// are absent.
	GetMonthlySeries(ctx context.Context, source domain.SeriesSource, months int, asOf time.Time) ([]domain.MonthlyPoint, error)
}
