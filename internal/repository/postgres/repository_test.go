package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewDBFromSQLX(sqlx.NewDb(raw, "sqlmock"), 2), mock
}

var asOf = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestGetStockSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	lastSale := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "code", "description", "category", "quantity", "unit_price", "discontinued",
		"supplier_id", "supplier_name", "supplier_country",
		"last_30", "last_90", "last_180", "last_365", "last_365_value", "last_sale_date",
	}).
		AddRow(1, "FL-100", "Flange 100", "Flanges", 50.0, 10.0, false, "S1", "Acme", "China", 60.0, 180.0, 300.0, 500.0, 5000.0, lastSale).
		AddRow(2, "EL-200", nil, nil, nil, -3.0, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery("FROM articles a").WithArgs(asOf).WillReturnRows(rows)

	items, err := NewInventoryRepository(db).GetStockSnapshot(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Acme", first.SupplierName)
	assert.Equal(t, 180.0, first.Last90)
	require.NotNil(t, first.LastSaleDate)
	assert.True(t, lastSale.Equal(*first.LastSaleDate))

	second := items[1]
	assert.Zero(t, second.Quantity)
	assert.Zero(t, second.UnitPrice)
	assert.Zero(t, second.Last90)
	assert.False(t, second.Discontinued)
	assert.Nil(t, second.LastSaleDate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStockSnapshotError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM articles a").WillReturnError(errors.New("connection reset"))

	_, err := NewInventoryRepository(db).GetStockSnapshot(context.Background(), asOf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSupplierProfiles(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{
		"id", "name", "country", "avg_lead_time_days", "total_orders", "product_count", "current_stock_value", "total_purchase_value",
	}).
		AddRow("S1", "Acme", "China", 72.5, 4, 12, 1500.0, 9000.0).
		AddRow("S2", "Bolt", "India", nil, nil, nil, nil, nil).
		AddRow("S3", "Cast", "Italy", -2.0, 1, 1, 10.0, -5.0)

	mock.ExpectQuery("FROM suppliers s").WillReturnRows(rows)

	profiles, err := NewSupplierRepository(db).GetSupplierProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	require.NotNil(t, profiles[0].AvgLeadTimeDays)
	assert.Equal(t, 72.5, *profiles[0].AvgLeadTimeDays)
	assert.Equal(t, 4, profiles[0].TotalOrders)
	assert.Nil(t, profiles[1].AvgLeadTimeDays)
	assert.Zero(t, profiles[1].ProductCount)
	assert.Nil(t, profiles[2].AvgLeadTimeDays)
	assert.Zero(t, profiles[2].TotalPurchaseValue)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSupplierProfilesSkipsMissingID(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{
		"id", "name", "country", "avg_lead_time_days", "total_orders", "product_count", "current_stock_value", "total_purchase_value",
	}).
		AddRow(nil, "Orphan", "Spain", nil, nil, nil, nil, nil).
		AddRow("S1", "Acme", "China", 30.0, 2, 3, 100.0, 400.0)

	mock.ExpectQuery("FROM suppliers s").WillReturnRows(rows)

	profiles, err := NewSupplierRepository(db).GetSupplierProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "S1", profiles[0].ID)
	assert.Equal(t, "Acme", profiles[0].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomerBalances(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"name", "current_balance", "overdue_amount", "overdue_percentage"}).
		AddRow("Acme SA", 50000.0, 30000.0, 60.0).
		AddRow("Zero", 0.0, 0.0, nil)

	mock.ExpectQuery("FROM balances b").WithArgs(1000.0).WillReturnRows(rows)

	balances, err := NewFinancialRepository(db, nil).GetCustomerBalances(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	require.NotNil(t, balances[0].OverduePercentage)
	assert.Equal(t, 60.0, *balances[0].OverduePercentage)
	assert.Nil(t, balances[1].OverduePercentage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMonthlySeriesAppliesTaxMultiplier(t *testing.T) {
	transactional, _ := newMockDB(t)
	erp, mock := newMockDB(t)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"year", "month", "amount"}).
		AddRow(2024, 1, 100.0).
		AddRow(2024, 2, nil).
		AddRow(2024, 13, 5.0).
		AddRow(2024, 3, 200.0)

	mock.ExpectQuery("FROM debtor_trans dt").WithArgs(from, to).WillReturnRows(rows)

	repo := NewFinancialRepository(transactional, erp)
	series, err := repo.GetMonthlySeries(context.Background(), domain.RevenueSource, 3, asOf)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.InDelta(t, 121, series[0].Amount, 1e-9)
	assert.Zero(t, series[1].Amount)
	assert.InDelta(t, 242, series[2].Amount, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMonthlySeriesRoutesPaymentsToTransactional(t *testing.T) {
	transactional, mock := newMockDB(t)
	mock.ExpectQuery("FROM transactions t").
		WillReturnRows(sqlmock.NewRows([]string{"year", "month", "amount"}).AddRow(2024, 3, 10.0))

	series, err := NewFinancialRepository(transactional, nil).GetMonthlySeries(context.Background(), domain.PaymentsSource, 12, asOf)
	require.NoError(t, err)
	assert.Equal(t, []domain.MonthlyPoint{{Year: 2024, Month: 3, Amount: 10}}, series)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMonthlySeriesRejectsUnknownSource(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewFinancialRepository(db, db)

	_, err := repo.GetMonthlySeries(context.Background(), domain.SeriesSource{Name: "refunds"}, 12, asOf)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = repo.GetMonthlySeries(context.Background(), domain.RevenueSource, 0, asOf)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestGetMonthlySeriesMissingDatabase(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := NewFinancialRepository(db, nil).GetMonthlySeries(context.Background(), domain.RevenueSource, 12, asOf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestMonthRange(t *testing.T) {
	from, to := monthRange(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), 12)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestSelectAllHonoursCancelledContext(t *testing.T) {
	db, _ := newMockDB(t)
	require.NoError(t, db.sem.Acquire(context.Background(), 2))
	defer db.sem.Release(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out []monthlyRow
	err := db.selectAll(ctx, &out, "SELECT 1")
	assert.ErrorIs(t, err, context.Canceled)
}
