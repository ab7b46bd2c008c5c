package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/metrics"
	"github.com/andresuchdata/dialfa-analytics/internal/repository"
	"github.com/rs/zerolog/log"
)

const customerBalancesQuery = `
    SELECT
        c.name,
        b.amount AS current_balance,
        b.due AS overdue_amount,
        (b.due / NULLIF(b.amount, 0) * 100)::float AS overdue_percentage
    FROM balances b
    JOIN customers c ON c.id = b.customer_id
    WHERE b.amount > $1
    ORDER BY b.amount DESC
`

// Series queries take the half-open range [$1, $2).
var monthlySeriesQueries = map[string]string{
	domain.PaymentsSource.Name: `
        SELECT
            EXTRACT(YEAR FROM t.payment_date)::int AS year,
            EXTRACT(MONTH FROM t.payment_date)::int AS month,
            SUM(t.payment_amount)::float AS amount
        FROM transactions t
        WHERE t.payment_amount > 0
        AND t.payment_date >= $1
        AND t.payment_date < $2
        GROUP BY 1, 2
        ORDER BY 1, 2
    `,
	domain.RevenueSource.Name: `
        SELECT
            EXTRACT(YEAR FROM dt.tran_date)::int AS year,
            EXTRACT(MONTH FROM dt.tran_date)::int AS month,
            SUM(CASE WHEN dt.type = 10 THEN dt.ov_amount ELSE -dt.ov_amount END)::float AS amount
        FROM debtor_trans dt
        WHERE dt.type IN (10, 11)
        AND dt.tran_date >= $1
        AND dt.tran_date < $2
        GROUP BY 1, 2
        ORDER BY 1, 2
    `,
}

type customerBalanceRow struct {
	Name              sql.NullString  `db:"name"`
	CurrentBalance    sql.NullFloat64 `db:"current_balance"`
	OverdueAmount     sql.NullFloat64 `db:"overdue_amount"`
	OverduePercentage sql.NullFloat64 `db:"overdue_percentage"`
}

func (r customerBalanceRow) toDomain() (domain.CustomerBalance, bool) {
	defaulted := !r.CurrentBalance.Valid || !r.OverdueAmount.Valid
	b := domain.CustomerBalance{
		Name:           r.Name.String,
		CurrentBalance: r.CurrentBalance.Float64,
		OverdueAmount:  r.OverdueAmount.Float64,
	}
	if b.OverdueAmount < 0 {
		b.OverdueAmount = 0
		defaulted = true
	}
	if r.OverduePercentage.Valid && !math.IsNaN(r.OverduePercentage.Float64) {
		v := math.Max(r.OverduePercentage.Float64, 0)
		b.OverduePercentage = &v
	}
	return b, defaulted
}

type monthlyRow struct {
	Year   sql.NullInt64   `db:"year"`
	Month  sql.NullInt64   `db:"month"`
	Amount sql.NullFloat64 `db:"amount"`
}

type financialRepository struct {
	databases map[string]*DB
}

// NewFinancialRepository reads balances and payments from transactional and
// invoiced revenue from erp.
func NewFinancialRepository(transactional, erp *DB) repository.FinancialRepository {
	return &financialRepository{
		databases: map[string]*DB{
			domain.DatabaseTransactional: transactional,
			domain.DatabaseERP:           erp,
		},
	}
}

func (r *financialRepository) GetCustomerBalances(ctx context.Context, minBalance float64) ([]domain.CustomerBalance, error) {
	db, err := r.database(domain.DatabaseTransactional)
	if err != nil {
		return nil, err
	}

	var rows []customerBalanceRow
	if err := db.selectAll(ctx, &rows, customerBalancesQuery, minBalance); err != nil {
		return nil, fmt.Errorf("error getting customer balances: %w", err)
	}

	balances := make([]domain.CustomerBalance, 0, len(rows))
	defaulted := 0
	for _, row := range rows {
		b, patched := row.toDomain()
		if patched {
			defaulted++
		}
		balances = append(balances, b)
	}

	if defaulted > 0 {
		log.Warn().Int("rows", defaulted).Msg("customer balance rows with missing amounts defaulted")
	}
	metrics.RecordDefaultedRows("customer_balances", defaulted)

	return balances, nil
}

func (r *financialRepository) GetMonthlySeries(ctx context.Context, source domain.SeriesSource, months int, asOf time.Time) ([]domain.MonthlyPoint, error) {
	query, ok := monthlySeriesQueries[source.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no query for series %q", domain.ErrInvalidParameter, source.Name)
	}
	if months < 1 {
		return nil, fmt.Errorf("%w: months must be positive, got %d", domain.ErrInvalidParameter, months)
	}
	db, err := r.database(source.Database)
	if err != nil {
		return nil, err
	}

	from, to := monthRange(asOf, months)

	var rows []monthlyRow
	if err := db.selectAll(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("error getting %s series: %w", source.Name, err)
	}

	multiplier := source.TaxMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	series := make([]domain.MonthlyPoint, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		p := domain.MonthlyPoint{
			Year:   int(row.Year.Int64),
			Month:  int(row.Month.Int64),
			Amount: row.Amount.Float64 * multiplier,
		}
		if !row.Year.Valid || !p.Valid() {
			skipped++
			continue
		}
		if !row.Amount.Valid {
			skipped++
		}
		series = append(series, p)
	}

	if skipped > 0 {
		log.Warn().Str("series", source.Name).Int("rows", skipped).Msg("monthly rows with missing fields skipped or zeroed")
	}
	metrics.RecordDefaultedRows(source.Name+"_series", skipped)

	return series, nil
}

func (r *financialRepository) database(name string) (*DB, error) {
	db := r.databases[name]
	if db == nil {
		return nil, fmt.Errorf("database %q is not configured", name)
	}
	return db, nil
}

// monthRange returns the start of the month months-1 before asOf and the start
// of the month after asOf.
func monthRange(asOf time.Time, months int) (time.Time, time.Time) {
	first := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	return first.AddDate(0, -(months - 1), 0), first.AddDate(0, 1, 0)
}
