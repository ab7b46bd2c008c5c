package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/metrics"
	"github.com/andresuchdata/dialfa-analytics/internal/repository"
	"github.com/rs/zerolog/log"
)

const stockSnapshotQuery = `
    WITH sales AS (
        SELECT
            oi.article_id,
            SUM(CASE WHEN o.issued_at >= $1::timestamptz - INTERVAL '30 days' THEN oi.quantity ELSE 0 END) AS last_30,
            SUM(CASE WHEN o.issued_at >= $1::timestamptz - INTERVAL '90 days' THEN oi.quantity ELSE 0 END) AS last_90,
            SUM(CASE WHEN o.issued_at >= $1::timestamptz - INTERVAL '180 days' THEN oi.quantity ELSE 0 END) AS last_180,
            SUM(CASE WHEN o.issued_at >= $1::timestamptz - INTERVAL '365 days' THEN oi.quantity ELSE 0 END) AS last_365,
            SUM(CASE WHEN o.issued_at >= $1::timestamptz - INTERVAL '365 days' THEN oi.quantity * oi.unit_price ELSE 0 END) AS last_365_value,
            MAX(o.issued_at) AS last_sale_date
        FROM order_items oi
        JOIN orders o ON o.id = oi.order_id
        WHERE o.issued_at <= $1::timestamptz
        AND o.cancelled = FALSE
        GROUP BY oi.article_id
    )
    SELECT
        a.id,
        a.code,
        a.description,
        c.name AS category,
        a.stock AS quantity,
        a.unit_price,
        a.discontinued,
        s.internal_id AS supplier_id,
        s.name AS supplier_name,
        s.country AS supplier_country,
        sales.last_30,
        sales.last_90,
        sales.last_180,
        sales.last_365,
        sales.last_365_value,
        sales.last_sale_date
    FROM articles a
    LEFT JOIN categories c ON c.id = a.category_id
    LEFT JOIN suppliers s ON s.internal_id = a.supplier_internal_id
    LEFT JOIN sales ON sales.article_id = a.id
    ORDER BY a.id
`

type stockSnapshotRow struct {
	ID              int64           `db:"id"`
	Code            sql.NullString  `db:"code"`
	Description     sql.NullString  `db:"description"`
	Category        sql.NullString  `db:"category"`
	Quantity        sql.NullFloat64 `db:"quantity"`
	UnitPrice       sql.NullFloat64 `db:"unit_price"`
	Discontinued    sql.NullBool    `db:"discontinued"`
	SupplierID      sql.NullString  `db:"supplier_id"`
	SupplierName    sql.NullString  `db:"supplier_name"`
	SupplierCountry sql.NullString  `db:"supplier_country"`
	Last30          sql.NullFloat64 `db:"last_30"`
	Last90          sql.NullFloat64 `db:"last_90"`
	Last180         sql.NullFloat64 `db:"last_180"`
	Last365         sql.NullFloat64 `db:"last_365"`
	Last365Value    sql.NullFloat64 `db:"last_365_value"`
	LastSaleDate    sql.NullTime    `db:"last_sale_date"`
}

// toDomain fills defaults for missing or negative fields. Articles without
// sales legitimately have null windows, so those do not count as defaulted.
func (r stockSnapshotRow) toDomain() (domain.StockSnapshot, bool) {
	defaulted := false
	amount := func(v sql.NullFloat64, required bool) float64 {
		if !v.Valid {
			if required {
				defaulted = true
			}
			return 0
		}
		if v.Float64 < 0 {
			defaulted = true
			return 0
		}
		return v.Float64
	}

	snap := domain.StockSnapshot{
		StockItem: domain.StockItem{
			ID:              r.ID,
			Code:            r.Code.String,
			Description:     r.Description.String,
			Category:        r.Category.String,
			Quantity:        amount(r.Quantity, true),
			UnitPrice:       amount(r.UnitPrice, true),
			Discontinued:    r.Discontinued.Valid && r.Discontinued.Bool,
			SupplierID:      r.SupplierID.String,
			SupplierName:    r.SupplierName.String,
			SupplierCountry: r.SupplierCountry.String,
		},
		DemandWindows: domain.DemandWindows{
			Last30:       amount(r.Last30, false),
			Last90:       amount(r.Last90, false),
			Last180:      amount(r.Last180, false),
			Last365:      amount(r.Last365, false),
			Last365Value: amount(r.Last365Value, false),
		},
	}
	if r.LastSaleDate.Valid {
		t := r.LastSaleDate.Time
		snap.LastSaleDate = &t
	}
	return snap, defaulted
}

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetStockSnapshot(ctx context.Context, asOf time.Time) ([]domain.StockSnapshot, error) {
	var rows []stockSnapshotRow
	if err := r.db.selectAll(ctx, &rows, stockSnapshotQuery, asOf); err != nil {
		return nil, fmt.Errorf("error getting stock snapshot: %w", err)
	}

	items := make([]domain.StockSnapshot, 0, len(rows))
	defaulted := 0
	for _, row := range rows {
		item, patched := row.toDomain()
		if patched {
			defaulted++
		}
		items = append(items, item)
	}

	if defaulted > 0 {
		log.Warn().Int("rows", defaulted).Msg("stock snapshot rows with missing or negative fields defaulted to zero")
	}
	metrics.RecordDefaultedRows("stock_snapshot", defaulted)

	return items, nil
}
