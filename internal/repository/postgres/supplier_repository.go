package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/andresuchdata/dialfa-analytics/internal/metrics"
	"github.com/andresuchdata/dialfa-analytics/internal/repository"
	"github.com/rs/zerolog/log"
)

const supplierProfilesQuery = `
    WITH supplier_stock AS (
        SELECT
            a.supplier_internal_id,
            COUNT(*) AS product_count,
            SUM(a.stock * a.unit_price) AS current_stock_value
        FROM articles a
        WHERE a.discontinued = FALSE
        GROUP BY a.supplier_internal_id
    ),
    purchase_history AS (
        SELECT
            po.supplier_internal_id,
            COUNT(*) AS total_orders,
            SUM(po.total_amount) AS total_purchase_value,
            (AVG(EXTRACT(EPOCH FROM (po.nationalization_date - po.boarding_date)) / 86400)
                FILTER (WHERE po.boarding_date IS NOT NULL
                    AND po.nationalization_date > po.boarding_date))::float AS avg_lead_time_days
        FROM purchase_orders po
        GROUP BY po.supplier_internal_id
    )
    SELECT
        s.internal_id AS id,
        s.name,
        s.country,
        ph.avg_lead_time_days,
        ph.total_orders,
        ss.product_count,
        ss.current_stock_value,
        ph.total_purchase_value
    FROM suppliers s
    LEFT JOIN supplier_stock ss ON ss.supplier_internal_id = s.internal_id
    LEFT JOIN purchase_history ph ON ph.supplier_internal_id = s.internal_id
    ORDER BY s.name
`

type supplierProfileRow struct {
	ID                 sql.NullString  `db:"id"`
	Name               sql.NullString  `db:"name"`
	Country            sql.NullString  `db:"country"`
	AvgLeadTimeDays    sql.NullFloat64 `db:"avg_lead_time_days"`
	TotalOrders        sql.NullInt64   `db:"total_orders"`
	ProductCount       sql.NullInt64   `db:"product_count"`
	CurrentStockValue  sql.NullFloat64 `db:"current_stock_value"`
	TotalPurchaseValue sql.NullFloat64 `db:"total_purchase_value"`
}

// toDomain drops negative figures. A supplier with no purchase orders keeps a
// nil lead time so the country fallback applies.
func (r supplierProfileRow) toDomain() (domain.SupplierProfile, bool) {
	defaulted := false
	p := domain.SupplierProfile{
		ID:                 r.ID.String,
		Name:               r.Name.String,
		Country:            r.Country.String,
		TotalOrders:        int(r.TotalOrders.Int64),
		ProductCount:       int(r.ProductCount.Int64),
		CurrentStockValue:  r.CurrentStockValue.Float64,
		TotalPurchaseValue: r.TotalPurchaseValue.Float64,
	}
	if r.AvgLeadTimeDays.Valid {
		if r.AvgLeadTimeDays.Float64 > 0 {
			v := r.AvgLeadTimeDays.Float64
			p.AvgLeadTimeDays = &v
		} else {
			defaulted = true
		}
	}
	if p.CurrentStockValue < 0 {
		p.CurrentStockValue = 0
		defaulted = true
	}
	if p.TotalPurchaseValue < 0 {
		p.TotalPurchaseValue = 0
		defaulted = true
	}
	return p, defaulted
}

type supplierRepository struct {
	db *DB
}

func NewSupplierRepository(db *DB) repository.SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) GetSupplierProfiles(ctx context.Context) ([]domain.SupplierProfile, error) {
	var rows []supplierProfileRow
	if err := r.db.selectAll(ctx, &rows, supplierProfilesQuery); err != nil {
		return nil, fmt.Errorf("error getting supplier profiles: %w", err)
	}

	profiles := make([]domain.SupplierProfile, 0, len(rows))
	defaulted := 0
	for _, row := range rows {
		// A supplier without an internal id joins no stock or orders.
		if !row.ID.Valid || row.ID.String == "" {
			defaulted++
			continue
		}
		p, patched := row.toDomain()
		if patched {
			defaulted++
		}
		profiles = append(profiles, p)
	}

	if defaulted > 0 {
		log.Warn().Int("rows", defaulted).Msg("supplier rows without an id skipped or with invalid figures defaulted")
	}
	metrics.RecordDefaultedRows("supplier_profiles", defaulted)

	return profiles, nil
}
