package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/storage"
	"github.com/rs/zerolog/log"
)

var reorderHeader = []string{
	"ItemID", "ProductCode", "ProductName", "Category", "PreferredSupplier", "SupplierCountry",
	"ABCClass", "CurrentStock", "UnitPrice", "StockValue",
	"Last30DaysSales", "Last90DaysSales", "Last180DaysSales", "Last365DaysSales",
	"DemandWindowDays", "AvgDailyDemand", "DemandStdDev", "EstimatedLeadTimeDays",
	"ServiceLevelZ", "SafetyStock", "ReorderPoint", "EOQ", "DaysOfCoverage",
	"SuggestedOrderQuantity", "SuggestedOrderValue", "Priority", "ExpectedStockoutDate",
}

// WriteReorderCSV renders records with a header row. A missing stock-out
// date is written as an empty cell.
func WriteReorderCSV(records []analytics.ReorderRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(reorderHeader); err != nil {
		return nil, err
	}
	for _, r := range records {
		stockout := ""
		if r.ExpectedStockoutDate != nil {
			stockout = *r.ExpectedStockoutDate
		}
		row := []string{
			strconv.FormatInt(r.ItemID, 10), r.ProductCode, r.ProductName, r.Category, r.PreferredSupplier, r.SupplierCountry,
			r.ABCClass, num(r.CurrentStock), num(r.UnitPrice), num(r.StockValue),
			num(r.Last30DaysSales), num(r.Last90DaysSales), num(r.Last180DaysSales), num(r.Last365DaysSales),
			strconv.Itoa(r.DemandWindowDays), num(r.AvgDailyDemand), num(r.DemandStdDev), num(r.EstimatedLeadTimeDays),
			num(r.ServiceLevelZ), num(r.SafetyStock), num(r.ReorderPoint), num(r.EOQ), num(r.DaysOfCoverage),
			num(r.SuggestedOrderQuantity), num(r.SuggestedOrderValue), r.Priority, stockout,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReorderExporter uploads reorder analyses to object storage.
type ReorderExporter struct {
	store  storage.ObjectStorage
	prefix string
	now    func() time.Time
}

func NewReorderExporter(store storage.ObjectStorage, prefix string) *ReorderExporter {
	if prefix == "" {
		prefix = "exports"
	}
	return &ReorderExporter{store: store, prefix: prefix, now: time.Now}
}

// ObjectKey is the key an export for window taken at ts is stored under.
func (e *ReorderExporter) ObjectKey(window int, ts time.Time) string {
	name := fmt.Sprintf("reorder_analysis_%dd_%s.csv", window, ts.UTC().Format("20060102T150405Z"))
	return path.Join(e.prefix, "reorder", name)
}

// Export writes records as CSV and uploads them, returning the object key.
func (e *ReorderExporter) Export(ctx context.Context, window int, records []analytics.ReorderRecord) (string, error) {
	data, err := WriteReorderCSV(records)
	if err != nil {
		return "", fmt.Errorf("failed to render reorder csv: %w", err)
	}

	key := e.ObjectKey(window, e.now())
	if err := e.store.UploadObject(ctx, key, "text/csv", data); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("rows", len(records)).Msg("reorder analysis exported")
	return key, nil
}

// ListExports returns previously uploaded reorder exports.
func (e *ReorderExporter) ListExports(ctx context.Context) ([]storage.ObjectInfo, error) {
	return e.store.ListObjects(ctx, path.Join(e.prefix, "reorder")+"/")
}
