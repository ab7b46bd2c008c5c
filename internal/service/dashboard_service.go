package service

import (
	"context"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultTopRiskCustomers = 10

// SeriesSnapshot is the latest two months of a money series and a one month
// projection.
type SeriesSnapshot struct {
	Series            string  `json:"series"`
	Currency          string  `json:"currency"`
	CurrentMonth      float64 `json:"current_month"`
	PreviousMonth     float64 `json:"previous_month"`
	GrowthRate        float64 `json:"growth_rate"`
	NextMonthForecast float64 `json:"next_month_forecast"`
}

// DashboardOverview is the landing page payload.
type DashboardOverview struct {
	GeneratedAt       time.Time                    `json:"generated_at"`
	Inventory         domain.InventoryKPIs         `json:"inventory"`
	Reorder           domain.ReorderSummary        `json:"reorder"`
	HighRiskCustomers int                          `json:"high_risk_customers"`
	TopCreditRisks    []analytics.CreditRiskRecord `json:"top_credit_risks"`
	CashFlow          SeriesSnapshot               `json:"cash_flow"`

	// Revenue is nil when the ERP series could not be read.
	Revenue *SeriesSnapshot `json:"revenue"`
}

type DashboardService struct {
	purchase  *PurchaseService
	inventory *InventoryService
	financial *FinancialService
	topRisks  int
	loader    *cachedLoader
}

func NewDashboardService(purchase *PurchaseService, inventory *InventoryService, financial *FinancialService, topRisks int, opts Options) *DashboardService {
	if topRisks <= 0 {
		topRisks = defaultTopRiskCustomers
	}
	return &DashboardService{
		purchase:  purchase,
		inventory: inventory,
		financial: financial,
		topRisks:  topRisks,
		loader:    newCachedLoader(opts),
	}
}

// Overview gathers the headline figures of every area concurrently. The
// revenue section is optional: its failure is logged and leaves it nil.
func (s *DashboardService) Overview(ctx context.Context) (DashboardOverview, error) {
	return loadCached(ctx, s.loader, DatasetDashboardOverview, nil, func(ctx context.Context) (DashboardOverview, error) {
		overview := DashboardOverview{GeneratedAt: s.loader.now().UTC()}
		var risks []analytics.CreditRiskRecord

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			overview.Inventory, err = s.inventory.KPIs(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			overview.Reorder, err = s.purchase.ReorderSummary(gctx, 0)
			return err
		})
		g.Go(func() error {
			var err error
			risks, err = s.financial.CreditRisk(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			overview.CashFlow, err = s.financial.Snapshot(gctx, domain.PaymentsSource)
			return err
		})
		g.Go(func() error {
			revenue, err := s.financial.Snapshot(gctx, domain.RevenueSource)
			if err != nil {
				log.Warn().Err(err).Msg("dashboard: revenue section unavailable")
				return nil
			}
			overview.Revenue = &revenue
			return nil
		})
		if err := g.Wait(); err != nil {
			return DashboardOverview{}, err
		}

		for _, r := range risks {
			if r.RiskLevel == string(domain.RiskHigh) {
				overview.HighRiskCustomers++
			}
		}
		if len(risks) > s.topRisks {
			risks = risks[:s.topRisks]
		}
		overview.TopCreditRisks = append([]analytics.CreditRiskRecord{}, risks...)
		return overview, nil
	})
}
