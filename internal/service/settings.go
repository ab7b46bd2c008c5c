package service

import (
	"github.com/andresuchdata/dialfa-analytics/internal/analytics"
	"github.com/andresuchdata/dialfa-analytics/internal/config"
)

// ReorderConfigFrom maps environment settings onto the calculator config.
func ReorderConfigFrom(cfg config.AnalyticsConfig) analytics.ReorderConfig {
	rc := analytics.DefaultReorderConfig()
	if cfg.DemandWindowDays != 0 {
		rc.WindowDays = cfg.DemandWindowDays
	}
	if cfg.LeadTimeMode != "" {
		rc.LeadTimeMode = analytics.LeadTimeMode(cfg.LeadTimeMode)
	}
	rc.LeadTimeOverrideDays = cfg.LeadTimeOverrideDays
	if cfg.FlatLeadTimeDays > 0 {
		rc.FlatLeadTimeDays = cfg.FlatLeadTimeDays
	}
	if cfg.ServiceLevelA > 0 && cfg.ServiceLevelB > 0 && cfg.ServiceLevelC > 0 {
		rc.ServiceLevels = analytics.ServiceLevels{A: cfg.ServiceLevelA, B: cfg.ServiceLevelB, C: cfg.ServiceLevelC}
	}
	rc.ABCThresholds = ABCThresholdsFrom(cfg)
	return rc
}

func ABCThresholdsFrom(cfg config.AnalyticsConfig) analytics.ABCThresholds {
	if cfg.ABCThresholdA <= 0 || cfg.ABCThresholdB <= 0 {
		return analytics.DefaultABCThresholds()
	}
	return analytics.ABCThresholds{A: cfg.ABCThresholdA, B: cfg.ABCThresholdB}
}

func FinancialSettingsFrom(cfg config.AnalyticsConfig) FinancialSettings {
	return FinancialSettings{
		MinCustomerBalance:    cfg.MinCustomerBalance,
		ForecastHorizonMonths: cfg.ForecastHorizonMonths,
		ForecastHistoryMonths: cfg.ForecastHistoryMonths,
		CashFlowHistoryMonths: cfg.CashFlowHistoryMonths,
	}
}
