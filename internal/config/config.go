package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	ERPDatabase DatabaseConfig
	App         AppConfig
	Cache       CacheConfig
	Analytics   AnalyticsConfig
	Storage     StorageConfig
	Warmup      WarmupConfig
	LogLevel    string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type DatabaseConfig struct {
	Driver               string
	Host                 string
	Port                 string
	User                 string
	Password             string
	DBName               string
	SSLMode              string
	MaxOpenConns         int
	MaxConcurrentQueries int64
	QueryTimeoutSeconds  int
}

// DSN returns a key/value connection string understood by both lib/pq and pgx.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// QueryTimeout bounds a single analytical query.
func (d DatabaseConfig) QueryTimeout() time.Duration {
	if d.QueryTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.QueryTimeoutSeconds) * time.Second
}

type AppConfig struct {
	DataDir string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	KeyPrefix         string
	DefaultTTLSeconds int
	TTLSeconds        map[string]int
}

// TTLFor returns the expiry configured for a dataset, or the default.
func (c CacheConfig) TTLFor(dataset string) time.Duration {
	if secs, ok := c.TTLSeconds[dataset]; ok && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if c.DefaultTTLSeconds > 0 {
		return time.Duration(c.DefaultTTLSeconds) * time.Second
	}
	return 5 * time.Minute
}

// AnalyticsConfig carries the business parameters of the analyses.
type AnalyticsConfig struct {
	DemandWindowDays      int
	LeadTimeMode          string
	LeadTimeOverrideDays  float64
	FlatLeadTimeDays      float64
	ServiceLevelA         float64
	ServiceLevelB         float64
	ServiceLevelC         float64
	ABCThresholdA         float64
	ABCThresholdB         float64
	ForecastHorizonMonths int
	ForecastHistoryMonths int
	CashFlowHistoryMonths int
	MinCustomerBalance    float64
	TopRiskCustomers      int
}

// StorageConfig points at the S3-compatible bucket receiving exports.
type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	ExportPrefix string
}

// Configured reports whether enough is set to build a client.
func (s StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type WarmupConfig struct {
	Enabled        bool
	Schedule       string
	Workers        int
	TimeoutSeconds int
}

// Cache TTL defaults in seconds, keyed by dataset name.
var defaultCacheTTLs = map[string]int{
	"credit_risk":          600,
	"aging_analysis":       900,
	"cash_flow_history":    900,
	"cash_flow_forecast":   900,
	"revenue_forecast":     1800,
	"seasonal_analysis":    1800,
	"abc_analysis":         1800,
	"stock_health":         600,
	"slow_moving":          1800,
	"inventory_kpis":       600,
	"stock_alerts":         600,
	"category_analysis":    1200,
	"reorder_analysis":     600,
	"reorder_summary":      600,
	"supplier_performance": 1800,
	"dashboard_overview":   300,
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = loadFrom(viper.New())
		ensureDir(instance.App.DataDir)
	})

	return instance
}

func loadFrom(v *viper.Viper) *Config {
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	ttls := make(map[string]int, len(defaultCacheTTLs))
	for dataset := range defaultCacheTTLs {
		ttls[dataset] = v.GetInt(ttlKey(dataset))
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			RateLimitRPS:   v.GetFloat64("SERVER_RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("SERVER_RATE_LIMIT_BURST"),
		},
		Database:    databaseConfig(v, "DB"),
		ERPDatabase: databaseConfig(v, "ERP_DB"),
		App: AppConfig{
			DataDir: v.GetString("APP_DATA_DIR"),
		},
		Cache: CacheConfig{
			Enabled:           v.GetBool("CACHE_ENABLED"),
			RedisURL:          v.GetString("REDIS_URL"),
			RedisHost:         v.GetString("REDIS_HOST"),
			RedisPort:         v.GetString("REDIS_PORT"),
			RedisPassword:     v.GetString("REDIS_PASSWORD"),
			RedisDB:           v.GetInt("REDIS_DB"),
			KeyPrefix:         v.GetString("CACHE_KEY_PREFIX"),
			DefaultTTLSeconds: v.GetInt("CACHE_DEFAULT_TTL_SECONDS"),
			TTLSeconds:        ttls,
		},
		Analytics: AnalyticsConfig{
			DemandWindowDays:      v.GetInt("REORDER_DEMAND_WINDOW_DAYS"),
			LeadTimeMode:          strings.ToLower(v.GetString("REORDER_LEAD_TIME_MODE")),
			LeadTimeOverrideDays:  v.GetFloat64("REORDER_LEAD_TIME_OVERRIDE_DAYS"),
			FlatLeadTimeDays:      v.GetFloat64("REORDER_FLAT_LEAD_TIME_DAYS"),
			ServiceLevelA:         v.GetFloat64("REORDER_SERVICE_LEVEL_A"),
			ServiceLevelB:         v.GetFloat64("REORDER_SERVICE_LEVEL_B"),
			ServiceLevelC:         v.GetFloat64("REORDER_SERVICE_LEVEL_C"),
			ABCThresholdA:         v.GetFloat64("ABC_THRESHOLD_A"),
			ABCThresholdB:         v.GetFloat64("ABC_THRESHOLD_B"),
			ForecastHorizonMonths: v.GetInt("FORECAST_HORIZON_MONTHS"),
			ForecastHistoryMonths: v.GetInt("FORECAST_HISTORY_MONTHS"),
			CashFlowHistoryMonths: v.GetInt("CASH_FLOW_HISTORY_MONTHS"),
			MinCustomerBalance:    v.GetFloat64("CREDIT_RISK_MIN_BALANCE"),
			TopRiskCustomers:      v.GetInt("DASHBOARD_TOP_RISK_CUSTOMERS"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("STORAGE_ENDPOINT"),
			AccessKey:    v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:    v.GetString("STORAGE_SECRET_KEY"),
			Bucket:       v.GetString("STORAGE_BUCKET"),
			Region:       v.GetString("STORAGE_REGION"),
			UseSSL:       v.GetBool("STORAGE_USE_SSL"),
			ExportPrefix: v.GetString("STORAGE_EXPORT_PREFIX"),
		},
		Warmup: WarmupConfig{
			Enabled:        v.GetBool("WARMUP_ENABLED"),
			Schedule:       v.GetString("WARMUP_SCHEDULE"),
			Workers:        v.GetInt("WARMUP_WORKERS"),
			TimeoutSeconds: v.GetInt("WARMUP_TIMEOUT_SECONDS"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_RATE_LIMIT_RPS", 20)
	v.SetDefault("SERVER_RATE_LIMIT_BURST", 40)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "spisa")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_CONCURRENT_QUERIES", 10)
	v.SetDefault("DB_QUERY_TIMEOUT_SECONDS", 30)

	v.SetDefault("ERP_DB_DRIVER", "pgx")
	v.SetDefault("ERP_DB_HOST", "localhost")
	v.SetDefault("ERP_DB_PORT", "5432")
	v.SetDefault("ERP_DB_USER", "postgres")
	v.SetDefault("ERP_DB_PASSWORD", "postgres")
	v.SetDefault("ERP_DB_NAME", "xerp")
	v.SetDefault("ERP_DB_SSLMODE", "disable")
	v.SetDefault("ERP_DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("ERP_DB_MAX_CONCURRENT_QUERIES", 5)
	v.SetDefault("ERP_DB_QUERY_TIMEOUT_SECONDS", 30)

	v.SetDefault("APP_DATA_DIR", "./data/output")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_KEY_PREFIX", "analytics")
	v.SetDefault("CACHE_DEFAULT_TTL_SECONDS", 300)
	for dataset, secs := range defaultCacheTTLs {
		v.SetDefault(ttlKey(dataset), secs)
	}

	v.SetDefault("REORDER_DEMAND_WINDOW_DAYS", 90)
	v.SetDefault("REORDER_LEAD_TIME_MODE", "country")
	v.SetDefault("REORDER_LEAD_TIME_OVERRIDE_DAYS", 0)
	v.SetDefault("REORDER_FLAT_LEAD_TIME_DAYS", 135)
	v.SetDefault("REORDER_SERVICE_LEVEL_A", 1.65)
	v.SetDefault("REORDER_SERVICE_LEVEL_B", 1.28)
	v.SetDefault("REORDER_SERVICE_LEVEL_C", 0.84)
	v.SetDefault("ABC_THRESHOLD_A", 80)
	v.SetDefault("ABC_THRESHOLD_B", 95)
	v.SetDefault("FORECAST_HORIZON_MONTHS", 6)
	v.SetDefault("FORECAST_HISTORY_MONTHS", 24)
	v.SetDefault("CASH_FLOW_HISTORY_MONTHS", 12)
	v.SetDefault("CREDIT_RISK_MIN_BALANCE", 1000)
	v.SetDefault("DASHBOARD_TOP_RISK_CUSTOMERS", 10)

	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_EXPORT_PREFIX", "exports/reorder")

	v.SetDefault("WARMUP_ENABLED", false)
	v.SetDefault("WARMUP_SCHEDULE", "*/5 * * * *")
	v.SetDefault("WARMUP_WORKERS", 3)
	v.SetDefault("WARMUP_TIMEOUT_SECONDS", 120)

	v.SetDefault("LOG_LEVEL", "info")
}

func databaseConfig(v *viper.Viper, prefix string) DatabaseConfig {
	return DatabaseConfig{
		Driver:               v.GetString(prefix + "_DRIVER"),
		Host:                 v.GetString(prefix + "_HOST"),
		Port:                 v.GetString(prefix + "_PORT"),
		User:                 v.GetString(prefix + "_USER"),
		Password:             v.GetString(prefix + "_PASSWORD"),
		DBName:               v.GetString(prefix + "_NAME"),
		SSLMode:              v.GetString(prefix + "_SSLMODE"),
		MaxOpenConns:         v.GetInt(prefix + "_MAX_OPEN_CONNS"),
		MaxConcurrentQueries: v.GetInt64(prefix + "_MAX_CONCURRENT_QUERIES"),
		QueryTimeoutSeconds:  v.GetInt(prefix + "_QUERY_TIMEOUT_SECONDS"),
	}
}

func ttlKey(dataset string) string {
	return "CACHE_TTL_" + strings.ToUpper(dataset)
}

// Validate catches settings that would only fail later at request time.
func (c *Config) Validate() error {
	switch c.Analytics.DemandWindowDays {
	case 30, 90, 180, 365:
	default:
		return fmt.Errorf("REORDER_DEMAND_WINDOW_DAYS must be 30, 90, 180 or 365, got %d", c.Analytics.DemandWindowDays)
	}
	switch c.Analytics.LeadTimeMode {
	case "country", "flat":
	default:
		return fmt.Errorf("REORDER_LEAD_TIME_MODE must be country or flat, got %q", c.Analytics.LeadTimeMode)
	}
	if c.Analytics.ForecastHorizonMonths < 1 || c.Analytics.ForecastHorizonMonths > 36 {
		return fmt.Errorf("FORECAST_HORIZON_MONTHS must be between 1 and 36, got %d", c.Analytics.ForecastHorizonMonths)
	}
	if c.Analytics.ForecastHistoryMonths < 1 {
		return fmt.Errorf("FORECAST_HISTORY_MONTHS must be positive, got %d", c.Analytics.ForecastHistoryMonths)
	}
	if c.Analytics.ABCThresholdA <= 0 || c.Analytics.ABCThresholdA > c.Analytics.ABCThresholdB || c.Analytics.ABCThresholdB > 100 {
		return fmt.Errorf("ABC thresholds must satisfy 0 < A <= B <= 100, got %.2f/%.2f", c.Analytics.ABCThresholdA, c.Analytics.ABCThresholdB)
	}
	for _, db := range []DatabaseConfig{c.Database, c.ERPDatabase} {
		switch db.Driver {
		case "postgres", "pgx":
		default:
			return fmt.Errorf("unsupported database driver %q", db.Driver)
		}
	}
	if c.Warmup.Enabled && c.Warmup.Schedule == "" {
		return fmt.Errorf("WARMUP_SCHEDULE is required when WARMUP_ENABLED is set")
	}
	return nil
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
