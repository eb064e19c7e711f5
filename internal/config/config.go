// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/supawave/pos-ecosystem/backend-go/internal/forecast"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host                 string
	Port                 string
	User                 string
	Password             string
	DBName               string
	SSLMode              string
	MaxConcurrentQueries int
}

type AppConfig struct {
	DataDir string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket for recommendation exports.
// When disabled, exports are written under App.DataDir.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
}

type ForecastConfig struct {
	MovingAverageWindow       int
	SmoothingAlpha            float64
	MinHistory                int
	MinTrendHistory           int
	HighConfidenceDays        int
	TrendThresholdPercent     float64
	CriticalDays              float64
	HighDays                  float64
	ReorderSupplyDays         float64
	StockoutFloor             float64
	CostFallbackRatio         float64
	RecommendationHorizon     int
	LookbackDays              int
	TrendLookbackDays         int
	Concurrency               int
	RecommendationTimeoutSecs int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = build(viper.GetViper())

		ensureDir(instance.App.DataDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_REQUEST_TIMEOUT", 25)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "supawave")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONCURRENT_QUERIES", 10)
	v.SetDefault("APP_DATA_DIR", "./data/output")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")

	d := forecast.DefaultParams()
	v.SetDefault("FORECAST_MOVING_AVERAGE_WINDOW", d.MovingAverageWindow)
	v.SetDefault("FORECAST_SMOOTHING_ALPHA", d.SmoothingAlpha)
	v.SetDefault("FORECAST_MIN_HISTORY", d.MinHistoryForForecast)
	v.SetDefault("FORECAST_MIN_TREND_HISTORY", d.MinHistoryForTrend)
	v.SetDefault("FORECAST_HIGH_CONFIDENCE_DAYS", d.HighConfidenceHistoryDays)
	v.SetDefault("FORECAST_TREND_THRESHOLD_PERCENT", d.TrendThresholdPercent)
	v.SetDefault("FORECAST_CRITICAL_DAYS", d.CriticalDaysThreshold)
	v.SetDefault("FORECAST_HIGH_DAYS", d.HighDaysThreshold)
	v.SetDefault("FORECAST_REORDER_SUPPLY_DAYS", d.ReorderSupplyDays)
	v.SetDefault("FORECAST_STOCKOUT_FLOOR", d.StockoutDenominatorFloor)
	v.SetDefault("FORECAST_COST_FALLBACK_RATIO", d.CostFallbackRatio)
	v.SetDefault("FORECAST_RECOMMENDATION_HORIZON", d.RecommendationHorizon)
	v.SetDefault("FORECAST_LOOKBACK_DAYS", d.LookbackDays)
	v.SetDefault("FORECAST_TREND_LOOKBACK_DAYS", d.TrendLookbackDays)
	v.SetDefault("FORECAST_CONCURRENCY", d.Concurrency)
	v.SetDefault("FORECAST_RECOMMENDATION_TIMEOUT_SECONDS", 20)
}

func build(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			RequestTimeout: v.GetInt("SERVER_REQUEST_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:                 v.GetString("DB_HOST"),
			Port:                 v.GetString("DB_PORT"),
			User:                 v.GetString("DB_USER"),
			Password:             v.GetString("DB_PASSWORD"),
			DBName:               v.GetString("DB_NAME"),
			SSLMode:              v.GetString("DB_SSLMODE"),
			MaxConcurrentQueries: v.GetInt("DB_MAX_CONCURRENT_QUERIES"),
		},
		App: AppConfig{
			DataDir: v.GetString("APP_DATA_DIR"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			DashboardTTLSeconds: v.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
		},
		Forecast: ForecastConfig{
			MovingAverageWindow:       v.GetInt("FORECAST_MOVING_AVERAGE_WINDOW"),
			SmoothingAlpha:            v.GetFloat64("FORECAST_SMOOTHING_ALPHA"),
			MinHistory:                v.GetInt("FORECAST_MIN_HISTORY"),
			MinTrendHistory:           v.GetInt("FORECAST_MIN_TREND_HISTORY"),
			HighConfidenceDays:        v.GetInt("FORECAST_HIGH_CONFIDENCE_DAYS"),
			TrendThresholdPercent:     v.GetFloat64("FORECAST_TREND_THRESHOLD_PERCENT"),
			CriticalDays:              v.GetFloat64("FORECAST_CRITICAL_DAYS"),
			HighDays:                  v.GetFloat64("FORECAST_HIGH_DAYS"),
			ReorderSupplyDays:         v.GetFloat64("FORECAST_REORDER_SUPPLY_DAYS"),
			StockoutFloor:             v.GetFloat64("FORECAST_STOCKOUT_FLOOR"),
			CostFallbackRatio:         v.GetFloat64("FORECAST_COST_FALLBACK_RATIO"),
			RecommendationHorizon:     v.GetInt("FORECAST_RECOMMENDATION_HORIZON"),
			LookbackDays:              v.GetInt("FORECAST_LOOKBACK_DAYS"),
			TrendLookbackDays:         v.GetInt("FORECAST_TREND_LOOKBACK_DAYS"),
			Concurrency:               v.GetInt("FORECAST_CONCURRENCY"),
			RecommendationTimeoutSecs: v.GetInt("FORECAST_RECOMMENDATION_TIMEOUT_SECONDS"),
		},
	}
}

// Params maps the forecast section onto engine parameters. Seasonal tables
// keep their built-in values.
func (c ForecastConfig) Params() forecast.Params {
	p := forecast.DefaultParams()
	p.MovingAverageWindow = c.MovingAverageWindow
	p.SmoothingAlpha = c.SmoothingAlpha
	p.MinHistoryForForecast = c.MinHistory
	p.MinHistoryForTrend = c.MinTrendHistory
	p.HighConfidenceHistoryDays = c.HighConfidenceDays
	p.TrendThresholdPercent = c.TrendThresholdPercent
	p.CriticalDaysThreshold = c.CriticalDays
	p.HighDaysThreshold = c.HighDays
	p.ReorderSupplyDays = c.ReorderSupplyDays
	p.StockoutDenominatorFloor = c.StockoutFloor
	p.CostFallbackRatio = c.CostFallbackRatio
	p.RecommendationHorizon = c.RecommendationHorizon
	p.LookbackDays = c.LookbackDays
	p.TrendLookbackDays = c.TrendLookbackDays
	p.Concurrency = c.Concurrency
	return p
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
