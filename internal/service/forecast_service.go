package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/supawave/pos-ecosystem/backend-go/internal/cache"
	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
	"github.com/supawave/pos-ecosystem/backend-go/internal/forecast"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository"
	"github.com/supawave/pos-ecosystem/backend-go/internal/storage"
)

const (
	DefaultHorizonDays = 14
	MaxHorizonDays     = 365
	dashboardTopN      = 10
	exportKeyLayout    = "20060102-150405"
	// Upload budget for a partial export whose run context already ended.
	partialUploadTimeout = 10 * time.Second
)

// ErrExportUnavailable is returned when no object storage is configured.
var ErrExportUnavailable = errors.New("export storage is not configured")

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// ExportResult locates an uploaded recommendations CSV.
type ExportResult struct {
	Key     string `json:"key"`
	Items   int    `json:"items"`
	Partial bool   `json:"partial,omitempty"`
}

// IsInterrupted reports whether err means a run was cut short by its context.
// Results returned alongside such an error are partial, not invalid.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type ForecastService struct {
	engine      *forecast.Engine
	recommender *forecast.Recommender
	history     repository.SalesHistoryProvider
	cache       cache.ForecastDashboardCache
	exports     storage.ObjectStorage
	now         Clock
}

// NewForecastService wires the engine to its data sources. cacheImpl, exports
// and now are optional.
func NewForecastService(
	engine *forecast.Engine,
	catalog repository.InventoryCatalog,
	history repository.SalesHistoryProvider,
	cacheImpl cache.ForecastDashboardCache,
	exports storage.ObjectStorage,
	now Clock,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	if now == nil {
		now = time.Now
	}
	return &ForecastService{
		engine:      engine,
		recommender: forecast.NewRecommender(engine, catalog, history, nil),
		history:     history,
		cache:       cacheImpl,
		exports:     exports,
		now:         now,
	}
}

// ForecastProduct forecasts demand for one product. A zero horizon uses the
// default of 14 days.
func (s *ForecastService) ForecastProduct(ctx context.Context, businessID, productID string, horizonDays int) (*domain.ForecastResult, error) {
	if err := requireIDs(businessID, productID); err != nil {
		return nil, err
	}
	if horizonDays == 0 {
		horizonDays = DefaultHorizonDays
	}
	if horizonDays > MaxHorizonDays {
		return nil, fmt.Errorf("%w: at most %d days, got %d", forecast.ErrInvalidHorizon, MaxHorizonDays, horizonDays)
	}

	history, err := s.history.GetHistory(ctx, businessID, productID, s.engine.Params().LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch sales history: %w", err)
	}

	return s.engine.ForecastDemand(history, horizonDays, s.now())
}

func (s *ForecastService) AnalyzeProductTrend(ctx context.Context, businessID, productID string) (*domain.TrendResult, error) {
	if err := requireIDs(businessID, productID); err != nil {
		return nil, err
	}

	history, err := s.history.GetHistory(ctx, businessID, productID, s.engine.Params().TrendLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch sales history: %w", err)
	}

	return s.engine.AnalyzeTrends(history), nil
}

// RecommendReorders runs the recommender over the business's catalog. When
// ctx ends mid-run the partial report is returned together with the error.
func (s *ForecastService) RecommendReorders(ctx context.Context, businessID string) (*domain.RecommendationReport, error) {
	generatedAt := s.now()
	batch, err := s.recommender.GenerateRecommendations(ctx, businessID, generatedAt)
	if batch == nil {
		return nil, err
	}

	report := &domain.RecommendationReport{
		Recommendations: batch.Recommendations,
		GeneratedAt:     generatedAt,
		TotalItems:      len(batch.Recommendations),
		Partial:         err != nil,
	}
	for _, f := range batch.Failures {
		report.FailedItems = append(report.FailedItems, domain.ProductFailure{
			ProductID: f.ProductID,
			Error:     f.Err.Error(),
		})
	}

	if len(batch.Skipped) > 0 {
		log.Debug().
			Str("business_id", businessID).
			Int("skipped", len(batch.Skipped)).
			Msg("reorder: products without enough history")
	}

	return report, err
}

// GetDashboard summarizes a reorder run: counts per priority, the total cost
// and the most urgent recommendations. If the run is interrupted the partial
// dashboard is returned with the error and is not cached.
func (s *ForecastService) GetDashboard(ctx context.Context, businessID string) (*domain.ForecastDashboard, error) {
	if businessID == "" {
		return nil, forecast.ErrMissingBusinessID
	}

	if dashboard, ok, err := s.cache.GetDashboard(ctx, businessID); err == nil && ok {
		return dashboard, nil
	} else if err != nil {
		log.Warn().Err(err).Str("business_id", businessID).Msg("forecast: cache get dashboard failed")
	}

	report, err := s.RecommendReorders(ctx, businessID)
	if report == nil {
		return nil, err
	}

	dashboard := summarize(report)
	if err != nil {
		return dashboard, err
	}

	if err := s.cache.SetDashboard(ctx, businessID, dashboard); err != nil {
		log.Warn().Err(err).Str("business_id", businessID).Msg("forecast: cache set dashboard failed")
	}

	return dashboard, nil
}

// RefreshDashboard drops the cached dashboard of a business and recomputes it.
func (s *ForecastService) RefreshDashboard(ctx context.Context, businessID string) (*domain.ForecastDashboard, error) {
	if businessID == "" {
		return nil, forecast.ErrMissingBusinessID
	}
	if err := s.cache.Invalidate(ctx, businessID); err != nil {
		return nil, fmt.Errorf("invalidate dashboard cache: %w", err)
	}
	return s.GetDashboard(ctx, businessID)
}

func summarize(report *domain.RecommendationReport) *domain.ForecastDashboard {
	dashboard := &domain.ForecastDashboard{
		TotalRecommendations: len(report.Recommendations),
		GeneratedAt:          report.GeneratedAt,
		Partial:              report.Partial,
	}

	total := decimal.Zero
	for _, rec := range report.Recommendations {
		switch rec.Priority {
		case domain.PriorityCritical:
			dashboard.CriticalStockouts++
		case domain.PriorityHigh:
			dashboard.HighPriorityReorders++
		}
		total = total.Add(decimal.NewFromFloat(rec.EstimatedCost))
	}
	dashboard.EstimatedReorderCost = total.Round(2).InexactFloat64()

	top := report.Recommendations
	if len(top) > dashboardTopN {
		top = top[:dashboardTopN]
	}
	dashboard.Recommendations = append(make([]domain.Recommendation, 0, len(top)), top...)

	return dashboard
}

var exportHeader = []string{
	"product_id",
	"product_name",
	"current_stock",
	"predicted_daily_demand",
	"days_until_stockout",
	"suggested_order_quantity",
	"priority",
	"confidence",
	"estimated_cost",
}

// ExportRecommendations writes the current recommendations as CSV to object
// storage. An interrupted run still uploads what it collected, under a key
// ending in -partial, and returns the result together with the error.
func (s *ForecastService) ExportRecommendations(ctx context.Context, businessID string) (*ExportResult, error) {
	if s.exports == nil {
		return nil, ErrExportUnavailable
	}

	report, runErr := s.RecommendReorders(ctx, businessID)
	if report == nil {
		return nil, runErr
	}

	data, err := encodeRecommendations(report.Recommendations)
	if err != nil {
		return nil, err
	}

	stamp := report.GeneratedAt.UTC().Format(exportKeyLayout)
	uploadCtx := ctx
	if report.Partial {
		stamp += "-partial"
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), partialUploadTimeout)
		defer cancel()
	}

	key := fmt.Sprintf("reorders/%s/%s.csv", businessID, stamp)
	if err := s.exports.UploadObject(uploadCtx, key, data); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	log.Info().
		Str("business_id", businessID).
		Str("key", key).
		Int("items", len(report.Recommendations)).
		Bool("partial", report.Partial).
		Msg("reorder: exported recommendations")
	return &ExportResult{Key: key, Items: len(report.Recommendations), Partial: report.Partial}, runErr
}

func encodeRecommendations(recs []domain.Recommendation) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}
	for _, rec := range recs {
		record := []string{
			rec.ProductID,
			rec.ProductName,
			strconv.Itoa(rec.CurrentStock),
			decimal.NewFromFloat(rec.PredictedDailyDemand).StringFixed(2),
			decimal.NewFromFloat(rec.DaysUntilStockout).StringFixed(1),
			strconv.Itoa(rec.SuggestedOrderQuantity),
			string(rec.Priority),
			string(rec.Confidence),
			decimal.NewFromFloat(rec.EstimatedCost).StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush export: %w", err)
	}
	return buf.Bytes(), nil
}

func requireIDs(businessID, productID string) error {
	if businessID == "" {
		return forecast.ErrMissingBusinessID
	}
	if productID == "" {
		return forecast.ErrMissingProductID
	}
	return nil
}
