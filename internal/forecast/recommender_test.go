package forecast

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository/memory"
)

const testBusiness = "biz-1"

type recordingReporter struct {
	mu       sync.Mutex
	failures []Failure
}

func (r *recordingReporter) ReportFailure(_ context.Context, _ string, f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

// historyFunc lets a test intercept history lookups.
type historyFunc func(ctx context.Context, businessID, productID string, lookbackDays int) ([]domain.SalesHistoryPoint, error)

func (fn historyFunc) GetHistory(ctx context.Context, businessID, productID string, lookbackDays int) ([]domain.SalesHistoryPoint, error) {
	return fn(ctx, businessID, productID, lookbackDays)
}

type catalogFunc func(ctx context.Context, businessID string) ([]domain.ProductSnapshot, error)

func (fn catalogFunc) ListActiveProducts(ctx context.Context, businessID string) ([]domain.ProductSnapshot, error) {
	return fn(ctx, businessID)
}

func newStore() *memory.Store {
	return memory.NewStore(func() time.Time { return testToday })
}

func addProduct(t *testing.T, store *memory.Store, p domain.ProductSnapshot, quantities ...int) {
	t.Helper()
	store.AddProduct(testBusiness, p)
	require.NoError(t, store.AddHistory(testBusiness, p.ID, makeHistory(testToday, quantities...)))
}

func newRecommender(t *testing.T, catalog repository.InventoryCatalog, history repository.SalesHistoryProvider, reporter FailureReporter) *Recommender {
	t.Helper()
	return NewRecommender(newTestEngine(t), catalog, history, reporter)
}

func productIDs(recs []domain.Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ProductID
	}
	return ids
}

func TestGenerateRecommendations_LowRunwayIsHighPriority(t *testing.T) {
	store := newStore()
	addProduct(t, store, domain.ProductSnapshot{
		ID: "p-1", Name: "Rice 5kg", StockQuantity: 20, ReorderPoint: 30, CostPrice: 2.5, SellingPrice: 4,
	}, repeat(4, 10)...)

	batch, err := newRecommender(t, store, store, nil).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)
	require.Len(t, batch.Recommendations, 1)

	rec := batch.Recommendations[0]
	assert.Equal(t, "p-1", rec.ProductID)
	assert.Equal(t, "Rice 5kg", rec.ProductName)
	assert.Equal(t, 20, rec.CurrentStock)
	// 58 units over 14 days
	assert.Equal(t, 4.14, rec.PredictedDailyDemand)
	assert.Equal(t, 4.8, rec.DaysUntilStockout)
	assert.Equal(t, domain.PriorityHigh, rec.Priority)
	assert.Equal(t, domain.ConfidenceMedium, rec.Confidence)
	assert.Equal(t, 87, rec.SuggestedOrderQuantity)
	assert.InDelta(t, 217.5, rec.EstimatedCost, 1e-9)
}

func TestGenerateRecommendations_NoHistoryIsSkipped(t *testing.T) {
	store := newStore()
	store.AddProduct(testBusiness, domain.ProductSnapshot{ID: "new", Name: "New item", StockQuantity: 5, ReorderPoint: 10})

	batch, err := newRecommender(t, store, store, nil).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)
	assert.Empty(t, batch.Recommendations)
	assert.Equal(t, []string{"new"}, batch.Skipped)
	assert.Empty(t, batch.Failures)
}

func TestGenerateRecommendations_HealthyStockNotRecommended(t *testing.T) {
	store := newStore()
	addProduct(t, store, domain.ProductSnapshot{ID: "plenty", StockQuantity: 1000, ReorderPoint: 50}, repeat(4, 20)...)
	addProduct(t, store, domain.ProductSnapshot{ID: "idle", StockQuantity: 3, ReorderPoint: 1}, repeat(0, 20)...)

	batch, err := newRecommender(t, store, store, nil).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)
	assert.Empty(t, batch.Recommendations)
}

func TestGenerateRecommendations_StableOrderWithinPriority(t *testing.T) {
	store := newStore()
	// avg demand is 58/14 with this history, so stock 10 -> 2.4 days, 20 -> 4.8 days, 100 -> 24 days
	addProduct(t, store, domain.ProductSnapshot{ID: "a-medium", StockQuantity: 100, ReorderPoint: 100}, repeat(4, 10)...)
	addProduct(t, store, domain.ProductSnapshot{ID: "b-critical", StockQuantity: 10}, repeat(4, 10)...)
	addProduct(t, store, domain.ProductSnapshot{ID: "c-medium", StockQuantity: 90, ReorderPoint: 120}, repeat(4, 10)...)
	addProduct(t, store, domain.ProductSnapshot{ID: "d-critical", StockQuantity: 0}, repeat(4, 10)...)
	addProduct(t, store, domain.ProductSnapshot{ID: "e-high", StockQuantity: 20}, repeat(4, 10)...)
	addProduct(t, store, domain.ProductSnapshot{ID: "f-high", StockQuantity: 25}, repeat(4, 10)...)

	batch, err := newRecommender(t, store, store, nil).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"b-critical", "d-critical", "e-high", "f-high", "a-medium", "c-medium"},
		productIDs(batch.Recommendations))
}

func TestGenerateRecommendations_CostFallsBackToSellingPrice(t *testing.T) {
	store := newStore()
	addProduct(t, store, domain.ProductSnapshot{ID: "p", StockQuantity: 20, SellingPrice: 10}, repeat(4, 10)...)

	batch, err := newRecommender(t, store, store, nil).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)
	require.Len(t, batch.Recommendations, 1)
	assert.InDelta(t, 87*7.0, batch.Recommendations[0].EstimatedCost, 1e-9)
}

func TestGenerateRecommendations_ZeroDemandOrdersNothing(t *testing.T) {
	store := newStore()
	addProduct(t, store, domain.ProductSnapshot{ID: "slow", StockQuantity: 5, ReorderPoint: 10, CostPrice: 3}, repeat(0, 10)...)

	batch, err := newRecommender(t, store, store, nil).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)
	require.Len(t, batch.Recommendations, 1)

	rec := batch.Recommendations[0]
	assert.Equal(t, 0, rec.SuggestedOrderQuantity)
	assert.Equal(t, 0.0, rec.EstimatedCost)
	// 5 / 0.1 floor
	assert.Equal(t, 50.0, rec.DaysUntilStockout)
	assert.Equal(t, domain.PriorityMedium, rec.Priority)
}

func TestGenerateRecommendations_FailuresDoNotAbortBatch(t *testing.T) {
	store := newStore()
	addProduct(t, store, domain.ProductSnapshot{ID: "ok-1", StockQuantity: 10}, repeat(4, 10)...)
	addProduct(t, store, domain.ProductSnapshot{ID: "broken", StockQuantity: 10}, repeat(4, 10)...)
	store.AddProduct(testBusiness, domain.ProductSnapshot{ID: "", Name: "no id", StockQuantity: 1})
	addProduct(t, store, domain.ProductSnapshot{ID: "ok-2", StockQuantity: 10}, repeat(4, 10)...)

	upstream := errors.New("connection reset")
	history := historyFunc(func(ctx context.Context, businessID, productID string, lookbackDays int) ([]domain.SalesHistoryPoint, error) {
		if productID == "broken" {
			return nil, upstream
		}
		return store.GetHistory(ctx, businessID, productID, lookbackDays)
	})

	reporter := &recordingReporter{}
	batch, err := newRecommender(t, store, history, reporter).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)

	assert.Equal(t, []string{"ok-1", "ok-2"}, productIDs(batch.Recommendations))
	require.Len(t, batch.Failures, 2)
	assert.Equal(t, "broken", batch.Failures[0].ProductID)
	assert.ErrorIs(t, batch.Failures[0].Err, upstream)
	assert.ErrorIs(t, batch.Failures[1].Err, ErrInvalidSnapshot)
	assert.Len(t, reporter.failures, 2)
}

func TestGenerateRecommendations_NonFinitePriceIsRejected(t *testing.T) {
	store := newStore()
	addProduct(t, store, domain.ProductSnapshot{ID: "inf", StockQuantity: 2, ReorderPoint: 10, CostPrice: math.Inf(1)}, repeat(4, 10)...)
	addProduct(t, store, domain.ProductSnapshot{ID: "ok", StockQuantity: 2, ReorderPoint: 10, CostPrice: 1}, repeat(4, 10)...)

	batch, err := newRecommender(t, store, store, &recordingReporter{}).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, productIDs(batch.Recommendations))
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, "inf", batch.Failures[0].ProductID)
	assert.ErrorIs(t, batch.Failures[0].Err, ErrInvalidSnapshot)
}

func TestGenerateRecommendations_CatalogFailure(t *testing.T) {
	down := errors.New("catalog down")
	catalog := catalogFunc(func(context.Context, string) ([]domain.ProductSnapshot, error) {
		return nil, down
	})

	batch, err := newRecommender(t, catalog, newStore(), nil).GenerateRecommendations(context.Background(), testBusiness, testToday)
	assert.ErrorIs(t, err, down)
	assert.Nil(t, batch)
}

func TestGenerateRecommendations_MissingBusiness(t *testing.T) {
	store := newStore()
	_, err := newRecommender(t, store, store, nil).GenerateRecommendations(context.Background(), "", testToday)
	assert.ErrorIs(t, err, ErrMissingBusinessID)
}

func TestGenerateRecommendations_CancellationKeepsCollectedResults(t *testing.T) {
	store := newStore()
	for _, id := range []string{"first", "second", "third"} {
		addProduct(t, store, domain.ProductSnapshot{ID: id, StockQuantity: 10}, repeat(4, 10)...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	history := historyFunc(func(ctx context.Context, businessID, productID string, lookbackDays int) ([]domain.SalesHistoryPoint, error) {
		if productID == "second" {
			cancel()
			return nil, ctx.Err()
		}
		return store.GetHistory(ctx, businessID, productID, lookbackDays)
	})

	params := DefaultParams()
	params.Concurrency = 1
	engine, err := NewEngine(params)
	require.NoError(t, err)

	reporter := &recordingReporter{}
	batch, err := NewRecommender(engine, store, history, reporter).GenerateRecommendations(ctx, testBusiness, testToday)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, batch)
	assert.Equal(t, []string{"first"}, productIDs(batch.Recommendations))
	assert.Len(t, batch.Failures, 2)
	assert.Empty(t, reporter.failures)
}

func TestGenerateRecommendations_BoundedConcurrency(t *testing.T) {
	store := newStore()
	for i := 0; i < 40; i++ {
		addProduct(t, store, domain.ProductSnapshot{ID: string(rune('A' + i)), StockQuantity: 10}, repeat(4, 10)...)
	}

	var inFlight, peak int32
	history := historyFunc(func(ctx context.Context, businessID, productID string, lookbackDays int) ([]domain.SalesHistoryPoint, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return store.GetHistory(ctx, businessID, productID, lookbackDays)
	})

	params := DefaultParams()
	params.Concurrency = 4
	engine, err := NewEngine(params)
	require.NoError(t, err)

	batch, err := NewRecommender(engine, store, history, nil).GenerateRecommendations(context.Background(), testBusiness, testToday)
	require.NoError(t, err)
	assert.Len(t, batch.Recommendations, 40)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))

	// all critical, so catalog order is preserved
	for i, rec := range batch.Recommendations {
		assert.Equal(t, string(rune('A'+i)), rec.ProductID)
	}
}

func TestRecommend_PriorityBoundaries(t *testing.T) {
	engine := newTestEngine(t)
	result := &domain.ForecastResult{Confidence: domain.ConfidenceHigh}
	for i := 0; i < 14; i++ {
		result.Points = append(result.Points, domain.ForecastPoint{PredictedDemand: 2})
	}

	cases := []struct {
		stock int
		want  domain.Priority
	}{
		{0, domain.PriorityCritical},
		{6, domain.PriorityCritical},
		{7, domain.PriorityHigh},
		{14, domain.PriorityHigh},
	}
	for _, tc := range cases {
		rec := engine.Recommend(domain.ProductSnapshot{ID: "p", StockQuantity: tc.stock}, result)
		require.NotNil(t, rec, "stock %d", tc.stock)
		assert.Equal(t, tc.want, rec.Priority, "stock %d", tc.stock)
		assert.Equal(t, 42, rec.SuggestedOrderQuantity)
	}

	assert.Nil(t, engine.Recommend(domain.ProductSnapshot{ID: "p", StockQuantity: 15}, result))

	rec := engine.Recommend(domain.ProductSnapshot{ID: "p", StockQuantity: 15, ReorderPoint: 15}, result)
	require.NotNil(t, rec)
	assert.Equal(t, domain.PriorityMedium, rec.Priority)
}
