package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository"
)

// Failure is a product that could not be evaluated during a batch.
type Failure struct {
	ProductID string
	Err       error
}

// FailureReporter receives per-product failures of a recommendation batch.
type FailureReporter interface {
	ReportFailure(ctx context.Context, businessID string, f Failure)
}

// FailureReporterFunc adapts a function to FailureReporter.
type FailureReporterFunc func(ctx context.Context, businessID string, f Failure)

func (fn FailureReporterFunc) ReportFailure(ctx context.Context, businessID string, f Failure) {
	fn(ctx, businessID, f)
}

type logReporter struct{}

func (logReporter) ReportFailure(_ context.Context, businessID string, f Failure) {
	log.Warn().
		Err(f.Err).
		Str("business_id", businessID).
		Str("product_id", f.ProductID).
		Msg("reorder: skipping product")
}

// Batch is the outcome of a recommendation run.
type Batch struct {
	Recommendations []domain.Recommendation
	Failures        []Failure
	// Skipped lists products without enough history to forecast.
	Skipped []string
}

// Recommender ranks restock suggestions across a business's catalog.
type Recommender struct {
	engine   *Engine
	catalog  repository.InventoryCatalog
	history  repository.SalesHistoryProvider
	reporter FailureReporter
}

// NewRecommender wires the engine to its data sources. A nil reporter logs
// failures through zerolog.
func NewRecommender(engine *Engine, catalog repository.InventoryCatalog, history repository.SalesHistoryProvider, reporter FailureReporter) *Recommender {
	if reporter == nil {
		reporter = logReporter{}
	}
	return &Recommender{
		engine:   engine,
		catalog:  catalog,
		history:  history,
		reporter: reporter,
	}
}

type outcome struct {
	rec     *domain.Recommendation
	skipped bool
	err     error
}

// GenerateRecommendations evaluates every active product concurrently and
// returns the triggered recommendations, highest priority first. Products
// with equal priority keep catalog order.
//
// A failing product is reported and left out; it never aborts the batch. If
// ctx ends mid-run the products evaluated so far are returned along with the
// context error.
func (r *Recommender) GenerateRecommendations(ctx context.Context, businessID string, today time.Time) (*Batch, error) {
	if businessID == "" {
		return nil, ErrMissingBusinessID
	}

	products, err := r.catalog.ListActiveProducts(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}

	outcomes := make([]outcome, len(products))

	var g errgroup.Group
	g.SetLimit(r.engine.params.concurrency())
	for i, product := range products {
		if err := ctx.Err(); err != nil {
			outcomes[i] = outcome{err: err}
			continue
		}
		g.Go(func() error {
			outcomes[i] = r.evaluate(ctx, businessID, product, today)
			return nil
		})
	}
	// Workers never return errors so one product cannot cancel the others.
	_ = g.Wait()

	batch := &Batch{Recommendations: make([]domain.Recommendation, 0, len(products))}
	for i, o := range outcomes {
		switch {
		case o.err != nil:
			f := Failure{ProductID: products[i].ID, Err: o.err}
			batch.Failures = append(batch.Failures, f)
			if !isContextErr(o.err) {
				r.reporter.ReportFailure(ctx, businessID, f)
			}
		case o.skipped:
			batch.Skipped = append(batch.Skipped, products[i].ID)
		case o.rec != nil:
			batch.Recommendations = append(batch.Recommendations, *o.rec)
		}
	}

	sort.SliceStable(batch.Recommendations, func(i, j int) bool {
		return batch.Recommendations[i].Priority.Rank() > batch.Recommendations[j].Priority.Rank()
	})

	if err := ctx.Err(); err != nil {
		return batch, fmt.Errorf("recommendations interrupted after %d of %d products: %w",
			len(products)-countContextErrs(batch.Failures), len(products), err)
	}
	return batch, nil
}

func (r *Recommender) evaluate(ctx context.Context, businessID string, product domain.ProductSnapshot, today time.Time) outcome {
	if err := validateSnapshot(product); err != nil {
		return outcome{err: err}
	}
	if err := ctx.Err(); err != nil {
		return outcome{err: err}
	}

	history, err := r.history.GetHistory(ctx, businessID, product.ID, r.engine.params.LookbackDays)
	if err != nil {
		return outcome{err: fmt.Errorf("fetch sales history: %w", err)}
	}

	result, err := r.engine.ForecastDemand(history, r.engine.params.RecommendationHorizon, today)
	if err != nil {
		return outcome{err: err}
	}
	if result.Insufficient() {
		return outcome{skipped: true}
	}

	return outcome{rec: r.engine.Recommend(product, result)}
}

// Recommend derives runway, priority and order size for a product from its
// forecast. It returns nil when the product does not need restocking.
func (e *Engine) Recommend(product domain.ProductSnapshot, result *domain.ForecastResult) *domain.Recommendation {
	if result.Insufficient() {
		return nil
	}

	var total int
	for _, p := range result.Points {
		total += p.PredictedDemand
	}
	days := float64(len(result.Points))
	avgDailyDemand := float64(total) / days

	daysUntilStockout := float64(product.StockQuantity) / math.Max(avgDailyDemand, e.params.StockoutDenominatorFloor)

	if daysUntilStockout > e.params.HighDaysThreshold && product.StockQuantity > product.ReorderPoint {
		return nil
	}

	// total*supply/days keeps whole-number products exact before the ceiling.
	suggested := int(math.Ceil(float64(total) * e.params.ReorderSupplyDays / days))

	unitCost := product.CostPrice
	if unitCost <= 0 {
		unitCost = product.SellingPrice * e.params.CostFallbackRatio
	}

	return &domain.Recommendation{
		ProductID:              product.ID,
		ProductName:            product.Name,
		CurrentStock:           product.StockQuantity,
		PredictedDailyDemand:   roundFloat(avgDailyDemand, 2),
		DaysUntilStockout:      roundFloat(daysUntilStockout, 1),
		SuggestedOrderQuantity: suggested,
		Priority:               e.priorityFor(daysUntilStockout),
		Confidence:             result.Confidence,
		EstimatedCost:          roundFloat(float64(suggested)*unitCost, 2),
	}
}

func (e *Engine) priorityFor(daysUntilStockout float64) domain.Priority {
	switch {
	case daysUntilStockout <= e.params.CriticalDaysThreshold:
		return domain.PriorityCritical
	case daysUntilStockout <= e.params.HighDaysThreshold:
		return domain.PriorityHigh
	default:
		return domain.PriorityMedium
	}
}

func validateSnapshot(p domain.ProductSnapshot) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, ErrMissingProductID)
	case p.StockQuantity < 0:
		return fmt.Errorf("%w: negative stock %d", ErrInvalidSnapshot, p.StockQuantity)
	case p.CostPrice < 0 || p.SellingPrice < 0:
		return fmt.Errorf("%w: negative price", ErrInvalidSnapshot)
	case math.IsNaN(p.CostPrice) || math.IsNaN(p.SellingPrice):
		return fmt.Errorf("%w: price is not a number", ErrInvalidSnapshot)
	case math.IsInf(p.CostPrice, 0) || math.IsInf(p.SellingPrice, 0):
		return fmt.Errorf("%w: price is infinite", ErrInvalidSnapshot)
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func countContextErrs(failures []Failure) int {
	var n int
	for _, f := range failures {
		if isContextErr(f.Err) {
			n++
		}
	}
	return n
}
