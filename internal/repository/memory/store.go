// Package memory holds catalog and sales data in process. The CLI loads it
// from CSV exports; tests use it as a fake data layer.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository"
)

type saleKey struct {
	businessID string
	productID  string
}

// Store implements repository.InventoryCatalog and repository.SalesHistoryProvider.
type Store struct {
	mu       sync.RWMutex
	products map[string][]domain.ProductSnapshot
	sales    map[saleKey]map[time.Time]int
	now      func() time.Time
}

var (
	_ repository.InventoryCatalog     = (*Store)(nil)
	_ repository.SalesHistoryProvider = (*Store)(nil)
)

// NewStore creates an empty Store. now anchors the lookback window; nil uses
// the wall clock.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		products: make(map[string][]domain.ProductSnapshot),
		sales:    make(map[saleKey]map[time.Time]int),
		now:      now,
	}
}

// AddProduct appends a product to the business catalog. Catalog order is
// insertion order.
func (s *Store) AddProduct(businessID string, p domain.ProductSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[businessID] = append(s.products[businessID], p)
}

// AddSale records quantity sold on date. Multiple sales on the same day are summed.
func (s *Store) AddSale(businessID, productID string, date time.Time, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("negative quantity %d for product %s on %s", quantity, productID, date.Format("2006-01-02"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := saleKey{businessID: businessID, productID: productID}
	days, ok := s.sales[key]
	if !ok {
		days = make(map[time.Time]int)
		s.sales[key] = days
	}
	days[truncateDay(date)] += quantity
	return nil
}

// AddHistory records a whole history for a product.
func (s *Store) AddHistory(businessID, productID string, history []domain.SalesHistoryPoint) error {
	for _, p := range history {
		if err := s.AddSale(businessID, productID, p.Date, p.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListActiveProducts(ctx context.Context, businessID string) ([]domain.ProductSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.ProductSnapshot, len(s.products[businessID]))
	copy(products, s.products[businessID])
	return products, nil
}

func (s *Store) GetHistory(ctx context.Context, businessID, productID string, lookbackDays int) ([]domain.SalesHistoryPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cutoff := truncateDay(s.now()).AddDate(0, 0, -lookbackDays)

	s.mu.RLock()
	defer s.mu.RUnlock()

	days := s.sales[saleKey{businessID: businessID, productID: productID}]
	history := make([]domain.SalesHistoryPoint, 0, len(days))
	for date, qty := range days {
		if date.Before(cutoff) {
			continue
		}
		history = append(history, domain.SalesHistoryPoint{Date: date, Quantity: qty})
	}

	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })
	return history, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
