// backend-go/internal/repository/forecast_repository.go
package repository

import (
	"context"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
)

// SalesHistoryProvider returns the daily sales of a product over the last
// lookbackDays days, ascending by date. An empty history is not an error.
type SalesHistoryProvider interface {
	GetHistory(ctx context.Context, businessID, productID string, lookbackDays int) ([]domain.SalesHistoryPoint, error)
}

// InventoryCatalog lists the active products of a business.
type InventoryCatalog interface {
	ListActiveProducts(ctx context.Context, businessID string) ([]domain.ProductSnapshot, error)
}
