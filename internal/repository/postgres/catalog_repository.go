package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository"
)

type productRow struct {
	ID                string          `db:"id"`
	Name              sql.NullString  `db:"name"`
	StockQuantity     sql.NullInt64   `db:"stock_quantity"`
	LowStockThreshold sql.NullInt64   `db:"low_stock_threshold"`
	ReorderPoint      sql.NullInt64   `db:"reorder_point"`
	SellingPrice      sql.NullFloat64 `db:"selling_price"`
	CostPrice         sql.NullFloat64 `db:"cost_price"`
}

type catalogRepository struct {
	db *DB
}

var _ repository.InventoryCatalog = (*catalogRepository)(nil)

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListActiveProducts(ctx context.Context, businessID string) ([]domain.ProductSnapshot, error) {
	query := `
		SELECT id, name, stock_quantity, low_stock_threshold,
		       reorder_point, selling_price, cost_price
		FROM inventory_product
		WHERE business_id = $1 AND is_active = true
		ORDER BY name, id
	`

	var rows []productRow
	if err := r.db.selectContext(ctx, &rows, query, businessID); err != nil {
		return nil, fmt.Errorf("error listing active products: %w", err)
	}

	products := make([]domain.ProductSnapshot, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toSnapshot())
	}
	return products, nil
}

// toSnapshot maps NULL columns to zero values. Range checks happen in the
// recommender so a bad row fails only its own product.
func (row productRow) toSnapshot() domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:                row.ID,
		Name:              row.Name.String,
		StockQuantity:     int(row.StockQuantity.Int64),
		LowStockThreshold: int(row.LowStockThreshold.Int64),
		ReorderPoint:      int(row.ReorderPoint.Int64),
		SellingPrice:      row.SellingPrice.Float64,
		CostPrice:         row.CostPrice.Float64,
	}
}
