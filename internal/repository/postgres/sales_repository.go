package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository"
)

type salesRow struct {
	SaleDate      time.Time     `db:"sale_date"`
	DailyQuantity sql.NullInt64 `db:"daily_quantity"`
}

type salesRepository struct {
	db  *DB
	now func() time.Time
}

var _ repository.SalesHistoryProvider = (*salesRepository)(nil)

// NewSalesRepository reads daily sales totals. now anchors the lookback
// window; nil uses the wall clock.
func NewSalesRepository(db *DB, now func() time.Time) *salesRepository {
	if now == nil {
		now = time.Now
	}
	return &salesRepository{db: db, now: now}
}

func (r *salesRepository) GetHistory(ctx context.Context, businessID, productID string, lookbackDays int) ([]domain.SalesHistoryPoint, error) {
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("lookback must be positive, got %d", lookbackDays)
	}

	query := `
		SELECT
			DATE(s.created_at) AS sale_date,
			SUM(si.quantity)::bigint AS daily_quantity
		FROM sales_sale s
		JOIN sales_saleitem si ON s.id = si.sale_id
		WHERE s.business_id = $1
		AND si.product_id = $2
		AND s.created_at >= $3
		GROUP BY DATE(s.created_at)
		ORDER BY sale_date
	`

	cutoff := r.now().UTC().AddDate(0, 0, -lookbackDays)

	var rows []salesRow
	if err := r.db.selectContext(ctx, &rows, query, businessID, productID, cutoff); err != nil {
		return nil, fmt.Errorf("error getting sales history for product %s: %w", productID, err)
	}

	return toHistory(rows)
}

// toHistory validates raw rows into an ascending, non-negative history.
func toHistory(rows []salesRow) ([]domain.SalesHistoryPoint, error) {
	history := make([]domain.SalesHistoryPoint, 0, len(rows))
	for _, row := range rows {
		if !row.DailyQuantity.Valid {
			continue
		}
		if row.DailyQuantity.Int64 < 0 {
			return nil, fmt.Errorf("negative daily quantity %d on %s",
				row.DailyQuantity.Int64, row.SaleDate.Format("2006-01-02"))
		}
		history = append(history, domain.SalesHistoryPoint{
			Date:     row.SaleDate,
			Quantity: int(row.DailyQuantity.Int64),
		})
	}

	sort.SliceStable(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })
	return history, nil
}
