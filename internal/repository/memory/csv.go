package memory

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
)

const dateLayout = "2006-01-02"

var (
	salesColumns   = []string{"business_id", "product_id", "date", "quantity"}
	productColumns = []string{"business_id", "id", "name", "stock_quantity", "reorder_point"}
)

// row gives header-addressed access to a CSV record.
type row struct {
	record []string
	cols   map[string]int
	line   int
}

func (r row) value(col string) string {
	if idx, ok := r.cols[col]; ok && idx < len(r.record) {
		return strings.TrimSpace(r.record[idx])
	}
	return ""
}

func (r row) int(col string) (int, error) {
	v := r.value(col)
	if v == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	// Exports often write whole numbers as "4.0".
	f, err := r.float(col)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("line %d: column %s: %q is not a whole number", r.line, col, v)
	}
	return int(f), nil
}

func (r row) float(col string) (float64, error) {
	v := r.value(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %w", r.line, col, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("line %d: column %s: %q is not a finite number", r.line, col, v)
	}
	return f, nil
}

func (r row) bool(col string, fallback bool) bool {
	v := strings.ToLower(r.value(col))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "t" || v == "yes"
}

// readRows reads a header row, checks required columns and calls fn per record.
func readRows(rd io.Reader, required []string, fn func(row) error) error {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return fmt.Errorf("missing required column: %s", col)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		if err := fn(row{record: record, cols: cols, line: line}); err != nil {
			return err
		}
	}
}

// LoadSalesCSV reads rows of business_id, product_id, date (YYYY-MM-DD) and
// quantity. Rows for the same product and day are summed.
func (s *Store) LoadSalesCSV(rd io.Reader) (int, error) {
	var n int
	err := readRows(rd, salesColumns, func(r row) error {
		date, err := time.Parse(dateLayout, r.value("date"))
		if err != nil {
			return fmt.Errorf("line %d: invalid date: %w", r.line, err)
		}
		qty, err := r.int("quantity")
		if err != nil {
			return err
		}
		productID := r.value("product_id")
		if productID == "" {
			return fmt.Errorf("line %d: product_id is empty", r.line)
		}
		if err := s.AddSale(r.value("business_id"), productID, date, qty); err != nil {
			return fmt.Errorf("line %d: %w", r.line, err)
		}
		n++
		return nil
	})
	return n, err
}

// LoadProductsCSV reads catalog rows. Rows with is_active=false are ignored.
func (s *Store) LoadProductsCSV(rd io.Reader) (int, error) {
	var n int
	err := readRows(rd, productColumns, func(r row) error {
		if !r.bool("is_active", true) {
			return nil
		}

		p := domain.ProductSnapshot{
			ID:   r.value("id"),
			Name: r.value("name"),
		}
		var err error
		if p.StockQuantity, err = r.int("stock_quantity"); err != nil {
			return err
		}
		if p.LowStockThreshold, err = r.int("low_stock_threshold"); err != nil {
			return err
		}
		if p.ReorderPoint, err = r.int("reorder_point"); err != nil {
			return err
		}
		if p.SellingPrice, err = r.float("selling_price"); err != nil {
			return err
		}
		if p.CostPrice, err = r.float("cost_price"); err != nil {
			return err
		}

		s.AddProduct(r.value("business_id"), p)
		n++
		return nil
	})
	return n, err
}
