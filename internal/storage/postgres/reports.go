package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/deptstore/internal/domain"
)

const reportTimeout = 5 * time.Second

// Отчётные запросы читают зафиксированное состояние; агрегации по выручке
// считаются представлениями схемы.

func (s *Store) BiggestSellers(ctx context.Context) ([]domain.SellerRow, error) {
	queryCtx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, `
		SELECT product_id, description, total_value FROM biggest_sellers
	`)
	if err != nil {
		return nil, fmt.Errorf("query biggest sellers: %w", err)
	}
	defer rows.Close()

	var out []domain.SellerRow
	for rows.Next() {
		var row domain.SellerRow
		if err := rows.Scan(&row.ProductID, &row.Description, &row.TotalValue); err != nil {
			return nil, fmt.Errorf("scan biggest sellers row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate biggest sellers: %w", err)
	}
	return out, nil
}

func (s *Store) ReservedStock(ctx context.Context, before time.Time) ([]domain.ReservedStockRow, error) {
	queryCtx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, `
		SELECT c.order_id, l.product_id, l.quantity, c.collection_date
		FROM collections c
		JOIN orders o ON o.order_id = c.order_id
		JOIN order_lines l ON l.order_id = c.order_id
		WHERE NOT o.completed AND c.collection_date <= $1
		ORDER BY c.order_id, l.line_id
	`, before)
	if err != nil {
		return nil, fmt.Errorf("query reserved stock: %w", err)
	}
	defer rows.Close()

	var out []domain.ReservedStockRow
	for rows.Next() {
		var row domain.ReservedStockRow
		if err := rows.Scan(&row.OrderID, &row.ProductID, &row.Quantity, &row.CollectionDate); err != nil {
			return nil, fmt.Errorf("scan reserved stock row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reserved stock: %w", err)
	}
	return out, nil
}

func (s *Store) StaffLifetimeSuccess(ctx context.Context) ([]domain.StaffSalesRow, error) {
	return s.staffSales(ctx, `
		SELECT staff_id, name, total_value FROM staff_lifetime_success
	`)
}

func (s *Store) StaffContribution(ctx context.Context, year int) ([]domain.StaffSalesRow, error) {
	return s.staffSales(ctx, `
		SELECT
			s.staff_id,
			s.first_name || ' ' || s.last_name AS name,
			SUM(l.quantity * i.price_minor) AS total_value
		FROM order_lines l
		JOIN orders o ON o.order_id = l.order_id
		JOIN inventory i ON i.product_id = l.product_id
		JOIN staff s ON s.staff_id = o.staff_id
		WHERE EXTRACT(YEAR FROM o.order_placed) = $1
		GROUP BY s.staff_id, s.first_name, s.last_name
		ORDER BY total_value DESC, s.staff_id
	`, year)
}

// EmployeeOfTheYear возвращает всех сотрудников с максимальной выручкой
// года: равные лидеры делят титул.
func (s *Store) EmployeeOfTheYear(ctx context.Context, year int) ([]domain.StaffSalesRow, error) {
	rows, err := s.StaffContribution(ctx, year)
	if err != nil || len(rows) == 0 {
		return rows, err
	}
	best := rows[0].TotalValue
	top := rows[:0:0]
	for _, row := range rows {
		if row.TotalValue == best {
			top = append(top, row)
		}
	}
	return top, nil
}

func (s *Store) Inventory(ctx context.Context) ([]domain.InventoryRow, error) {
	queryCtx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, `
		SELECT product_id, description, price_minor, quantity
		FROM inventory
		ORDER BY product_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var out []domain.InventoryRow
	for rows.Next() {
		var row domain.InventoryRow
		if err := rows.Scan(&row.ProductID, &row.Description, &row.PriceMinor, &row.Quantity); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return out, nil
}

func (s *Store) staffSales(ctx context.Context, query string, args ...interface{}) ([]domain.StaffSalesRow, error) {
	queryCtx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query staff sales: %w", err)
	}
	defer rows.Close()

	var out []domain.StaffSalesRow
	for rows.Next() {
		var row domain.StaffSalesRow
		if err := rows.Scan(&row.StaffID, &row.Name, &row.TotalValue); err != nil {
			return nil, fmt.Errorf("scan staff sales row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff sales: %w", err)
	}
	return out, nil
}

var _ domain.Reports = (*Store)(nil)
