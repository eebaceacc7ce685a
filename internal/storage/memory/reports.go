package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/deptstore/internal/domain"
)

// Отчётные агрегации in-memory хранилища. Повторяют представления
// PostgreSQL-схемы, чтобы консоль работала одинаково с обоими хранилищами.

func (s *Store) BiggestSellers(ctx context.Context) ([]domain.SellerRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[int]int64)
	for _, line := range s.lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			continue
		}
		totals[line.ProductID] += int64(line.Quantity) * p.PriceMinor
	}

	rows := make([]domain.SellerRow, 0, len(totals))
	for id, total := range totals {
		rows = append(rows, domain.SellerRow{
			ProductID:   id,
			Description: s.products[id].Description,
			TotalValue:  total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalValue != rows[j].TotalValue {
			return rows[i].TotalValue > rows[j].TotalValue
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	return rows, nil
}

func (s *Store) ReservedStock(ctx context.Context, before time.Time) ([]domain.ReservedStockRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []domain.ReservedStockRow
	for _, c := range s.collections {
		order, ok := s.orders[c.OrderID]
		if !ok || order.Completed || c.CollectionDate.After(before) {
			continue
		}
		for _, line := range s.lines {
			if line.OrderID != c.OrderID {
				continue
			}
			rows = append(rows, domain.ReservedStockRow{
				OrderID:        c.OrderID,
				ProductID:      line.ProductID,
				Quantity:       line.Quantity,
				CollectionDate: c.CollectionDate,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].OrderID < rows[j].OrderID })
	return rows, nil
}

func (s *Store) StaffLifetimeSuccess(ctx context.Context) ([]domain.StaffSalesRow, error) {
	return s.staffSales(ctx, func(OrderRecord) bool { return true })
}

func (s *Store) StaffContribution(ctx context.Context, year int) ([]domain.StaffSalesRow, error) {
	return s.staffSales(ctx, func(o OrderRecord) bool { return o.Placed.Year() == year })
}

func (s *Store) EmployeeOfTheYear(ctx context.Context, year int) ([]domain.StaffSalesRow, error) {
	rows, err := s.StaffContribution(ctx, year)
	if err != nil || len(rows) == 0 {
		return rows, err
	}
	// Несколько сотрудников с одинаковой максимальной выручкой делят титул.
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]domain.InventoryRow, 0, len(s.products))
	for _, p := range s.products {
		rows = append(rows, domain.InventoryRow{
			ProductID:   p.ProductID,
			Description: p.Description,
			PriceMinor:  p.PriceMinor,
			Quantity:    p.Quantity,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductID < rows[j].ProductID })
	return rows, nil
}

func (s *Store) staffSales(ctx context.Context, include func(OrderRecord) bool) ([]domain.StaffSalesRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[int]int64)
	for _, line := range s.lines {
		order, ok := s.orders[line.OrderID]
		if !ok || !include(order) {
			continue
		}
		p, ok := s.products[line.ProductID]
		if !ok {
			continue
		}
		totals[order.StaffID] += int64(line.Quantity) * p.PriceMinor
	}

	rows := make([]domain.StaffSalesRow, 0, len(totals))
	for staffID, total := range totals {
		member := s.staff[staffID]
		rows = append(rows, domain.StaffSalesRow{
			StaffID:    staffID,
			Name:       fmt.Sprintf("%s %s", member.FirstName, member.LastName),
			TotalValue: total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalValue != rows[j].TotalValue {
			return rows[i].TotalValue > rows[j].TotalValue
		}
		return rows[i].StaffID < rows[j].StaffID
	})
	return rows, nil
}

var _ domain.Reports = (*Store)(nil)
