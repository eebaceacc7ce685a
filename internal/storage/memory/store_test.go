package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/deptstore/internal/domain"
	"github.com/vladislavdragonenkov/deptstore/internal/storage/memory"
)

func seededStore() *memory.Store {
	store := memory.NewStore()
	store.SeedProduct(10, "Garden Spade", 1299, 5)
	store.SeedProduct(11, "Watering Can", 799, 2)
	store.SeedStaff(1, "Dana", "Reeve")
	return store
}

func placeOrder(t *testing.T, store *memory.Store, productID, qty int) (int64, error) {
	t.Helper()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	orderID, err := tx.CreateOrder(ctx, domain.OrderKindInStore, time.Now().UTC(), true, 1)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.AddLineItem(ctx, orderID, productID, qty); err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	return orderID, nil
}

func TestStore_CommitAppliesDecrement(t *testing.T) {
	store := seededStore()

	orderID, err := placeOrder(t, store, 10, 3)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if got := store.Quantity(10); got != 2 {
		t.Fatalf("expected stock 2 after commit, got %d", got)
	}
	if lines := store.Lines(orderID); len(lines) != 1 || lines[0].Quantity != 3 {
		t.Fatalf("expected one committed line of qty 3, got %v", lines)
	}
}

func TestStore_RollbackRestoresEverything(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	orderID, err := tx.CreateOrder(ctx, domain.OrderKindCollection, time.Now().UTC(), false, 1)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := tx.AddLineItem(ctx, orderID, 10, 4); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if got := store.Quantity(10); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}
	if orders := store.Orders(); len(orders) != 0 {
		t.Fatalf("expected no committed orders, got %v", orders)
	}
	if lines := store.Lines(orderID); len(lines) != 0 {
		t.Fatalf("expected no committed lines, got %v", lines)
	}
}

func TestStore_StockGateRejectsOverdraw(t *testing.T) {
	store := seededStore()

	if _, err := placeOrder(t, store, 11, 3); !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := store.Quantity(11); got != 2 {
		t.Fatalf("expected stock unchanged at 2, got %d", got)
	}
}

func TestStore_UnknownReferences(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.CreateOrder(ctx, domain.OrderKindInStore, time.Now().UTC(), true, 99); !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("expected invalid reference for unknown staff, got %v", err)
	}
	orderID, err := tx.CreateOrder(ctx, domain.OrderKindInStore, time.Now().UTC(), true, 1)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := tx.AddLineItem(ctx, orderID, 404, 1); !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("expected invalid reference for unknown product, got %v", err)
	}
	if _, err := tx.GetQuantity(ctx, 404); !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("expected invalid reference for unknown product quantity, got %v", err)
	}
}

func TestStore_GetQuantityIdempotent(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	first, err := tx.GetQuantity(ctx, 10)
	if err != nil {
		t.Fatalf("get quantity: %v", err)
	}
	second, err := tx.GetQuantity(ctx, 10)
	if err != nil {
		t.Fatalf("get quantity: %v", err)
	}
	if first != second {
		t.Fatalf("expected idempotent reads, got %d then %d", first, second)
	}
}

func TestStore_ConcurrentOrders_NoOverdraw(t *testing.T) {
	store := memory.NewStore()
	store.SeedProduct(42, "Camping Stove", 4999, 3)
	store.SeedStaff(1, "Dana", "Reeve")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := placeOrderConcurrent(store, 42, 3)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case domain.IsInsufficientStock(err):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected exactly one success and one rejection, got %d/%d", succeeded, rejected)
	}
	if got := store.Quantity(42); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func placeOrderConcurrent(store *memory.Store, productID, qty int) (int64, error) {
	ctx := context.Background()
	tx, err := store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	orderID, err := tx.CreateOrder(ctx, domain.OrderKindInStore, time.Now().UTC(), true, 1)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.AddLineItem(ctx, orderID, productID, qty); err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return orderID, nil
}

func TestStore_Reports(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	if _, err := placeOrder(t, store, 10, 2); err != nil {
		t.Fatalf("place order: %v", err)
	}

	sellers, err := store.BiggestSellers(ctx)
	if err != nil {
		t.Fatalf("biggest sellers: %v", err)
	}
	if len(sellers) != 1 || sellers[0].ProductID != 10 || sellers[0].TotalValue != 2*1299 {
		t.Fatalf("unexpected sellers report: %v", sellers)
	}

	staff, err := store.StaffLifetimeSuccess(ctx)
	if err != nil {
		t.Fatalf("staff lifetime: %v", err)
	}
	if len(staff) != 1 || staff[0].StaffID != 1 || staff[0].TotalValue != 2*1299 {
		t.Fatalf("unexpected staff report: %v", staff)
	}

	inventory, err := store.Inventory(ctx)
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if len(inventory) != 2 || inventory[0].ProductID != 10 || inventory[0].Quantity != 3 {
		t.Fatalf("unexpected inventory: %v", inventory)
	}
}
