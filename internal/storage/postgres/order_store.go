package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/deptstore/internal/domain"
)

const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Begin открывает транзакцию оформления заказа на уровне READ COMMITTED.
// Атомарность складского гейта обеспечивает не уровень изоляции, а
// неделимый UPDATE с условием на остаток: проигравший конкурент получает
// ноль затронутых строк, а не отрицательный остаток.
func (s *Store) Begin(ctx context.Context) (domain.OrderTx, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("postgres store is not initialized")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	return &orderTx{tx: tx}, nil
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) CreateOrder(ctx context.Context, kind domain.OrderKind, placed time.Time, completed bool, staffID int) (int64, error) {
	var orderID int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO orders (order_kind, order_placed, completed, staff_id)
		VALUES ($1, $2, $3, $4)
		RETURNING order_id
	`, string(kind), placed, completed, staffID).Scan(&orderID)
	if err != nil {
		return 0, mapConstraintError(fmt.Errorf("insert order: %w", err))
	}
	return orderID, nil
}

// AddLineItem проверяет и списывает остаток одним UPDATE: проверка и
// декремент неразделимы, поэтому два конкурентных заказа не могут оба
// пройти гейт на одном остатке.
func (t *orderTx) AddLineItem(ctx context.Context, orderID int64, productID, quantity int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity - $2
		WHERE product_id = $1 AND quantity >= $2
	`, productID, quantity)
	if err != nil {
		return mapConstraintError(fmt.Errorf("decrement stock for product %d: %w", productID, err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}
	if affected == 0 {
		var exists bool
		if err := t.tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM inventory WHERE product_id = $1)
		`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("check product %d: %w", productID, err)
		}
		if !exists {
			return fmt.Errorf("%w: product %d", domain.ErrInvalidReference, productID)
		}
		return fmt.Errorf("%w: product %d, requested %d", domain.ErrInsufficientStock, productID, quantity)
	}

	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_lines (order_id, product_id, quantity)
		VALUES ($1, $2, $3)
	`, orderID, productID, quantity); err != nil {
		return mapConstraintError(fmt.Errorf("insert order line: %w", err))
	}
	return nil
}

func (t *orderTx) AddCollectionRecord(ctx context.Context, orderID int64, recipient domain.Recipient, collectionDate time.Time) error {
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO collections (order_id, first_name, last_name, collection_date)
		VALUES ($1, $2, $3, $4)
	`, orderID, recipient.FirstName, recipient.LastName, collectionDate); err != nil {
		return mapConstraintError(fmt.Errorf("insert collection record: %w", err))
	}
	return nil
}

func (t *orderTx) AddDeliveryRecord(ctx context.Context, orderID int64, recipient domain.Recipient, addr domain.Address, deliveryDate time.Time) error {
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO deliveries (order_id, first_name, last_name, house, street, city, delivery_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, orderID, recipient.FirstName, recipient.LastName, addr.House, addr.Street, addr.City, deliveryDate); err != nil {
		return mapConstraintError(fmt.Errorf("insert delivery record: %w", err))
	}
	return nil
}

// GetQuantity читает остаток внутри открытой транзакции, поэтому видит
// собственные ещё не зафиксированные списания.
func (t *orderTx) GetQuantity(ctx context.Context, productID int) (int, error) {
	var quantity int
	err := t.tx.QueryRowContext(ctx, `
		SELECT quantity FROM inventory WHERE product_id = $1
	`, productID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: product %d", domain.ErrInvalidReference, productID)
		}
		return 0, fmt.Errorf("select stock for product %d: %w", productID, err)
	}
	return quantity, nil
}

func (t *orderTx) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.tx.Commit()
}

// Rollback после завершённой транзакции — не ошибка: драйвер уже
// откатил или зафиксировал её, сессия осталась согласованной.
func (t *orderTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// mapConstraintError переводит нарушения ограничений PostgreSQL в
// доменные ошибки: внешние ключи — несуществующие ссылки, check на
// остаток — нехватка товара.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", domain.ErrInvalidReference, pgErr.ConstraintName)
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, pgErr.ConstraintName)
	default:
		return err
	}
}

var _ domain.Store = (*Store)(nil)
var _ domain.OrderTx = (*orderTx)(nil)
