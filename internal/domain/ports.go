package domain

import (
	"context"
	"time"
)

// Store — порт транзакционного хранилища склада и заказов.
// Каждое оформление заказа получает собственную транзакционную сессию.
type Store interface {
	// Begin открывает транзакционную область видимости заказа.
	Begin(ctx context.Context) (OrderTx, error)
}

// OrderTx — одна транзакционная сессия оформления заказа. Все записи внутри
// сессии фиксируются или отменяются вместе: Rollback обязан отменить всё,
// включая списания остатков. Удаление заказа каскадно удаляет его позиции
// и запись об исполнении — это гарантия хранилища, не клиента.
type OrderTx interface {
	// CreateOrder сохраняет строку заказа и возвращает назначенный
	// хранилищем идентификатор; значение <= 0 — провал создания.
	CreateOrder(ctx context.Context, kind OrderKind, placed time.Time, completed bool, staffID int) (int64, error)
	// AddLineItem атомарно проверяет остаток и списывает его. Проверка и
	// списание — одна неделимая операция: два конкурентных заказа не могут
	// одновременно пройти проверку и увести остаток в минус.
	AddLineItem(ctx context.Context, orderID int64, productID, quantity int) error
	// AddCollectionRecord сохраняет запись о самовывозе.
	AddCollectionRecord(ctx context.Context, orderID int64, recipient Recipient, collectionDate time.Time) error
	// AddDeliveryRecord сохраняет запись о доставке.
	AddDeliveryRecord(ctx context.Context, orderID int64, recipient Recipient, addr Address, deliveryDate time.Time) error
	// GetQuantity возвращает текущий остаток товара в рамках сессии.
	GetQuantity(ctx context.Context, productID int) (int, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// InventoryRow — строка инвентаря для отображения оператору.
type InventoryRow struct {
	ProductID   int
	Description string
	PriceMinor  int64
	Quantity    int
}

// SellerRow — строка отчёта о самых продаваемых товарах.
type SellerRow struct {
	ProductID   int
	Description string
	TotalValue  int64
}

// ReservedStockRow — остаток, удерживаемый несостоявшимся самовывозом.
type ReservedStockRow struct {
	OrderID        int64
	ProductID      int
	Quantity       int
	CollectionDate time.Time
}

// StaffSalesRow — суммарные продажи сотрудника.
type StaffSalesRow struct {
	StaffID    int
	Name       string
	TotalValue int64
}

// Reports — читающие отчётные представления. Агрегации считаются
// хранилищем и потребляются как есть.
type Reports interface {
	// BiggestSellers возвращает товары по убыванию суммарной выручки.
	BiggestSellers(ctx context.Context) ([]SellerRow, error)
	// ReservedStock возвращает остатки, удерживаемые незавершёнными
	// самовывозами с датой не позже before.
	ReservedStock(ctx context.Context, before time.Time) ([]ReservedStockRow, error)
	// StaffLifetimeSuccess возвращает сотрудников по убыванию продаж за всё время.
	StaffLifetimeSuccess(ctx context.Context) ([]StaffSalesRow, error)
	// StaffContribution возвращает продажи сотрудников за указанный год.
	StaffContribution(ctx context.Context, year int) ([]StaffSalesRow, error)
	// EmployeeOfTheYear возвращает лучших сотрудников года по выручке.
	EmployeeOfTheYear(ctx context.Context, year int) ([]StaffSalesRow, error)
	// Inventory возвращает полный список товаров с остатками.
	Inventory(ctx context.Context) ([]InventoryRow, error)
}
