package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/deptstore/internal/domain"
)

// Product — товар инвентаря in-memory хранилища.
type Product struct {
	ProductID   int
	Description string
	PriceMinor  int64
	Quantity    int
}

// StaffMember — сотрудник, на которого можно оформить продажу.
type StaffMember struct {
	StaffID   int
	FirstName string
	LastName  string
}

// OrderRecord — сохранённый заказ.
type OrderRecord struct {
	OrderID   int64
	Kind      domain.OrderKind
	Placed    time.Time
	Completed bool
	StaffID   int
}

// LineRecord — сохранённая позиция заказа.
type LineRecord struct {
	OrderID   int64
	ProductID int
	Quantity  int
}

// CollectionRecord — запись о самовывозе.
type CollectionRecord struct {
	OrderID        int64
	Recipient      domain.Recipient
	CollectionDate time.Time
}

// DeliveryRecord — запись о доставке.
type DeliveryRecord struct {
	OrderID      int64
	Recipient    domain.Recipient
	Address      domain.Address
	DeliveryDate time.Time
}

// Store — in-memory реализация транзакционного хранилища для локальной
// разработки и тестов. Begin захватывает общий мьютекс до Commit/Rollback,
// поэтому складской гейт атомарен: конкурентные заказы сериализуются,
// и два заказа не могут увести остаток в минус.
type Store struct {
	mu          sync.Mutex
	products    map[int]Product
	staff       map[int]StaffMember
	orders      map[int64]OrderRecord
	lines       []LineRecord
	collections []CollectionRecord
	deliveries  []DeliveryRecord
	nextOrderID int64
}

// NewStore возвращает пустое хранилище; наполняется через SeedProduct/SeedStaff.
func NewStore() *Store {
	return &Store{
		products: make(map[int]Product),
		staff:    make(map[int]StaffMember),
		orders:   make(map[int64]OrderRecord),
	}
}

// SeedProduct добавляет или перезаписывает товар инвентаря.
func (s *Store) SeedProduct(productID int, description string, priceMinor int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productID] = Product{
		ProductID:   productID,
		Description: description,
		PriceMinor:  priceMinor,
		Quantity:    quantity,
	}
}

// SeedStaff добавляет сотрудника.
func (s *Store) SeedStaff(staffID int, firstName, lastName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[staffID] = StaffMember{StaffID: staffID, FirstName: firstName, LastName: lastName}
}

// Begin открывает транзакционную сессию. Сессия работает на отложенных
// изменениях и переносит их в хранилище только при Commit.
func (s *Store) Begin(ctx context.Context) (domain.OrderTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()

	stock := make(map[int]int, len(s.products))
	for id, p := range s.products {
		stock[id] = p.Quantity
	}
	return &orderTx{store: s, stock: stock, nextOrderID: s.nextOrderID}, nil
}

// Quantity возвращает зафиксированный остаток товара; -1 для неизвестного товара.
func (s *Store) Quantity(productID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return -1
	}
	return p.Quantity
}

// Orders возвращает снимок всех зафиксированных заказов.
func (s *Store) Orders() []OrderRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OrderRecord, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out
}

// Lines возвращает снимок позиций заказа в порядке вставки.
func (s *Store) Lines(orderID int64) []LineRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LineRecord
	for _, l := range s.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out
}

// Collection возвращает запись о самовывозе заказа, если она есть.
func (s *Store) Collection(orderID int64) (CollectionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.collections {
		if c.OrderID == orderID {
			return c, true
		}
	}
	return CollectionRecord{}, false
}

// Delivery возвращает запись о доставке заказа, если она есть.
func (s *Store) Delivery(orderID int64) (DeliveryRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.deliveries {
		if d.OrderID == orderID {
			return d, true
		}
	}
	return DeliveryRecord{}, false
}

// orderTx накапливает изменения сессии и применяет их атомарно при Commit.
type orderTx struct {
	store *Store
	done  bool

	stock       map[int]int
	nextOrderID int64
	orders      []OrderRecord
	lines       []LineRecord
	collections []CollectionRecord
	deliveries  []DeliveryRecord
}

func (tx *orderTx) CreateOrder(ctx context.Context, kind domain.OrderKind, placed time.Time, completed bool, staffID int) (int64, error) {
	if err := tx.check(ctx); err != nil {
		return 0, err
	}
	if _, ok := tx.store.staff[staffID]; !ok {
		return 0, fmt.Errorf("%w: staff %d", domain.ErrInvalidReference, staffID)
	}

	tx.nextOrderID++
	tx.orders = append(tx.orders, OrderRecord{
		OrderID:   tx.nextOrderID,
		Kind:      kind,
		Placed:    placed,
		Completed: completed,
		StaffID:   staffID,
	})
	return tx.nextOrderID, nil
}

func (tx *orderTx) AddLineItem(ctx context.Context, orderID int64, productID, quantity int) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if !tx.ownsOrder(orderID) {
		return fmt.Errorf("%w: order %d", domain.ErrInvalidReference, orderID)
	}
	available, ok := tx.stock[productID]
	if !ok {
		return fmt.Errorf("%w: product %d", domain.ErrInvalidReference, productID)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity %d", domain.ErrInvalidReference, quantity)
	}
	if available < quantity {
		return fmt.Errorf("%w: product %d has %d, requested %d",
			domain.ErrInsufficientStock, productID, available, quantity)
	}

	tx.stock[productID] = available - quantity
	tx.lines = append(tx.lines, LineRecord{OrderID: orderID, ProductID: productID, Quantity: quantity})
	return nil
}

func (tx *orderTx) AddCollectionRecord(ctx context.Context, orderID int64, recipient domain.Recipient, collectionDate time.Time) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if !tx.ownsOrder(orderID) {
		return fmt.Errorf("%w: order %d", domain.ErrInvalidReference, orderID)
	}
	tx.collections = append(tx.collections, CollectionRecord{
		OrderID:        orderID,
		Recipient:      recipient,
		CollectionDate: collectionDate,
	})
	return nil
}

func (tx *orderTx) AddDeliveryRecord(ctx context.Context, orderID int64, recipient domain.Recipient, addr domain.Address, deliveryDate time.Time) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if !tx.ownsOrder(orderID) {
		return fmt.Errorf("%w: order %d", domain.ErrInvalidReference, orderID)
	}
	tx.deliveries = append(tx.deliveries, DeliveryRecord{
		OrderID:      orderID,
		Recipient:    recipient,
		Address:      addr,
		DeliveryDate: deliveryDate,
	})
	return nil
}

func (tx *orderTx) GetQuantity(ctx context.Context, productID int) (int, error) {
	if err := tx.check(ctx); err != nil {
		return 0, err
	}
	qty, ok := tx.stock[productID]
	if !ok {
		return 0, fmt.Errorf("%w: product %d", domain.ErrInvalidReference, productID)
	}
	return qty, nil
}

// Commit переносит отложенные изменения в хранилище и снимает блокировку.
func (tx *orderTx) Commit(ctx context.Context) error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	if err := ctx.Err(); err != nil {
		// Контекст истёк — изменения не применяем, но сессию закрываем.
		tx.finish()
		return err
	}

	s := tx.store
	for id, qty := range tx.stock {
		p := s.products[id]
		p.Quantity = qty
		s.products[id] = p
	}
	for _, o := range tx.orders {
		s.orders[o.OrderID] = o
	}
	s.lines = append(s.lines, tx.lines...)
	s.collections = append(s.collections, tx.collections...)
	s.deliveries = append(s.deliveries, tx.deliveries...)
	s.nextOrderID = tx.nextOrderID

	tx.finish()
	return nil
}

// Rollback отбрасывает отложенные изменения. Повторный вызов после
// Commit/Rollback безопасен и возвращает nil.
func (tx *orderTx) Rollback(_ context.Context) error {
	if tx.done {
		return nil
	}
	tx.finish()
	return nil
}

func (tx *orderTx) finish() {
	tx.done = true
	tx.store.mu.Unlock()
}

func (tx *orderTx) check(ctx context.Context) error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	return ctx.Err()
}

func (tx *orderTx) ownsOrder(orderID int64) bool {
	for _, o := range tx.orders {
		if o.OrderID == orderID {
			return true
		}
	}
	return false
}

var _ domain.Store = (*Store)(nil)
var _ domain.OrderTx = (*orderTx)(nil)
