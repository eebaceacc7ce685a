package domain

import "time"

// OrderKind определяет тип заказа и набор обязательных полей заявки.
type OrderKind string

const (
	// OrderKindInStore — продажа в магазине, исполняется в момент оформления.
	OrderKindInStore OrderKind = "In-Store"
	// OrderKindCollection — заказ с последующим самовывозом.
	OrderKindCollection OrderKind = "Collection"
	// OrderKindDelivery — заказ с доставкой по адресу.
	OrderKindDelivery OrderKind = "Delivery"
)

// Completed возвращает флаг завершённости заказа на момент оформления:
// In-Store закрывается сразу, Collection и Delivery ждут исполнения.
func (k OrderKind) Completed() (bool, error) {
	switch k {
	case OrderKindInStore:
		return true, nil
	case OrderKindCollection, OrderKindDelivery:
		return false, nil
	default:
		return false, ErrInvalidOrderKind
	}
}

// RequiresFulfillment сообщает, нужна ли заказу запись об исполнении
// (дата и получатель для Collection, плюс адрес для Delivery).
func (k OrderKind) RequiresFulfillment() bool {
	return k == OrderKindCollection || k == OrderKindDelivery
}

// LineItem — одна позиция заказа.
type LineItem struct {
	// ProductID — идентификатор товара в инвентаре.
	ProductID int
	// Quantity — количество проданных единиц, строго больше нуля.
	Quantity int
}

// Recipient — получатель заказа Collection/Delivery.
type Recipient struct {
	FirstName string
	LastName  string
}

// Address — адрес доставки для Delivery.
type Address struct {
	House  string
	Street string
	City   string
}

// OrderRequest — заявка на оформление заказа. Собирается билдером из ввода
// оператора и после валидации передаётся исполнителю без изменений.
type OrderRequest struct {
	Kind  OrderKind
	Lines []LineItem
	// OrderDate — дата продажи.
	OrderDate time.Time
	// FulfillmentDate — дата самовывоза или доставки; обязательна для
	// Collection/Delivery и не может быть раньше OrderDate.
	FulfillmentDate time.Time
	Recipient       Recipient
	Address         Address
	// StaffID — сотрудник, оформивший продажу.
	StaffID int
}

// ValidateInvariants проверяет инварианты заявки и возвращает список замечаний.
// Позиции с совпадающим ProductID допустимы: каждая проходит проверку остатка
// отдельно, в порядке ввода.
func (r *OrderRequest) ValidateInvariants() []error {
	var errs []error

	if _, err := r.Kind.Completed(); err != nil {
		errs = append(errs, err)
	}
	if len(r.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	for _, line := range r.Lines {
		if line.ProductID <= 0 {
			errs = append(errs, ErrProductIDInvalid)
		}
		if line.Quantity <= 0 {
			errs = append(errs, ErrQuantityInvalid)
		}
	}
	if r.OrderDate.IsZero() {
		errs = append(errs, ErrOrderDateRequired)
	}
	if r.StaffID <= 0 {
		errs = append(errs, ErrStaffIDInvalid)
	}

	if r.Kind.RequiresFulfillment() {
		if r.FulfillmentDate.IsZero() {
			errs = append(errs, ErrFulfillmentDateRequired)
		} else if !r.OrderDate.IsZero() && r.FulfillmentDate.Before(r.OrderDate) {
			errs = append(errs, ErrFulfillmentBeforeOrder)
		}
		if r.Recipient.FirstName == "" || r.Recipient.LastName == "" {
			errs = append(errs, ErrRecipientRequired)
		}
	}
	if r.Kind == OrderKindDelivery {
		if r.Address.House == "" || r.Address.Street == "" || r.Address.City == "" {
			errs = append(errs, ErrAddressRequired)
		}
	}

	return errs
}

// StockLevel — остаток товара, прочитанный внутри транзакции заказа.
type StockLevel struct {
	ProductID int
	Quantity  int
}

// Receipt — результат успешно зафиксированного заказа.
type Receipt struct {
	// OrderID назначается хранилищем; значения <= 0 исполнитель трактует
	// как провал создания заказа.
	OrderID   int64
	Completed bool
	// StockLevels — остатки по каждому товару заказа после списания.
	StockLevels []StockLevel
}
