package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка неизвестного типа заказа; фиксируется до обращения к хранилищу.
	ErrInvalidOrderKind = errors.New("invalid order kind")
	// Ошибка нераспознанной или пустой даты.
	ErrInvalidDate = errors.New("invalid order date")
	// Ошибка отсутствия хотя бы одной позиции в заявке.
	ErrLinesRequired = errors.New("order must contain at least one line item")
	// Ошибка некорректного идентификатора товара (<= 0).
	ErrProductIDInvalid = errors.New("product id must be greater than zero")
	// Ошибка некорректного количества (<= 0).
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// Ошибка отсутствующей даты продажи.
	ErrOrderDateRequired = errors.New("order date is required")
	// Ошибка отсутствующей даты исполнения для Collection/Delivery.
	ErrFulfillmentDateRequired = errors.New("fulfillment date is required")
	// Ошибка даты исполнения раньше даты продажи.
	ErrFulfillmentBeforeOrder = errors.New("fulfillment date must not precede order date")
	// Ошибка отсутствующего получателя для Collection/Delivery.
	ErrRecipientRequired = errors.New("recipient first and last name are required")
	// Ошибка неполного адреса доставки.
	ErrAddressRequired = errors.New("delivery address is required")
	// Ошибка некорректного идентификатора сотрудника (<= 0).
	ErrStaffIDInvalid = errors.New("staff id must be greater than zero")

	// ErrOrderCreationFailed — хранилище не создало строку заказа
	// либо вернуло неположительный идентификатор.
	ErrOrderCreationFailed = errors.New("order creation failed")
	// ErrInsufficientStock — складской гейт отказал в списании остатка.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidReference — ссылка на несуществующий товар, сотрудника или заказ.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrFulfillmentRecordFailed — запись о самовывозе/доставке не сохранилась.
	ErrFulfillmentRecordFailed = errors.New("fulfillment record failed")
	// ErrCommitFailed — фиксация транзакции не удалась.
	ErrCommitFailed = errors.New("commit failed")
)

// ValidationError — ошибка валидации ввода. Возникает до любых обращений
// к хранилищу и означает, что заявку нужно отбросить целиком.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation проверяет, относится ли ошибка к классу валидации ввода.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// LineItemError — отказ конкретной позиции заказа. Причина может быть
// нехваткой остатка или нарушением ссылочной целостности; хранилище
// не всегда позволяет их различить.
type LineItemError struct {
	ProductID int
	Reason    error
}

func (e *LineItemError) Error() string {
	return fmt.Sprintf("line item for product %d rejected: %v", e.ProductID, e.Reason)
}

func (e *LineItemError) Unwrap() error { return e.Reason }

// RollbackError — самый тяжёлый класс отказа: откат после сорвавшегося
// заказа сам завершился ошибкой, транзакционная сессия может остаться
// в несогласованном состоянии. Дальнейшее оформление заказов в этой
// сессии должно быть остановлено.
type RollbackError struct {
	// Cause — отказ, из-за которого заказ откатывался.
	Cause error
	// RollbackErr — чем закончилась попытка отката.
	RollbackErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed (%v) after order failure: %v", e.RollbackErr, e.Cause)
}

func (e *RollbackError) Unwrap() error { return e.Cause }

// IsInsufficientStock проверяет, вызван ли отказ нехваткой остатка.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

// IsRollbackFailure проверяет, является ли ошибка провалом отката.
func IsRollbackFailure(err error) bool {
	var re *RollbackError
	return errors.As(err, &re)
}
