package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/deptstore/internal/domain"
)

// Builder собирает валидную заявку на заказ из последовательности ответов
// оператора. До полного успеха валидации хранилище не трогается вовсе;
// любой некорректный ввод отменяет заявку целиком.
type Builder struct {
	src    PromptSource
	logger *log.Entry
}

// NewBuilder создаёт билдер поверх источника ввода.
func NewBuilder(src PromptSource, logger *log.Entry) *Builder {
	if logger == nil {
		logger = log.WithField("component", "order-builder")
	}
	return &Builder{src: src, logger: logger}
}

// Build опрашивает оператора и возвращает заявку для типа kind.
func (b *Builder) Build(kind domain.OrderKind) (domain.OrderRequest, error) {
	req := domain.OrderRequest{Kind: kind}

	for {
		productID, err := b.readPositiveInt("Enter a product ID: ", "product_id")
		if err != nil {
			return domain.OrderRequest{}, err
		}
		quantity, err := b.readPositiveInt("Enter the quantity sold: ", "quantity")
		if err != nil {
			return domain.OrderRequest{}, err
		}
		req.Lines = append(req.Lines, domain.LineItem{ProductID: productID, Quantity: quantity})

		more, err := b.src.ReadEntry("Is there another product in the order?: ")
		if err != nil {
			return domain.OrderRequest{}, err
		}
		if answer := strings.ToLower(more); answer == "n" || answer == "no" {
			break
		}
	}

	orderDate, err := b.readDate("Enter the date sold: ", "order_date")
	if err != nil {
		return domain.OrderRequest{}, err
	}
	req.OrderDate = orderDate

	switch kind {
	case domain.OrderKindCollection:
		if err := b.collectFulfillment(&req, "collection", "collector"); err != nil {
			return domain.OrderRequest{}, err
		}
	case domain.OrderKindDelivery:
		if err := b.collectFulfillment(&req, "delivery", "recipient"); err != nil {
			return domain.OrderRequest{}, err
		}
		if err := b.collectAddress(&req); err != nil {
			return domain.OrderRequest{}, err
		}
	}

	staffID, err := b.readPositiveInt("Enter your staff ID: ", "staff_id")
	if err != nil {
		return domain.OrderRequest{}, err
	}
	req.StaffID = staffID

	if errs := req.ValidateInvariants(); len(errs) > 0 {
		b.logger.WithField("kind", string(kind)).WithField("errors", len(errs)).
			Debug("order request failed invariant check")
		return domain.OrderRequest{}, &domain.ValidationError{Field: "order", Err: errors.Join(errs...)}
	}
	return req, nil
}

func (b *Builder) collectFulfillment(req *domain.OrderRequest, event, person string) error {
	date, err := b.readDate(fmt.Sprintf("Enter the date of %s: ", event), "fulfillment_date")
	if err != nil {
		return err
	}
	req.FulfillmentDate = date

	first, err := b.readNonEmpty(fmt.Sprintf("Enter the first name of the %s: ", person), "first_name")
	if err != nil {
		return err
	}
	last, err := b.readNonEmpty(fmt.Sprintf("Enter the last name of the %s: ", person), "last_name")
	if err != nil {
		return err
	}
	req.Recipient = domain.Recipient{FirstName: first, LastName: last}
	return nil
}

func (b *Builder) collectAddress(req *domain.OrderRequest) error {
	house, err := b.readNonEmpty("Enter the house name or number: ", "house")
	if err != nil {
		return err
	}
	street, err := b.readNonEmpty("Enter the street name: ", "street")
	if err != nil {
		return err
	}
	city, err := b.readNonEmpty("Enter the city name: ", "city")
	if err != nil {
		return err
	}
	req.Address = domain.Address{House: house, Street: street, City: city}
	return nil
}

func (b *Builder) readPositiveInt(prompt, field string) (int, error) {
	raw, err := b.src.ReadEntry(prompt)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Err: fmt.Errorf("not a number: %q", raw)}
	}
	if value <= 0 {
		return 0, &domain.ValidationError{Field: field, Err: fmt.Errorf("must be a positive integer, got %d", value)}
	}
	return value, nil
}

func (b *Builder) readDate(prompt, field string) (time.Time, error) {
	raw, err := b.src.ReadEntry(prompt)
	if err != nil {
		return time.Time{}, err
	}
	date, err := domain.ParseOrderDate(raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Err: err}
	}
	return date, nil
}

func (b *Builder) readNonEmpty(prompt, field string) (string, error) {
	raw, err := b.src.ReadEntry(prompt)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", &domain.ValidationError{Field: field, Err: fmt.Errorf("value is required")}
	}
	return raw, nil
}
