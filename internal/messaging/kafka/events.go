package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события оформления заказа.
type EventType string

const (
	// EventTypeOrderPlaced — заказ зафиксирован вместе со списанием остатков.
	EventTypeOrderPlaced EventType = "order.placed"
	// EventTypeOrderRejected — заказ откатился целиком (остатки не тронуты).
	EventTypeOrderRejected EventType = "order.rejected"
)

// Topics для Kafka
const (
	TopicOrderEvents = "deptstore.order.events"
)

// OrderEvent — публикуемое событие оформления заказа.
type OrderEvent struct {
	ID        string                 `json:"id"`
	EventType EventType              `json:"event_type"`
	OrderID   int64                  `json:"order_id,omitempty"`
	Kind      string                 `json:"kind"`
	Completed bool                   `json:"completed"`
	StaffID   int                    `json:"staff_id"`
	LineCount int                    `json:"line_count"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создаёт событие с уникальным идентификатором.
func NewOrderEvent(eventType EventType, orderID int64, kind string, completed bool, staffID, lineCount int, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		OrderID:   orderID,
		Kind:      kind,
		Completed: completed,
		StaffID:   staffID,
		LineCount: lineCount,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
