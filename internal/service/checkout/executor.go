package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/deptstore/internal/domain"
	"github.com/vladislavdragonenkov/deptstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/deptstore/internal/metrics"
)

// defaultTxTimeout ограничивает транзакцию заказа; истечение срока —
// такой же отказ доступа к данным, как любой другой, с полным откатом.
const defaultTxTimeout = 15 * time.Second

// Executor выполняет атомарный переход «заказа нет» → «заказ полностью
// сохранён» либо «наблюдаемых изменений нет». Жизненный цикл вызова:
// Start → TransactionOpen → HeaderInserted → LineItemsInserted →
// FulfillmentInserted → Committed; первый отказ в любой точке ведёт
// в RolledBack. Оба конечных состояния терминальны.
type Executor struct {
	store    domain.Store
	logger   *log.Entry
	metrics  *metrics.CheckoutMetrics
	producer *kafka.Producer // опциональный producer событий оформления
	timeout  time.Duration
}

// NewExecutor создаёт рабочий экземпляр исполнителя заказов.
func NewExecutor(store domain.Store, logger *log.Entry) *Executor {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Executor{
		store:   store,
		logger:  logger,
		metrics: metrics.NewCheckoutMetrics(),
		timeout: defaultTxTimeout,
	}
}

// NewExecutorWithKafka создаёт исполнитель, публикующий события заказов в Kafka.
func NewExecutorWithKafka(store domain.Store, producer *kafka.Producer, logger *log.Entry) *Executor {
	e := NewExecutor(store, logger)
	e.producer = producer
	return e
}

// NewExecutorWithoutMetrics создаёт исполнитель без метрик (для тестов).
func NewExecutorWithoutMetrics(store domain.Store, logger *log.Entry) *Executor {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Executor{
		store:   store,
		logger:  logger,
		timeout: defaultTxTimeout,
	}
}

// Place оформляет заявку. Успех означает, что заказ, его позиции,
// списания остатков и запись об исполнении зафиксированы вместе; любой
// отказ означает, что хранилище не изменилось вовсе. Ошибка RollbackError
// сигнализирует о возможно несогласованной сессии — вызывающая сторона
// обязана прекратить дальнейшее оформление.
func (e *Executor) Place(ctx context.Context, req domain.OrderRequest) (domain.Receipt, error) {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.RecordOrderStarted()
	}
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordOrderDuration(time.Since(start))
		}
	}()

	// Проверки до открытия транзакции: хранилище не трогаем.
	completed, err := req.Kind.Completed()
	if err != nil {
		return domain.Receipt{}, err
	}
	if req.OrderDate.IsZero() {
		return domain.Receipt{}, domain.ErrInvalidDate
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("begin order transaction: %w", err)
	}

	receipt, err := e.run(ctx, tx, req, completed)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			if e.metrics != nil {
				e.metrics.RecordRollbackFailed()
			}
			e.logger.WithError(rbErr).WithField("cause", err.Error()).
				Error("rollback failed, session may be left inconsistent")
			return domain.Receipt{}, &domain.RollbackError{Cause: err, RollbackErr: rbErr}
		}
		if e.metrics != nil {
			e.metrics.RecordOrderRolledBack()
		}
		e.logger.WithError(err).WithField("kind", string(req.Kind)).Warn("order rolled back")
		e.publishEvent(kafka.EventTypeOrderRejected, 0, req, completed, err)
		return domain.Receipt{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordOrderCommitted(len(req.Lines))
	}
	e.logger.WithFields(log.Fields{
		"order_id":  receipt.OrderID,
		"kind":      string(req.Kind),
		"completed": receipt.Completed,
		"lines":     len(req.Lines),
	}).Info("order committed")
	e.publishEvent(kafka.EventTypeOrderPlaced, receipt.OrderID, req, completed, nil)

	return receipt, nil
}

// run проводит заявку через все шаги до Commit включительно.
// Возвращённая ошибка означает, что вызывающая сторона должна откатить tx.
func (e *Executor) run(ctx context.Context, tx domain.OrderTx, req domain.OrderRequest, completed bool) (domain.Receipt, error) {
	orderID, err := tx.CreateOrder(ctx, req.Kind, req.OrderDate, completed, req.StaffID)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: %v", domain.ErrOrderCreationFailed, err)
	}
	if orderID <= 0 {
		return domain.Receipt{}, fmt.Errorf("%w: store returned order id %d", domain.ErrOrderCreationFailed, orderID)
	}

	// Позиции вставляются в порядке заявки; повторяющиеся товары проходят
	// складской гейт последовательно, без слияния количеств.
	for _, line := range req.Lines {
		if err := tx.AddLineItem(ctx, orderID, line.ProductID, line.Quantity); err != nil {
			if e.metrics != nil && domain.IsInsufficientStock(err) {
				e.metrics.RecordStockRejection()
			}
			return domain.Receipt{}, &domain.LineItemError{ProductID: line.ProductID, Reason: err}
		}
	}

	switch req.Kind {
	case domain.OrderKindCollection:
		if err := tx.AddCollectionRecord(ctx, orderID, req.Recipient, req.FulfillmentDate); err != nil {
			return domain.Receipt{}, fmt.Errorf("%w: %v", domain.ErrFulfillmentRecordFailed, err)
		}
	case domain.OrderKindDelivery:
		if err := tx.AddDeliveryRecord(ctx, orderID, req.Recipient, req.Address, req.FulfillmentDate); err != nil {
			return domain.Receipt{}, fmt.Errorf("%w: %v", domain.ErrFulfillmentRecordFailed, err)
		}
	}

	// Остатки читаются в ещё открытой транзакции, до Commit: область
	// видимости наблюдает собственные списания.
	levels := make([]domain.StockLevel, 0, len(req.Lines))
	seen := make(map[int]struct{}, len(req.Lines))
	for _, line := range req.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}

		qty, err := tx.GetQuantity(ctx, line.ProductID)
		if err != nil {
			return domain.Receipt{}, fmt.Errorf("read stock level for product %d: %w", line.ProductID, err)
		}
		levels = append(levels, domain.StockLevel{ProductID: line.ProductID, Quantity: qty})
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: %v", domain.ErrCommitFailed, err)
	}

	return domain.Receipt{OrderID: orderID, Completed: completed, StockLevels: levels}, nil
}

// publishEvent отправляет событие оформления, если producer настроен.
// Ошибка публикации не влияет на исход заказа.
func (e *Executor) publishEvent(eventType kafka.EventType, orderID int64, req domain.OrderRequest, completed bool, cause error) {
	if e.producer == nil {
		return
	}

	var metadata map[string]interface{}
	if cause != nil {
		metadata = map[string]interface{}{"reason": cause.Error()}
	}
	event := kafka.NewOrderEvent(eventType, orderID, string(req.Kind), completed, req.StaffID, len(req.Lines), metadata)

	key := strconv.FormatInt(orderID, 10)
	if err := e.producer.PublishEvent(kafka.TopicOrderEvents, key, event); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   orderID,
		}).Warn("failed to publish order event to kafka")
	}
}
