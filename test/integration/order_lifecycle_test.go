package integration

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/deptstore/internal/console"
	"github.com/vladislavdragonenkov/deptstore/internal/domain"
	"github.com/vladislavdragonenkov/deptstore/internal/service/checkout"
	"github.com/vladislavdragonenkov/deptstore/internal/storage/memory"
)

// OrderLifecycleTestSuite тестирует полный путь заказа: ввод оператора,
// сборку заявки, транзакционное оформление и отчёты.
type OrderLifecycleTestSuite struct {
	suite.Suite
	store    *memory.Store
	executor *checkout.Executor
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.store = memory.NewStore()
	suite.store.SeedProduct(101, "Electric Kettle", 2500, 5)
	suite.store.SeedProduct(205, "Toaster", 1800, 2)
	suite.store.SeedStaff(42, "Jo", "Bloggs")
	suite.store.SeedStaff(43, "Sam", "Carter")

	suite.executor = checkout.NewExecutorWithoutMetrics(suite.store, logger)
}

func (suite *OrderLifecycleTestSuite) runSession(answers ...string) string {
	out := &bytes.Buffer{}
	src := console.NewPromptSource(strings.NewReader(strings.Join(answers, "\n")+"\n"), out)
	menu := console.NewMenu(src, out, suite.executor, suite.store, nil)

	require.NoError(suite.T(), menu.Run(context.Background()))
	return out.String()
}

// Успешная продажа списывает остаток и показывает его оператору до выхода.
func (suite *OrderLifecycleTestSuite) TestInStoreSaleDecrementsStock() {
	output := suite.runSession(
		"1",
		"101", "3",
		"n",
		"14-Feb-24",
		"42",
		"0",
	)

	suite.Equal(2, suite.store.Quantity(101))
	suite.Contains(output, "Product ID 101 stock is now at 2")
	suite.Contains(output, "placed successfully")

	orders := suite.store.Orders()
	suite.Require().Len(orders, 1)
	suite.Equal(domain.OrderKindInStore, orders[0].Kind)
	suite.True(orders[0].Completed)
}

// Нехватка остатка откатывает заказ целиком: ни заказа, ни списаний.
func (suite *OrderLifecycleTestSuite) TestInsufficientStockRollsBackEverything() {
	output := suite.runSession(
		"1",
		"101", "2", // первая позиция проходит
		"y",
		"205", "5", // в наличии только 2
		"n",
		"14-Feb-24",
		"42",
		"0",
	)

	suite.Equal(5, suite.store.Quantity(101))
	suite.Equal(2, suite.store.Quantity(205))
	suite.Empty(suite.store.Orders())
	suite.Contains(output, "An error occurred while trying to add the order:")
	suite.Contains(output, "Order unsuccessful - rolling back...")
}

// Дата самовывоза раньше даты продажи отклоняется до обращения к хранилищу.
func (suite *OrderLifecycleTestSuite) TestCollectionBeforeOrderDateNeverTouchesStore() {
	counting := &countingStore{inner: suite.store}
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel)
	executor := checkout.NewExecutorWithoutMetrics(counting, baseLogger.WithField("component", "integration-test"))

	out := &bytes.Buffer{}
	script := strings.Join([]string{
		"2",
		"101", "1",
		"n",
		"10-Mar-24",
		"05-Mar-24",
		"Bob", "Jones",
		"42",
		"0",
	}, "\n") + "\n"
	src := console.NewPromptSource(strings.NewReader(script), out)
	menu := console.NewMenu(src, out, executor, suite.store, nil)

	suite.Require().NoError(menu.Run(context.Background()))

	suite.Zero(counting.begins)
	suite.Contains(out.String(), "Order abandoned:")
	suite.Equal(5, suite.store.Quantity(101))
}

// Заказ с доставкой сохраняет запись об исполнении вместе с заказом.
func (suite *OrderLifecycleTestSuite) TestDeliveryOrderPersistsFulfillmentRecord() {
	suite.runSession(
		"3",
		"205", "1",
		"n",
		"01-Mar-24",
		"05-Mar-24",
		"Alice", "Smith",
		"12", "High Street", "Leeds",
		"43",
		"0",
	)

	orders := suite.store.Orders()
	suite.Require().Len(orders, 1)
	suite.False(orders[0].Completed)

	record, ok := suite.store.Delivery(orders[0].OrderID)
	suite.Require().True(ok)
	suite.Equal("Alice", record.Recipient.FirstName)
	suite.Equal("Leeds", record.Address.City)
	suite.Equal(1, suite.store.Quantity(205))
}

// Продажи попадают в отчёты сразу после фиксации.
func (suite *OrderLifecycleTestSuite) TestCommittedSalesVisibleInReports() {
	suite.runSession(
		"1",
		"101", "2",
		"n",
		"14-Feb-24",
		"42",
		"0",
	)

	sellers, err := suite.store.BiggestSellers(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(sellers, 1)
	suite.Equal(101, sellers[0].ProductID)
	suite.Equal(int64(5000), sellers[0].TotalValue)

	staff, err := suite.store.StaffLifetimeSuccess(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(staff, 1)
	suite.Equal(42, staff[0].StaffID)
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}

// countingStore считает обращения к Begin, чтобы доказать, что отклонённые
// заявки не открывают транзакцию.
type countingStore struct {
	inner  domain.Store
	begins int
}

func (s *countingStore) Begin(ctx context.Context) (domain.OrderTx, error) {
	s.begins++
	if s.inner == nil {
		return nil, errors.New("no store configured")
	}
	return s.inner.Begin(ctx)
}
