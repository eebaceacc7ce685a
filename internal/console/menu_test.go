package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/deptstore/internal/service/checkout"
	"github.com/vladislavdragonenkov/deptstore/internal/storage/memory"
)

func newTestMenu(answers []string) (*Menu, *memory.Store, *bytes.Buffer) {
	store := memory.NewStore()
	store.SeedProduct(101, "Kettle", 2500, 5)
	store.SeedProduct(205, "Toaster", 1800, 2)
	store.SeedStaff(42, "Jo", "Bloggs")

	out := &bytes.Buffer{}
	src := &scriptedSource{answers: answers}
	executor := checkout.NewExecutorWithoutMetrics(store, nil)
	return NewMenu(src, out, executor, store, nil), store, out
}

func TestMenuInStoreOrderSession(t *testing.T) {
	menu, store, out := newTestMenu([]string{
		"1",
		"101", "3",
		"n",
		"14-Feb-24",
		"42",
		"0",
	})

	require.NoError(t, menu.Run(context.Background()))

	assert.Equal(t, 2, store.Quantity(101))
	assert.Contains(t, out.String(), "Product ID 101 stock is now at 2")
	assert.Contains(t, out.String(), "placed successfully")
	assert.Contains(t, out.String(), "Exiting Inventory Management...")
}

func TestMenuInsufficientStockKeepsSessionAlive(t *testing.T) {
	menu, store, out := newTestMenu([]string{
		"1",
		"205", "5", // в наличии только 2
		"n",
		"14-Feb-24",
		"42",
		"0",
	})

	require.NoError(t, menu.Run(context.Background()))

	assert.Equal(t, 2, store.Quantity(205))
	assert.Contains(t, out.String(), "An error occurred while trying to add the order:")
	assert.Contains(t, out.String(), "Ensure there is enough stock in the inventory")
	assert.Contains(t, out.String(), "Ensure the staff ID number exists")
	assert.Contains(t, out.String(), "Order unsuccessful - rolling back...")
	// Сессия продолжилась до штатного выхода.
	assert.Contains(t, out.String(), "Exiting Inventory Management...")
}

func TestMenuValidationErrorAbandonsOrder(t *testing.T) {
	menu, store, out := newTestMenu([]string{
		"2",
		"101", "1",
		"n",
		"10-Mar-24",
		"05-Mar-24", // самовывоз раньше продажи
		"Bob", "Jones",
		"42",
		"0",
	})

	require.NoError(t, menu.Run(context.Background()))

	assert.Contains(t, out.String(), "Order abandoned:")
	assert.Equal(t, 5, store.Quantity(101))
	assert.Empty(t, store.Orders())
}

func TestMenuInvalidOption(t *testing.T) {
	menu, _, out := newTestMenu([]string{"x", "0"})

	require.NoError(t, menu.Run(context.Background()))
	assert.Contains(t, out.String(), "That's not a valid option")
}

func TestMenuInventoryReport(t *testing.T) {
	menu, _, out := newTestMenu([]string{"9", "0"})

	require.NoError(t, menu.Run(context.Background()))
	assert.Contains(t, out.String(), "Kettle")
	assert.Contains(t, out.String(), "25.00")
	assert.Contains(t, out.String(), "Toaster")
}

func TestMenuEmployeeOfTheYear(t *testing.T) {
	menu, _, out := newTestMenu([]string{
		"1",
		"101", "2",
		"n",
		"14-Feb-24",
		"42",
		"8",
		"2024",
		"0",
	})

	require.NoError(t, menu.Run(context.Background()))
	assert.Contains(t, out.String(), "Employee of the Year 2024: Jo Bloggs (50.00)")
}

func TestMenuStopsOnEndOfInput(t *testing.T) {
	store := memory.NewStore()
	out := &bytes.Buffer{}
	src := NewPromptSource(bytes.NewReader(nil), out)
	executor := checkout.NewExecutorWithoutMetrics(store, nil)
	menu := NewMenu(src, out, executor, store, nil)

	require.NoError(t, menu.Run(context.Background()))
}
