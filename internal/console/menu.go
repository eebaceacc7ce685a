package console

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/deptstore/internal/domain"
	"github.com/vladislavdragonenkov/deptstore/internal/service/checkout"
)

// Menu — нумерованное меню консоли оператора: оформление заказов,
// отчёты и просмотр инвентаря.
type Menu struct {
	src      PromptSource
	out      io.Writer
	builder  *Builder
	executor *checkout.Executor
	reports  domain.Reports
	logger   *log.Entry
}

// NewMenu создаёт меню поверх источника ввода и исполнителя заказов.
func NewMenu(src PromptSource, out io.Writer, executor *checkout.Executor, reports domain.Reports, logger *log.Entry) *Menu {
	if logger == nil {
		logger = log.WithField("component", "console")
	}
	return &Menu{
		src:      src,
		out:      out,
		builder:  NewBuilder(src, logger),
		executor: executor,
		reports:  reports,
		logger:   logger,
	}
}

// Run крутит цикл меню до выбора выхода или конца ввода. Возвращает
// ошибку только при провале отката: такая сессия должна быть остановлена.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		m.printMenu()

		choice, err := m.src.ReadEntry("Enter your choice: ")
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read menu choice: %w", err)
		}

		switch choice {
		case "0":
			fmt.Fprintln(m.out, "Exiting Inventory Management...")
			return nil
		case "1":
			err = m.handleOrder(ctx, domain.OrderKindInStore)
		case "2":
			err = m.handleOrder(ctx, domain.OrderKindCollection)
		case "3":
			err = m.handleOrder(ctx, domain.OrderKindDelivery)
		case "4":
			err = m.handleBiggestSellers(ctx)
		case "5":
			err = m.handleReservedStock(ctx)
		case "6":
			err = m.handleStaffLifetime(ctx)
		case "7":
			err = m.handleStaffContribution(ctx)
		case "8":
			err = m.handleEmployeeOfTheYear(ctx)
		case "9":
			err = m.handleInventory(ctx)
		default:
			fmt.Fprintln(m.out, "That's not a valid option. Press a number between 0 and 9.")
		}
		if err != nil {
			return err
		}
	}
}

func (m *Menu) printMenu() {
	fmt.Fprint(m.out, "\n"+
		"(1) In-Store Purchase\n"+
		"(2) Collection\n"+
		"(3) Delivery\n"+
		"(4) Biggest Sellers\n"+
		"(5) Reserved Stock\n"+
		"(6) Staff Life-Time Success\n"+
		"(7) Staff Contribution\n"+
		"(8) Employee of the Year\n"+
		"(9) Show Inventory\n"+
		"(0) Quit\n")
}

// handleOrder строит и исполняет заявку. Ошибки валидации и откатившиеся
// заказы обрабатываются на месте; наружу уходит только провал отката.
func (m *Menu) handleOrder(ctx context.Context, kind domain.OrderKind) error {
	req, err := m.builder.Build(kind)
	if err != nil {
		if err == io.EOF {
			return nil
		}
		if domain.IsValidation(err) {
			fmt.Fprintf(m.out, "\nOrder abandoned: %v\n", err)
			return nil
		}
		return fmt.Errorf("build order: %w", err)
	}

	receipt, err := m.executor.Place(ctx, req)
	if err != nil {
		if domain.IsRollbackFailure(err) {
			fmt.Fprintln(m.out, "\nCRITICAL: rollback failed, the session may be inconsistent. Stopping.")
			return err
		}
		// Причину отказа хранилище различает не всегда, поэтому оператору
		// показывается единая подсказка, как в учётной системе магазина.
		fmt.Fprint(m.out, "\nAn error occurred while trying to add the order:\n"+
			"- Ensure there is enough stock in the inventory\n"+
			"- Ensure the staff ID number exists\n")
		fmt.Fprintln(m.out, "Order unsuccessful - rolling back...")
		return nil
	}

	fmt.Fprintln(m.out)
	for _, level := range receipt.StockLevels {
		fmt.Fprintf(m.out, "Product ID %d stock is now at %d\n", level.ProductID, level.Quantity)
	}
	fmt.Fprintf(m.out, "\nOrder %d placed successfully.\n", receipt.OrderID)
	return nil
}

func (m *Menu) handleBiggestSellers(ctx context.Context) error {
	if m.reports == nil {
		return m.reportsUnavailable()
	}
	rows, err := m.reports.BiggestSellers(ctx)
	if err != nil {
		return m.reportFailed("biggest sellers", err)
	}

	w := m.table()
	fmt.Fprintln(w, "ProductID\tDescription\tTotal Value Sold")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\n", row.ProductID, row.Description, formatMinor(row.TotalValue))
	}
	return w.Flush()
}

func (m *Menu) handleReservedStock(ctx context.Context) error {
	if m.reports == nil {
		return m.reportsUnavailable()
	}
	date, err := m.readReportDate("Enter the target date: ")
	if err != nil {
		return err
	}
	if date.IsZero() {
		return nil
	}
	rows, err := m.reports.ReservedStock(ctx, date)
	if err != nil {
		return m.reportFailed("reserved stock", err)
	}

	w := m.table()
	fmt.Fprintln(w, "OrderID\tProductID\tQuantity\tCollection Date")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", row.OrderID, row.ProductID, row.Quantity, domain.FormatOrderDate(row.CollectionDate))
	}
	return w.Flush()
}

func (m *Menu) handleStaffLifetime(ctx context.Context) error {
	if m.reports == nil {
		return m.reportsUnavailable()
	}
	rows, err := m.reports.StaffLifetimeSuccess(ctx)
	if err != nil {
		return m.reportFailed("staff lifetime success", err)
	}
	return m.printStaffRows(rows)
}

func (m *Menu) handleStaffContribution(ctx context.Context) error {
	if m.reports == nil {
		return m.reportsUnavailable()
	}
	year, err := m.readYear()
	if err != nil || year == 0 {
		return err
	}
	rows, err := m.reports.StaffContribution(ctx, year)
	if err != nil {
		return m.reportFailed("staff contribution", err)
	}
	return m.printStaffRows(rows)
}

func (m *Menu) handleEmployeeOfTheYear(ctx context.Context) error {
	if m.reports == nil {
		return m.reportsUnavailable()
	}
	year, err := m.readYear()
	if err != nil || year == 0 {
		return err
	}
	rows, err := m.reports.EmployeeOfTheYear(ctx, year)
	if err != nil {
		return m.reportFailed("employee of the year", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(m.out, "\nNo sales recorded for %d.\n", year)
		return nil
	}
	fmt.Fprintln(m.out)
	for _, row := range rows {
		fmt.Fprintf(m.out, "Employee of the Year %d: %s (%s)\n", year, row.Name, formatMinor(row.TotalValue))
	}
	return nil
}

func (m *Menu) handleInventory(ctx context.Context) error {
	if m.reports == nil {
		return m.reportsUnavailable()
	}
	rows, err := m.reports.Inventory(ctx)
	if err != nil {
		return m.reportFailed("inventory", err)
	}

	w := m.table()
	fmt.Fprintln(w, "ProductID\tDescription\tPrice\tStock")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", row.ProductID, row.Description, formatMinor(row.PriceMinor), row.Quantity)
	}
	return w.Flush()
}

func (m *Menu) printStaffRows(rows []domain.StaffSalesRow) error {
	w := m.table()
	fmt.Fprintln(w, "StaffID\tName\tTotal Sales")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\n", row.StaffID, row.Name, formatMinor(row.TotalValue))
	}
	return w.Flush()
}

// readReportDate возвращает нулевую дату, если ввод не разобрался:
// отчёт просто не выполняется, сеанс продолжается.
func (m *Menu) readReportDate(prompt string) (time.Time, error) {
	raw, err := m.src.ReadEntry(prompt)
	if err == io.EOF {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	date, err := domain.ParseOrderDate(raw)
	if err != nil {
		fmt.Fprintf(m.out, "\n%v\n", err)
		return time.Time{}, nil
	}
	return date, nil
}

func (m *Menu) readYear() (int, error) {
	raw, err := m.src.ReadEntry("Enter the target year: ")
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var year int
	if _, err := fmt.Sscanf(raw, "%d", &year); err != nil || year <= 0 {
		fmt.Fprintf(m.out, "\nThat's not a valid year: %q\n", raw)
		return 0, nil
	}
	return year, nil
}

func (m *Menu) reportsUnavailable() error {
	fmt.Fprintln(m.out, "\nReports are not available with the current store.")
	return nil
}

func (m *Menu) reportFailed(name string, err error) error {
	m.logger.WithError(err).WithField("report", name).Warn("report query failed")
	fmt.Fprintf(m.out, "\nCould not fetch the %s report.\n", name)
	return nil
}

func (m *Menu) table() *tabwriter.Writer {
	fmt.Fprintln(m.out)
	return tabwriter.NewWriter(m.out, 0, 4, 2, ' ', 0)
}

func formatMinor(v int64) string {
	return fmt.Sprintf("%d.%02d", v/100, v%100)
}
