package export

import (
	"fmt"
	"io"
	"time"

	"rentalhub/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetBookings = "Bookings"

var bookingColumns = []struct {
	title string
	width float64
}{
	{"ID", 8},
	{"User", 24},
	{"Email", 28},
	{"Product", 30},
	{"Category", 16},
	{"Start", 12},
	{"End", 12},
	{"Days", 8},
	{"Status", 12},
	{"Paid", 8},
	{"Price", 10},
	{"Total", 12},
}

// WriteBookingsXLSX renders the bookings as an xlsx workbook. A zero from or
// to leaves that side of the period open in the title row.
func WriteBookingsXLSX(w io.Writer, bookings []models.BookingDetails, from, to time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetBookings)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	if err := writeTitle(f, from, to); err != nil {
		return err
	}
	if err := writeHeader(f); err != nil {
		return err
	}

	var total float64
	row := 3
	for _, b := range bookings {
		values := []any{
			b.ID.Int64(),
			b.UserName,
			b.UserEmail,
			b.ProductName,
			b.Category,
			b.StartDate.String(),
			b.EndDate.String(),
			b.RentalDays,
			string(b.Status),
			yesNo(b.PaymentCompleted),
			b.Price,
			b.TotalPrice,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetBookings, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if models.CountsTowardRevenue(b.Status) {
			total += b.TotalPrice
		}
		row++
	}

	if err := writeTotal(f, row, total); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTitle(f *excelize.File, from, to time.Time) error {
	if err := f.SetCellValue(SheetBookings, "A1", periodTitle(from, to)); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(bookingColumns))
	_ = f.MergeCell(SheetBookings, "A1", lastCol+"1")

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	return f.SetCellStyle(SheetBookings, "A1", "A1", style)
}

func writeHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, col := range bookingColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell := name + "2"
		if err := f.SetCellValue(SheetBookings, cell, col.title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		_ = f.SetCellStyle(SheetBookings, cell, cell, style)
		_ = f.SetColWidth(SheetBookings, name, name, col.width)
	}
	return nil
}

func writeTotal(f *excelize.File, row int, total float64) error {
	label, _ := excelize.CoordinatesToCellName(len(bookingColumns)-1, row)
	value, _ := excelize.CoordinatesToCellName(len(bookingColumns), row)
	if err := f.SetCellValue(SheetBookings, label, "Revenue"); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellValue(SheetBookings, value, total); err != nil {
		return fmt.Errorf("write total: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("total style: %w", err)
	}
	return f.SetCellStyle(SheetBookings, label, value, style)
}

func periodTitle(from, to time.Time) string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "..."
		}
		return t.Format(models.DateLayout)
	}
	if from.IsZero() && to.IsZero() {
		return "Bookings: all time"
	}
	return fmt.Sprintf("Bookings: %s - %s", format(from), format(to))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
