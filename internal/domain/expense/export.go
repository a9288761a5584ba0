package expense

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/tallyhq/tally/pkg/money"
)

// exportRow flattens an expense for file export. Amounts are written as
// plain decimals so spreadsheets treat them as numbers.
type exportRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
	Group       string `csv:"group"`
	AIGenerated bool   `csv:"ai_generated"`
}

func toExportRows(expenses []Expense) []exportRow {
	rows := make([]exportRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, exportRow{
			Date:        e.SpentOn.Format("2006-01-02"),
			Description: e.Description,
			Amount:      money.New(e.AmountCents, money.DefaultCurrency).String(),
			Category:    e.CategoryName,
			Group:       e.GroupName,
			AIGenerated: e.IsAIGenerated,
		})
	}
	return rows
}

// WriteCSV renders the expenses as CSV
func WriteCSV(w io.Writer, expenses []Expense) error {
	rows := toExportRows(expenses)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

const exportSheet = "Expenses"

// WriteXLSX renders the expenses as an Excel workbook
func WriteXLSX(w io.Writer, expenses []Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", exportSheet)

	header := []any{"Date", "Description", "Amount", "Category", "Group", "AI Generated"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range toExportRows(expenses) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		values := []any{row.Date, row.Description, row.Amount, row.Category, row.Group, row.AIGenerated}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "F", 18); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
