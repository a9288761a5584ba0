package expense

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportFixture() []Expense {
	return []Expense{
		{
			ID:           uuid.New(),
			Description:  "Coffee",
			AmountCents:  450,
			SpentOn:      time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			CategoryName: "Food & Dining",
		},
		{
			ID:            uuid.New(),
			Description:   "Cabin rental",
			AmountCents:   21000,
			SpentOn:       time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			GroupName:     "Weekend Trip",
			IsAIGenerated: true,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportFixture()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,description,amount,category,group,ai_generated", lines[0])
	assert.Equal(t, "2026-01-15,Coffee,4.50,Food & Dining,,false", lines[1])
	assert.Equal(t, "2026-01-10,Cabin rental,210.00,,Weekend Trip,true", lines[2])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportFixture()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header, err := f.GetCellValue(exportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	description, err := f.GetCellValue(exportSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", description)

	amount, err := f.GetCellValue(exportSheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "210.00", amount)
}
