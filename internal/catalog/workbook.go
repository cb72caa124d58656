package catalog

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// PaymentsSheet is the worksheet holding payment rows in a payments workbook
const PaymentsSheet = "Payments"

var paymentsHeader = []interface{}{"Date", "Reference", "Amount"}

// PaymentRow is one line of a payments workbook
type PaymentRow struct {
	Date      string  `json:"date" yaml:"date"`
	Reference string  `json:"reference" yaml:"reference"`
	Amount    float64 `json:"amount" yaml:"amount"`
}

// BuildPaymentsWorkbook renders rows into an xlsx document
func BuildPaymentsWorkbook(rows []PaymentRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(PaymentsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(PaymentsSheet, "A1", &paymentsHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{r.Date, r.Reference, r.Amount}
		if err := f.SetSheetRow(PaymentsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadPaymentRows reads the payment rows of a payments workbook. The header
// row and blank rows are skipped.
func ReadPaymentRows(path string) ([]PaymentRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(PaymentsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", PaymentsSheet, err)
	}

	out := make([]PaymentRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		r := PaymentRow{Date: cellAt(row, 0), Reference: cellAt(row, 1)}
		if raw := cellAt(row, 2); raw != "" {
			amount, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid amount %q: %w", i+1, raw, err)
			}
			r.Amount = amount
		}
		out = append(out, r)
	}
	return out, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
