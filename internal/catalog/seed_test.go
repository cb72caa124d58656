package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestSeeder_DemoPlanIsQueryable(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	written, err := NewSeeder(root, zap.NewNop()).Seed(DemoPlan())
	require.NoError(t, err)
	assert.Len(t, written, 6)

	store := NewStore(root, zap.NewNop())

	inv, err := store.MostRecentInvoice(ctx, "Account123")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "INV002", inv.InvoiceNo)
	assert.Equal(t, "2024-01-12", inv.Date)

	pdf, err := os.ReadFile(inv.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-1.4")))
	assert.Contains(t, string(pdf), "Invoice INV002")
	assert.True(t, bytes.HasSuffix(pdf, []byte("%%EOF\n")))

	payments, err := store.PaymentsInPeriod(ctx, date(t, "2024-01-01"), date(t, "2024-01-31"), "Account123")
	require.NoError(t, err)
	require.Len(t, payments, 1)

	rows, err := ReadPaymentRows(payments[0].Path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "PAY-0001", rows[0].Reference)
	assert.InDelta(t, 1250.00, rows[0].Amount, 0.001)
	assert.InDelta(t, 310.50, rows[1].Amount, 0.001)
}

func TestSeeder_RejectsUnencodableEntries(t *testing.T) {
	tests := []struct {
		name string
		plan SeedPlan
	}{
		{"underscore in invoice account", SeedPlan{Invoices: []SeedInvoice{{Account: "Acc_1", InvoiceNo: "X", Date: "2024-01-01"}}}},
		{"dot in invoice number", SeedPlan{Invoices: []SeedInvoice{{Account: "Acc", InvoiceNo: "X.1", Date: "2024-01-01"}}}},
		{"bad invoice date", SeedPlan{Invoices: []SeedInvoice{{Account: "Acc", InvoiceNo: "X", Date: "2024-13-01"}}}},
		{"dot in payments account", SeedPlan{Payments: []SeedPayments{{Account: "Acc.1", Date: "2024-01-01"}}}},
		{"bad payments date", SeedPlan{Payments: []SeedPayments{{Account: "Acc", Date: "yesterday"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			_, err := NewSeeder(root, zap.NewNop()).Seed(tt.plan)
			assert.Error(t, err)
		})
	}
}

func TestBuildPaymentsWorkbook(t *testing.T) {
	content, err := BuildPaymentsWorkbook([]PaymentRow{
		{Date: "2024-01-15", Reference: "PAY-1", Amount: 42.5},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{PaymentsSheet}, f.GetSheetList())

	header, err := f.GetCellValue(PaymentsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	ref, err := f.GetCellValue(PaymentsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "PAY-1", ref)
}

func TestReadPaymentRows_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadPaymentRows(filepath.Join(t.TempDir(), "nope.xlsx"))
		assert.Error(t, err)
	})

	t.Run("empty workbook has no rows", func(t *testing.T) {
		content, err := BuildPaymentsWorkbook(nil)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "Payments_A.xlsx")
		require.NoError(t, os.WriteFile(path, content, 0644))

		rows, err := ReadPaymentRows(path)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestLoadSeedPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
invoices:
  - account: Acme
    invoice_no: A-1
    date: 2024-03-01
payments:
  - account: Acme
    date: 2024-03-05
    rows:
      - date: 2024-03-05
        reference: PAY-9
        amount: 12.5
`), 0644))

	plan, err := LoadSeedPlan(path)
	require.NoError(t, err)
	require.Len(t, plan.Invoices, 1)
	assert.Equal(t, "A-1", plan.Invoices[0].InvoiceNo)
	assert.Equal(t, "2024-03-01", plan.Invoices[0].Date)
	require.Len(t, plan.Payments, 1)
	require.Len(t, plan.Payments[0].Rows, 1)
	assert.InDelta(t, 12.5, plan.Payments[0].Rows[0].Amount, 0.001)

	_, err = LoadSeedPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
