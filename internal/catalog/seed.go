package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/garyjia/billing-assistant/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedInvoice describes one invoice PDF to place in a catalog
type SeedInvoice struct {
	Account   string `yaml:"account"`
	InvoiceNo string `yaml:"invoice_no"`
	Date      string `yaml:"date"`
}

// SeedPayments describes one payments workbook to place in a catalog
type SeedPayments struct {
	Account string       `yaml:"account"`
	Date    string       `yaml:"date"`
	Rows    []PaymentRow `yaml:"rows"`
}

// SeedPlan lists everything a Seeder writes
type SeedPlan struct {
	Invoices []SeedInvoice  `yaml:"invoices"`
	Payments []SeedPayments `yaml:"payments"`
}

// DemoPlan is a small catalog for local runs and demos
func DemoPlan() SeedPlan {
	return SeedPlan{
		Invoices: []SeedInvoice{
			{Account: "Account123", InvoiceNo: "INV001", Date: "2024-01-10"},
			{Account: "Account123", InvoiceNo: "INV002", Date: "2024-01-12"},
			{Account: "Account456", InvoiceNo: "INV100", Date: "2024-01-11"},
			{Account: "Account456", InvoiceNo: "INV101", Date: "2024-02-03"},
		},
		Payments: []SeedPayments{
			{Account: "Account123", Date: "2024-01-15", Rows: []PaymentRow{
				{Date: "2024-01-15", Reference: "PAY-0001", Amount: 1250.00},
				{Date: "2024-01-15", Reference: "PAY-0002", Amount: 310.50},
			}},
			{Account: "Account456", Date: "2024-01-20", Rows: []PaymentRow{
				{Date: "2024-01-20", Reference: "PAY-0101", Amount: 980.25},
			}},
		},
	}
}

// LoadSeedPlan reads a YAML seed plan
func LoadSeedPlan(path string) (SeedPlan, error) {
	var plan SeedPlan

	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("failed to read seed plan: %w", err)
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("failed to parse seed plan: %w", err)
	}
	return plan, nil
}

// Seeder writes catalog files through a path-checked file storage
type Seeder struct {
	storage storage.FileStorage
	root    string
	logger  *zap.Logger
}

// NewSeeder creates a seeder that writes under root
func NewSeeder(root string, logger *zap.Logger) *Seeder {
	return &Seeder{
		storage: storage.NewLocalFileStorage(root, logger),
		root:    root,
		logger:  logger,
	}
}

// Seed writes every file of the plan and returns the written paths in plan
// order. Entries whose names would not be found by a Store are rejected.
func (s *Seeder) Seed(plan SeedPlan) ([]string, error) {
	var written []string

	for _, inv := range plan.Invoices {
		if _, ok := ParseDirDate(inv.Date); !ok {
			return written, fmt.Errorf("invoice %s: invalid date %q", inv.InvoiceNo, inv.Date)
		}
		name := InvoiceFilename(inv.Account, inv.InvoiceNo)
		if acc, no, ok := ParseInvoiceFilename(name); !ok || acc != inv.Account || no != inv.InvoiceNo {
			return written, fmt.Errorf("invoice %q/%q cannot be encoded in a file name", inv.Account, inv.InvoiceNo)
		}

		path := filepath.Join(s.root, InvoicesDir, inv.Date, name)
		content := invoicePDF(inv)
		if err := s.storage.SaveFileWithType(path, content, storage.FileTypePDF); err != nil {
			return written, fmt.Errorf("failed to seed invoice %s: %w", inv.InvoiceNo, err)
		}
		written = append(written, path)
	}

	for _, pay := range plan.Payments {
		if _, ok := ParseDirDate(pay.Date); !ok {
			return written, fmt.Errorf("payments %s: invalid date %q", pay.Account, pay.Date)
		}
		name := PaymentsFilename(pay.Account)
		if acc, ok := ParsePaymentsFilename(name); !ok || acc != pay.Account {
			return written, fmt.Errorf("payments account %q cannot be encoded in a file name", pay.Account)
		}

		content, err := BuildPaymentsWorkbook(pay.Rows)
		if err != nil {
			return written, fmt.Errorf("failed to build workbook for %s: %w", pay.Account, err)
		}

		path := filepath.Join(s.root, PaymentsDir, pay.Date, name)
		if err := s.storage.SaveFileWithType(path, content, storage.FileTypeWorkbook); err != nil {
			return written, fmt.Errorf("failed to seed payments for %s: %w", pay.Account, err)
		}
		written = append(written, path)
	}

	s.logger.Info("Catalog seeded",
		zap.String("root", s.root),
		zap.Int("invoices", len(plan.Invoices)),
		zap.Int("payments", len(plan.Payments)))

	return written, nil
}

// invoicePDF renders a one-page PDF naming the invoice
func invoicePDF(inv SeedInvoice) []byte {
	text := fmt.Sprintf("Invoice %s  Account %s  Date %s", inv.InvoiceNo, inv.Account, inv.Date)
	text = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
	stream := fmt.Sprintf("BT /F1 14 Tf 72 720 Td (%s) Tj ET", text)

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}
