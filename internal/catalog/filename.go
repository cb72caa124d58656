package catalog

import (
	"regexp"
	"time"

	"github.com/garyjia/billing-assistant/pkg/utils"
)

// Subtrees of the catalog root
const (
	InvoicesDir = "invoices"
	PaymentsDir = "payments"
)

var (
	// Invoice_<account>_<invoiceNumber>.pdf
	invoicePattern = regexp.MustCompile(`(?i)^Invoice_([^_]+)_([^.]+)\.pdf$`)
	// Payments_<account>.xlsx
	paymentsPattern = regexp.MustCompile(`(?i)^Payments_([^.]+)\.xlsx$`)
)

// ParseInvoiceFilename returns the account and invoice number of an invoice
// file name. ok is false for names that are not invoices.
func ParseInvoiceFilename(name string) (account, invoiceNo string, ok bool) {
	m := invoicePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParsePaymentsFilename returns the account of a payments workbook file name
func ParsePaymentsFilename(name string) (account string, ok bool) {
	m := paymentsPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// InvoiceFilename builds the catalog file name for an invoice
func InvoiceFilename(account, invoiceNo string) string {
	return "Invoice_" + account + "_" + invoiceNo + ".pdf"
}

// PaymentsFilename builds the catalog file name for a payments workbook
func PaymentsFilename(account string) string {
	return "Payments_" + account + ".xlsx"
}

// ParseDirDate parses a date directory name. Only strict YYYY-MM-DD names of
// real calendar days are accepted.
func ParseDirDate(name string) (time.Time, bool) {
	d, err := utils.ParseISODate(name)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
