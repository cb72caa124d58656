package drafting

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
)

// TemplateDrafter renders fixed text blocks per task. It is deterministic
// and only fails when given nothing to draft.
type TemplateDrafter struct{}

// NewTemplateDrafter creates a template drafter
func NewTemplateDrafter() *TemplateDrafter {
	return &TemplateDrafter{}
}

// Draft renders the email body for the fetch result
func (d *TemplateDrafter) Draft(_ context.Context, fetched *entity.FetchResult) (string, error) {
	if fetched == nil {
		return "", ErrNothingToDraft
	}

	switch fetched.Task {
	case entity.TaskRecentInvoice:
		return recentInvoiceBody(fetched.RecentInvoice), nil
	case entity.TaskInvoicesPeriod:
		return invoicesBody(fetched.Invoices), nil
	case entity.TaskPaymentsPeriod:
		return paymentsBody(fetched.Payments), nil
	}

	return "", fmt.Errorf("unknown task %q", fetched.Task)
}

func recentInvoiceBody(r *entity.RecentInvoiceResult) string {
	var inv entity.InvoiceRecord
	if r != nil && r.Invoice != nil {
		inv = *r.Invoice
	}

	return "Hello,\n\n" +
		"Please find a summary of your most recent invoice:\n" +
		fmt.Sprintf("- Account: %s\n", inv.Account) +
		fmt.Sprintf("- Invoice: %s\n", inv.InvoiceNo) +
		fmt.Sprintf("- Date: %s\n\n", inv.Date) +
		"Let us know if you have any questions.\n\nBest regards,\nBilling Team"
}

// An empty period still yields an email, with an empty list section
func invoicesBody(r *entity.InvoicesResult) string {
	var lines []string
	if r != nil {
		for _, inv := range r.Invoices {
			lines = append(lines, fmt.Sprintf("- %s / %s / %s", inv.Date, inv.Account, inv.InvoiceNo))
		}
	}

	return fmt.Sprintf("Hello,\n\nHere are your invoices for the requested period:\n%s\n\nBest,\nBilling",
		strings.Join(lines, "\n"))
}

func paymentsBody(r *entity.PaymentsResult) string {
	var lines []string
	if r != nil {
		for _, p := range r.Payments {
			lines = append(lines, fmt.Sprintf("- %s / %s", p.Date, p.Account))
		}
	}

	return fmt.Sprintf("Hello,\n\nHere are your payments for the requested period:\n%s\n\nBest,\nBilling",
		strings.Join(lines, "\n"))
}
