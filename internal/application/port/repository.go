package port

import (
	"context"
	"time"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
)

// RecordStore answers the three catalog queries a billing run needs.
// An empty account matches every account.
type RecordStore interface {
	// MostRecentInvoice returns nil with no error when nothing matches
	MostRecentInvoice(ctx context.Context, account string) (*entity.InvoiceRecord, error)
	InvoicesInPeriod(ctx context.Context, start, end time.Time, account string) ([]entity.InvoiceRecord, error)
	PaymentsInPeriod(ctx context.Context, start, end time.Time, account string) ([]entity.PaymentRecord, error)
}
