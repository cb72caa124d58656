package port

import (
	"context"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"github.com/garyjia/billing-assistant/internal/outbox"
)

// Drafter turns fetched records into an email body
type Drafter interface {
	Draft(ctx context.Context, fetched *entity.FetchResult) (string, error)
}

// OutboxSink records an approved email in place of delivering it
type OutboxSink interface {
	Record(ctx context.Context, to, subject, body string, attachments []string) (*outbox.Receipt, error)
}
