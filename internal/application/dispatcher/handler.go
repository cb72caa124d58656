package dispatcher

import (
	"context"

	"github.com/garyjia/billing-assistant/internal/domain/event"
	"go.uber.org/zap"
)

// Handler processes run events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// NewAuditHandler returns a handler that writes every run event to logger
// as one structured line.
func NewAuditHandler(logger *zap.Logger) Handler {
	return func(_ context.Context, evt *event.Event) error {
		fields := []zap.Field{
			zap.String("event_type", evt.Type.String()),
			zap.String("event_id", evt.ID),
			zap.String("run_id", evt.RunID),
			zap.Time("at", evt.Timestamp),
		}
		for _, key := range []string{"task", "account", "stage", "recipient", "sent_id", "message"} {
			if v := evt.GetPayloadString(key); v != "" {
				fields = append(fields, zap.String(key, v))
			}
		}
		if _, ok := evt.Payload["attachments"]; ok {
			fields = append(fields, zap.Int64("attachments", evt.GetPayloadInt("attachments")))
		}
		if _, ok := evt.Payload["approved"]; ok {
			fields = append(fields, zap.Bool("approved", evt.GetPayloadBool("approved")))
		}

		if evt.Type == event.TypeRunFailed {
			logger.Warn("Run event", fields...)
		} else {
			logger.Info("Run event", fields...)
		}
		return nil
	}
}
