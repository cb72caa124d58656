package workflow

import (
	"errors"

	"github.com/garyjia/billing-assistant/internal/application/dispatcher"
	"github.com/garyjia/billing-assistant/internal/application/port"
	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRequest is returned by Start for unusable run inputs
	ErrInvalidRequest = errors.New("invalid run request")

	// ErrInvalidApprovalState is returned by Resume for a state that is not
	// parked at the approval point
	ErrInvalidApprovalState = errors.New("state is not awaiting approval")
)

// StartRequest carries the caller's inputs for a new run
type StartRequest struct {
	Task         entity.TaskKind `json:"task"`
	Account      string          `json:"account"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	ContactEmail string          `json:"contact_email"`
}

// Engine drives billing runs from setup to the approval point and from there
// to delivery. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	store   port.RecordStore
	drafter port.Drafter
	sink    port.OutboxSink
	logger  *zap.Logger
	events  dispatcher.Dispatcher

	defaultRecipient string
	subject          string
}

// EngineOption configures the workflow engine
type EngineOption func(*Engine)

// WithDefaultRecipient sets the address used when a run has no contact email
func WithDefaultRecipient(addr string) EngineOption {
	return func(e *Engine) {
		if addr != "" {
			e.defaultRecipient = addr
		}
	}
}

// WithSubject sets the subject line of sent emails
func WithSubject(subject string) EngineOption {
	return func(e *Engine) {
		if subject != "" {
			e.subject = subject
		}
	}
}

// WithDispatcher publishes run lifecycle events to d
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *Engine) {
		e.events = d
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	store port.RecordStore,
	drafter port.Drafter,
	sink port.OutboxSink,
	logger *zap.Logger,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		store:            store,
		drafter:          drafter,
		sink:             sink,
		logger:           logger,
		defaultRecipient: entity.DefaultRecipient,
		subject:          entity.DefaultSubject,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}
