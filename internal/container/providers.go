package container

import (
	"fmt"

	"github.com/garyjia/billing-assistant/internal/application/dispatcher"
	"github.com/garyjia/billing-assistant/internal/application/workflow"
	"github.com/garyjia/billing-assistant/internal/catalog"
	"github.com/garyjia/billing-assistant/internal/domain/event"
	"github.com/garyjia/billing-assistant/internal/drafting"
	"github.com/garyjia/billing-assistant/internal/outbox"
	"go.uber.org/zap"
)

// ProvideRecordStore creates the read-only catalog over cfg.Root.
func ProvideRecordStore(cfg *CatalogConfig, logger *zap.Logger) (*catalog.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("catalog config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return catalog.NewStore(cfg.Root, logger.Named("catalog")), nil
}

// ProvideDrafter creates the drafter chain. A prompts file is loaded only
// when generative drafting is enabled.
func ProvideDrafter(cfg *DraftingConfig, logger *zap.Logger) (drafting.Drafter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("drafting config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	var prompts *drafting.PromptConfig
	if cfg.APIKey != "" && cfg.PromptsPath != "" {
		loaded, err := drafting.LoadPrompts(cfg.PromptsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
		prompts = loaded
	}

	return drafting.New(drafting.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		Prompts:     prompts,
	}, logger.Named("drafting")), nil
}

// ProvideOutbox creates the append-only outbox sink.
func ProvideOutbox(cfg *OutboxConfig, logger *zap.Logger) (*outbox.FileSink, error) {
	if cfg == nil {
		return nil, fmt.Errorf("outbox config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return outbox.NewFileSink(cfg.Path, cfg.Sender, logger.Named("outbox")), nil
}

// ProvideDispatcher creates the run event dispatcher with the audit log
// subscribed to every run event.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(dispatcher.WithLogger(logger.Named("events")))
	d.Subscribe(AuditHandlerName, dispatcher.NewAuditHandler(logger.Named("audit")), event.RunTypes...)
	return d, nil
}

// AuditHandlerName is the subscription name of the run audit log
const AuditHandlerName = "run-audit-log"

// WorkflowDeps holds dependencies for the workflow engine.
type WorkflowDeps struct {
	Store   *catalog.Store
	Drafter drafting.Drafter
	Sink    *outbox.FileSink
	Events  dispatcher.Dispatcher
	Outbox  *OutboxConfig
	Logger  *zap.Logger
}

// ProvideWorkflowEngine creates the run engine over the given collaborators.
func ProvideWorkflowEngine(deps *WorkflowDeps) (*workflow.Engine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow deps are required")
	}
	if deps.Store == nil || deps.Drafter == nil || deps.Sink == nil {
		return nil, fmt.Errorf("store, drafter and sink are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	var opts []workflow.EngineOption
	if deps.Events != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Events))
	}
	if deps.Outbox != nil {
		opts = append(opts,
			workflow.WithDefaultRecipient(deps.Outbox.DefaultRecipient),
			workflow.WithSubject(deps.Outbox.Subject))
	}

	return workflow.NewEngine(deps.Store, deps.Drafter, deps.Sink, deps.Logger.Named("workflow"), opts...), nil
}
