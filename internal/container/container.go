package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/billing-assistant/internal/application/dispatcher"
	"github.com/garyjia/billing-assistant/internal/application/workflow"
	"github.com/garyjia/billing-assistant/internal/catalog"
	"github.com/garyjia/billing-assistant/internal/drafting"
	"github.com/garyjia/billing-assistant/internal/outbox"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and released in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	store   *catalog.Store
	drafter drafting.Drafter
	sink    *outbox.FileSink

	// Application
	events dispatcher.Dispatcher
	engine *workflow.Engine

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Record store
// 2. Drafter chain
// 3. Outbox sink
// 4. Run event dispatcher
// 5. Workflow engine
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("Starting container initialization")

	store, err := ProvideRecordStore(&c.config.Catalog, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}
	c.store = store
	c.logger.Info("Record store initialized", zap.String("root", store.Root()))

	drafter, err := ProvideDrafter(&c.config.Drafting, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize drafter: %w", err)
	}
	c.drafter = drafter
	c.logger.Info("Drafter initialized")

	sink, err := ProvideOutbox(&c.config.Outbox, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize outbox: %w", err)
	}
	c.sink = sink
	c.logger.Info("Outbox initialized", zap.String("path", sink.Path()))

	events, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event dispatcher: %w", err)
	}
	c.events = events
	c.logger.Info("Event dispatcher initialized")

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Store:   c.store,
		Drafter: c.drafter,
		Sink:    c.sink,
		Events:  c.events,
		Outbox:  &c.config.Outbox,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize workflow engine: %w", err)
	}
	c.engine = engine

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close drains pending run events and releases the container.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.closed.Store(true)
	c.ready.Store(false)

	var closeErr error
	if c.events != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := c.events.Close(ctx); err != nil {
			c.logger.Error("Failed to drain event dispatcher", zap.Error(err))
			closeErr = fmt.Errorf("close event dispatcher: %w", err)
		}
	}

	c.logger.Info("Container closed")
	return closeErr
}

const closeTimeout = 5 * time.Second

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	// A missing catalog is an empty catalog, so only a non-directory is unhealthy
	if info, err := os.Stat(c.config.Catalog.Root); err == nil && !info.IsDir() {
		set("catalog", ComponentHealth{Healthy: false, Message: "root is not a directory"})
	} else if err != nil && !os.IsNotExist(err) {
		set("catalog", ComponentHealth{Healthy: false, Message: fmt.Sprintf("stat failed: %v", err)})
	} else {
		set("catalog", ComponentHealth{Healthy: true})
	}

	if info, err := os.Stat(c.config.Outbox.Path); err == nil && info.IsDir() {
		set("outbox", ComponentHealth{Healthy: false, Message: "path is a directory"})
	} else if err != nil && !os.IsNotExist(err) {
		set("outbox", ComponentHealth{Healthy: false, Message: fmt.Sprintf("stat failed: %v", err)})
	} else {
		set("outbox", ComponentHealth{Healthy: true, Message: filepath.Base(c.config.Outbox.Path)})
	}

	mode := "template"
	if c.config.Drafting.APIKey != "" {
		mode = "generative with template fallback"
	}
	set("drafting", ComponentHealth{Healthy: c.drafter != nil, Message: mode})
	set("events", ComponentHealth{Healthy: c.events != nil})
	set("workflow", ComponentHealth{Healthy: c.engine != nil})

	return status
}

// Getters for accessing container components

// Store returns the record store.
func (c *Container) Store() *catalog.Store {
	return c.store
}

// Drafter returns the drafter chain.
func (c *Container) Drafter() drafting.Drafter {
	return c.drafter
}

// Outbox returns the outbox sink.
func (c *Container) Outbox() *outbox.FileSink {
	return c.sink
}

// Events returns the run event dispatcher.
func (c *Container) Events() dispatcher.Dispatcher {
	return c.events
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() *workflow.Engine {
	return c.engine
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// ZapLoggerAdapter adapts zap.Logger to key/value logging interfaces such
// as the one the HTTP adapter takes.
type ZapLoggerAdapter struct {
	logger *zap.Logger
}

// NewZapLoggerAdapter wraps logger
func NewZapLoggerAdapter(logger *zap.Logger) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{logger: logger}
}

func (a *ZapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *ZapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
