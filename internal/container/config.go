// Package container provides dependency injection and lifecycle management
// for the billing assistant.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Catalog configuration
	Catalog CatalogConfig

	// Outbox configuration
	Outbox OutboxConfig

	// Drafting configuration
	Drafting DraftingConfig

	// Server configuration
	Server ServerConfig
}

// CatalogConfig holds record store settings.
type CatalogConfig struct {
	// Root is the directory holding invoices/ and payments/
	Root string
}

// OutboxConfig holds outbox sink settings.
type OutboxConfig struct {
	// Path of the JSON lines log
	Path string

	// Sender is the fixed from address
	Sender string

	// DefaultRecipient is used when a run has no contact email
	DefaultRecipient string

	// Subject of every recorded email
	Subject string
}

// DraftingConfig holds drafting settings.
type DraftingConfig struct {
	// APIKey enables generative drafting when set
	APIKey string

	// BaseURL overrides the OpenAI endpoint
	BaseURL string

	// Model is the model to use (e.g., "gpt-4o-mini")
	Model string

	Temperature float32
	MaxTokens   int

	// Timeout bounds one generative attempt before falling back
	Timeout time.Duration

	// PromptsPath is an optional YAML prompt file
	PromptsPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Root: "data",
		},
		Outbox: OutboxConfig{
			Path:             "sent_emails/outbox.jsonl",
			Sender:           "billing@example.com",
			DefaultRecipient: entity.DefaultRecipient,
			Subject:          entity.DefaultSubject,
		},
		Drafting: DraftingConfig{
			Model:       "gpt-4o-mini",
			Temperature: 1.0,
			MaxTokens:   800,
			Timeout:     30 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Catalog.Root == "" {
		return fmt.Errorf("catalog.root is required")
	}

	if c.Outbox.Path == "" {
		return fmt.Errorf("outbox.path is required")
	}
	if c.Outbox.Sender == "" {
		return fmt.Errorf("outbox.sender is required")
	}

	if c.Drafting.APIKey != "" && c.Drafting.Model == "" {
		return fmt.Errorf("drafting.model is required with an API key")
	}

	return nil
}
