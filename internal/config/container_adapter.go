package config

import (
	"github.com/garyjia/billing-assistant/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Catalog: container.CatalogConfig{
			Root: c.Catalog.Root,
		},
		Outbox: container.OutboxConfig{
			Path:             c.Outbox.Path,
			Sender:           c.Outbox.Sender,
			DefaultRecipient: c.Outbox.DefaultRecipient,
			Subject:          c.Outbox.Subject,
		},
		Drafting: container.DraftingConfig{
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			Temperature: c.OpenAI.Temperature,
			MaxTokens:   c.OpenAI.MaxTokens,
			Timeout:     c.OpenAI.Timeout,
			PromptsPath: c.OpenAI.PromptsPath,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}
