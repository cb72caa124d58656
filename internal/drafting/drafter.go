// Package drafting turns fetched billing records into email body text.
package drafting

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"go.uber.org/zap"
)

// ErrNothingToDraft is returned when a drafter receives no fetch result
var ErrNothingToDraft = errors.New("no fetched records to draft from")

// Drafter produces an email body for a fetch result
type Drafter interface {
	Draft(ctx context.Context, fetched *entity.FetchResult) (string, error)
}

// Config selects and tunes the drafter chain
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Prompts     *PromptConfig
}

// New picks the drafter for a deployment. Without an API key only the
// template is used; otherwise the generative drafter runs first and falls
// back to the template on any failure.
func New(cfg Config, logger *zap.Logger) Drafter {
	template := NewTemplateDrafter()
	if cfg.APIKey == "" {
		logger.Info("Generative drafting disabled, using template drafts")
		return template
	}

	prompts := cfg.Prompts
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	generative := NewGenerativeDrafter(GenerativeConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Prompts:     prompts,
	}, logger)

	logger.Info("Generative drafting enabled",
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	return NewFallbackDrafter(generative, template, cfg.Timeout, logger)
}
