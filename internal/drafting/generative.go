package drafting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned when the service answers without usable text
var ErrEmptyCompletion = errors.New("empty completion")

// GenerativeConfig configures the chat-completion drafter
type GenerativeConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Prompts     *PromptConfig
}

// GenerativeDrafter asks a chat-completion service for the email body and
// uses its answer verbatim
type GenerativeDrafter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	prompts     *PromptConfig
	logger      *zap.Logger
}

// draftRequest is the user message sent to the service
type draftRequest struct {
	Task        entity.TaskKind `json:"task"`
	Data        interface{}     `json:"data"`
	Instruction string          `json:"instruction"`
}

// NewGenerativeDrafter creates a drafter backed by the OpenAI API, or by any
// compatible endpoint when BaseURL is set
func NewGenerativeDrafter(cfg GenerativeConfig, logger *zap.Logger) *GenerativeDrafter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	prompts := cfg.Prompts
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	return &GenerativeDrafter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		prompts:     prompts,
		logger:      logger,
	}
}

// Draft requests an email body for the fetch result
func (d *GenerativeDrafter) Draft(ctx context.Context, fetched *entity.FetchResult) (string, error) {
	if fetched == nil {
		return "", ErrNothingToDraft
	}

	prompt, err := d.buildPrompt(fetched)
	if err != nil {
		return "", err
	}

	d.logger.Debug("Requesting generative draft",
		zap.String("task", fetched.Task.String()),
		zap.String("model", d.model))

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.model,
		Temperature: d.temperature,
		MaxTokens:   d.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: d.prompts.Drafting.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		d.logger.Warn("Drafting service call failed", zap.Error(err))
		return "", fmt.Errorf("drafting service call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyCompletion)
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: blank content", ErrEmptyCompletion)
	}

	d.logger.Info("Generative draft received",
		zap.String("task", fetched.Task.String()),
		zap.Int("length", len(content)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return content, nil
}

func (d *GenerativeDrafter) buildPrompt(fetched *entity.FetchResult) (string, error) {
	request, err := json.Marshal(draftRequest{
		Task:        fetched.Task,
		Data:        fetched.Payload(),
		Instruction: d.prompts.Drafting.Instruction,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode drafting request: %w", err)
	}

	return renderTemplate(d.prompts.Drafting.UserTemplate, struct {
		Request     string
		Task        string
		Instruction string
	}{
		Request:     string(request),
		Task:        fetched.Task.String(),
		Instruction: d.prompts.Drafting.Instruction,
	})
}
