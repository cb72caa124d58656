package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/garyjia/billing-assistant/pkg/utils"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Outbox  OutboxConfig  `mapstructure:"outbox"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CatalogConfig locates the invoice and payment record tree
type CatalogConfig struct {
	Root string `mapstructure:"root"`
}

// OutboxConfig holds outbox settings
type OutboxConfig struct {
	Path             string `mapstructure:"path"`
	Sender           string `mapstructure:"sender"`
	DefaultRecipient string `mapstructure:"default_recipient"`
	Subject          string `mapstructure:"subject"`
}

// OpenAIConfig holds OpenAI API configuration. An empty APIKey selects
// template drafting only.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. A missing
// config file is not an error; defaults and environment are used instead.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	// Catalog defaults
	v.SetDefault("catalog.root", "data")

	// Outbox defaults
	v.SetDefault("outbox.path", "sent_emails/outbox.jsonl")
	v.SetDefault("outbox.sender", "billing@example.com")
	v.SetDefault("outbox.default_recipient", "customer@example.com")
	v.SetDefault("outbox.subject", "Your Billing Summary")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 1.0)
	v.SetDefault("openai.max_tokens", 800)
	v.SetDefault("openai.timeout", 30*time.Second)
	v.SetDefault("openai.prompts_path", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key": "OPENAI_API_KEY",
		"catalog.root":   "CATALOG_ROOT",
		"outbox.path":    "OUTBOX_PATH",
		"outbox.sender":  "BILLING_SENDER",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	if strings.TrimSpace(c.Catalog.Root) == "" {
		return fmt.Errorf("catalog.root is required")
	}

	if strings.TrimSpace(c.Outbox.Path) == "" {
		return fmt.Errorf("outbox.path is required")
	}
	if err := utils.ValidateEmail(c.Outbox.Sender); err != nil {
		return fmt.Errorf("outbox.sender: %w", err)
	}
	if err := utils.ValidateEmail(c.Outbox.DefaultRecipient); err != nil {
		return fmt.Errorf("outbox.default_recipient: %w", err)
	}

	if c.OpenAI.APIKey != "" && c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required when openai.api_key is set")
	}
	if c.OpenAI.Timeout < 0 {
		return fmt.Errorf("openai.timeout must not be negative")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	return nil
}
