package drafting

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompts sent to the drafting service
type PromptConfig struct {
	Drafting struct {
		System       string `yaml:"system"`
		Instruction  string `yaml:"instruction"`
		UserTemplate string `yaml:"user_template"`
	} `yaml:"drafting"`
}

const (
	defaultSystem      = "You are a billing support assistant writing emails to customers. Write plain text only."
	defaultInstruction = "Draft a concise, courteous email. No hallucinations. Keep it factual."
	// The request JSON is passed through unchanged
	defaultUserTemplate = "{{.Request}}"
)

// DefaultPrompts returns the built-in prompts
func DefaultPrompts() *PromptConfig {
	p := &PromptConfig{}
	p.fillDefaults()
	return p
}

func (p *PromptConfig) fillDefaults() {
	if p.Drafting.System == "" {
		p.Drafting.System = defaultSystem
	}
	if p.Drafting.Instruction == "" {
		p.Drafting.Instruction = defaultInstruction
	}
	if p.Drafting.UserTemplate == "" {
		p.Drafting.UserTemplate = defaultUserTemplate
	}
}

// LoadPrompts loads prompt configuration from a YAML file. Fields left out of
// the file keep their built-in values.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	prompts.fillDefaults()

	if _, err := template.New("user").Parse(prompts.Drafting.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid user_template: %w", err)
	}

	return &prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
