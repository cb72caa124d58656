package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/garyjia/billing-assistant/internal/application/port"
	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"github.com/garyjia/billing-assistant/internal/drafting"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	model := flag.String("model", "gpt-4o-mini", "Model to draft with")
	baseURL := flag.String("base-url", "", "Override the OpenAI endpoint")
	promptsFile := flag.String("prompts", "", "Optional prompts YAML file")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-drafter --key sk-... [--model gpt-4o-mini] [--prompts <path>] [--timeout 30s]\n")
		os.Exit(1)
	}

	fmt.Println("=== Drafting Connection Test ===")

	// Diagnostic info
	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", *model)
	fmt.Printf("  API key length: %d chars\n", len(*apiKey))
	if len(*apiKey) >= 4 {
		fmt.Printf("  API key prefix: %s...\n", (*apiKey)[:4])
	}
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	prompts := drafting.DefaultPrompts()
	if *promptsFile != "" {
		prompts, err = drafting.LoadPrompts(*promptsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading prompts: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Prompts loaded from %s\n\n", *promptsFile)
	}

	generative := drafting.NewGenerativeDrafter(drafting.GenerativeConfig{
		APIKey:      *apiKey,
		BaseURL:     *baseURL,
		Model:       *model,
		Temperature: 1,
		MaxTokens:   800,
		Prompts:     prompts,
	}, logger)

	// Sample payload
	fetched := entity.NewInvoicesResult([]entity.InvoiceRecord{
		{Account: "Account123", InvoiceNo: "INV001", Date: "2024-01-10", Path: "data/invoices/2024-01-10/Invoice_Account123_INV001.pdf"},
		{Account: "Account123", InvoiceNo: "INV002", Date: "2024-01-12", Path: "data/invoices/2024-01-12/Invoice_Account123_INV002.pdf"},
	})

	payload, _ := json.MarshalIndent(fetched.Payload(), "", "  ")
	fmt.Println("Sample payload:")
	fmt.Println(string(payload))
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("Sending request to OpenAI...")
	startTime := time.Now()
	draft, err := generative.Draft(ctx, fetched)
	duration := time.Since(startTime)

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ERROR: generative draft failed\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Possible causes:\n")
		fmt.Fprintf(os.Stderr, "  1. Invalid or expired OPENAI_API_KEY\n")
		fmt.Fprintf(os.Stderr, "  2. Network connectivity issue\n")
		fmt.Fprintf(os.Stderr, "  3. API quota exceeded\n")
		fmt.Fprintf(os.Stderr, "  4. Unknown model name\n")
		fmt.Fprintf(os.Stderr, "\nRuns would fall back to this template draft:\n\n")
		fallback, _ := drafting.NewTemplateDrafter().Draft(context.Background(), fetched)
		fmt.Fprintln(os.Stderr, fallback)
		os.Exit(1)
	}

	fmt.Println("✓ Received draft!")
	fmt.Printf("API Response Time: %v\n", duration)
	fmt.Println()
	fmt.Println("=== Draft ===")
	fmt.Println(draft)

	fmt.Println("\n✅ Drafting Connection Test PASSED!")
}

// Ensure drafters implement port.Drafter (compile-time check)
var (
	_ port.Drafter = (*drafting.GenerativeDrafter)(nil)
	_ port.Drafter = (*drafting.TemplateDrafter)(nil)
	_ port.Drafter = (*drafting.FallbackDrafter)(nil)
)
