// Package llm provides text generation for the reference backend using
// langchaingo (Ollama, Anthropic, Bedrock) and go-openai.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/gepetto/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
)

// completer is the provider-specific generation call.
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

// Model generates text with the configured provider.
type Model struct {
	backend   completer
	provider  string
	modelName string
}

// New creates a model based on configuration.
func New(ctx context.Context, cfg config.ProviderConfig) (*Model, error) {
	var backend completer

	switch cfg.Provider {
	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		backend = langchainCompleter{model: model}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		backend = newOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model)

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err := anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		backend = langchainCompleter{model: model}

	case config.ProviderBedrock:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		model, err := bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}
		backend = langchainCompleter{model: model}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return &Model{
		backend:   backend,
		provider:  cfg.Provider,
		modelName: cfg.Model,
	}, nil
}

// GenerateWithSystem generates text for userPrompt. An empty systemPrompt sends the user prompt alone.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	slog.Debug("generating", "provider", m.provider, "model", m.modelName, "prompt_len", len(userPrompt))

	start := time.Now()
	response, err := m.backend.complete(ctx, systemPrompt, userPrompt)
	duration := time.Since(start)

	if err != nil {
		slog.Warn("generation failed", "provider", m.provider, "model", m.modelName, "duration_ms", duration.Milliseconds(), "error", err)
		return "", wrapFatalError(fmt.Errorf("generate: %w", err))
	}

	slog.Debug("generation complete", "provider", m.provider, "model", m.modelName, "duration_ms", duration.Milliseconds(), "response_len", len(response))
	return response, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// Provider returns the configured provider.
func (m *Model) Provider() string {
	return m.provider
}

type langchainCompleter struct {
	model llms.Model
}

func (c langchainCompleter) complete(ctx context.Context, system, prompt string) (string, error) {
	if system == "" {
		return llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}
