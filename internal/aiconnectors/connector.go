package aiconnectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/cohere"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/mermaidflow/internal/capture"
	"github.com/mermaidflow/internal/retry"
)

// Provider identifies a model-serving endpoint family.
type Provider string

const (
	ProviderGroq     Provider = "groq"
	ProviderDeepSeek Provider = "deepseek"
	ProviderOpenAI   Provider = "openai"
	ProviderClaude   Provider = "anthropic"
	ProviderGemini   Provider = "gemini"
	ProviderCohere   Provider = "cohere"
	ProviderOllama   Provider = "ollama"
)

// Providers lists every supported provider.
var Providers = []Provider{
	ProviderGroq, ProviderDeepSeek, ProviderOpenAI, ProviderClaude,
	ProviderGemini, ProviderCohere, ProviderOllama,
}

const (
	GroqBaseURL     = "https://api.groq.com/openai/v1"
	DeepSeekBaseURL = "https://api.deepseek.com"
	OllamaBaseURL   = "http://localhost:11434"
)

// ModelConfig holds the sampling parameters sent with every call.
type ModelConfig struct {
	Model       string  `json:"model,omitempty" koanf:"model"`
	Temperature float64 `json:"temperature,omitempty" koanf:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty" koanf:"max_tokens"`
}

// RateLimit caps outgoing calls. A zero RequestsPerSecond means unlimited.
type RateLimit struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	Burst             int     `json:"burst,omitempty"`
}

// ConnectorOptions configures one logical completion client.
type ConnectorOptions struct {
	// Name is the logical role, e.g. "classifier" or "generator".
	Name        string      `json:"name"`
	Provider    Provider    `json:"provider"`
	APIKey      string      `json:"-"`
	BaseURL     string      `json:"base_url,omitempty"`
	ModelConfig ModelConfig `json:"model_config,omitempty"`
	RateLimit   RateLimit   `json:"rate_limit,omitempty"`
}

// Connector sends single prompts to one provider.
type Connector struct {
	options ConnectorOptions
	llm     llms.Model
	limiter *rate.Limiter
}

// NewConnector creates a connector. A missing API key is not an error here;
// Complete reports it on first use. Ollama needs no key.
func NewConnector(ctx context.Context, options ConnectorOptions) (*Connector, error) {
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL(options.Provider)
	}

	log.Debug().
		Str("name", options.Name).
		Str("provider", string(options.Provider)).
		Str("model", options.ModelConfig.Model).
		Float64("temperature", options.ModelConfig.Temperature).
		Msg("Creating new connector")

	c := &Connector{options: options, limiter: newLimiter(options.RateLimit)}
	if options.APIKey == "" && options.Provider != ProviderOllama {
		if !knownProvider(options.Provider) {
			return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
		}
		return c, nil
	}

	model, err := newModel(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}
	c.llm = model
	return c, nil
}

// NewWithModel wraps an already constructed langchaingo model.
func NewWithModel(options ConnectorOptions, model llms.Model) *Connector {
	return &Connector{options: options, llm: model, limiter: newLimiter(options.RateLimit)}
}

func newLimiter(rl RateLimit) *rate.Limiter {
	if rl.RequestsPerSecond <= 0 {
		return nil
	}
	burst := rl.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), burst)
}

func knownProvider(p Provider) bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

func defaultBaseURL(p Provider) string {
	switch p {
	case ProviderGroq:
		return GroqBaseURL
	case ProviderDeepSeek:
		return DeepSeekBaseURL
	case ProviderOllama:
		return OllamaBaseURL
	}
	return ""
}

func newModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	switch options.Provider {
	case ProviderGroq, ProviderDeepSeek, ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(options.ModelConfig.Model),
			openai.WithToken(options.APIKey),
		}
		if options.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(options.BaseURL))
		}
		return openai.New(opts...)
	case ProviderClaude:
		opts := []anthropic.Option{
			anthropic.WithToken(options.APIKey),
			anthropic.WithModel(options.ModelConfig.Model),
		}
		if options.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(options.BaseURL))
		}
		return anthropic.New(opts...)
	case ProviderGemini:
		opts := []googleai.Option{googleai.WithAPIKey(options.APIKey)}
		if options.ModelConfig.Model != "" {
			opts = append(opts, googleai.WithDefaultModel(options.ModelConfig.Model))
		}
		return googleai.New(ctx, opts...)
	case ProviderCohere:
		opts := []cohere.Option{
			cohere.WithToken(options.APIKey),
			cohere.WithModel(options.ModelConfig.Model),
		}
		if options.BaseURL != "" {
			opts = append(opts, cohere.WithBaseURL(options.BaseURL))
		}
		return cohere.New(opts...)
	case ProviderOllama:
		return ollama.New(
			ollama.WithServerURL(options.BaseURL),
			ollama.WithModel(options.ModelConfig.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}
}

// completionRecord is the fixture shape written by capture.
type completionRecord struct {
	Name       string  `json:"name"`
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	Prompt     string  `json:"prompt"`
	Response   string  `json:"response,omitempty"`
	Error      string  `json:"error,omitempty"`
	DurationMs float64 `json:"duration_ms"`
}

// Complete sends prompt as a single user message and returns the raw text.
// There are no retries; every failure is a *ProviderError.
func (c *Connector) Complete(ctx context.Context, prompt string) (string, error) {
	if c.llm == nil {
		return "", &ProviderError{Provider: c.options.Provider, Kind: KindMissingCredentials, Cause: ErrMissingCredentials}
	}

	callOptions := []llms.CallOption{
		llms.WithTemperature(c.options.ModelConfig.Temperature),
	}
	if c.options.ModelConfig.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(c.options.ModelConfig.MaxTokens))
	}
	if c.options.ModelConfig.Model != "" {
		callOptions = append(callOptions, llms.WithModel(c.options.ModelConfig.Model))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &ProviderError{
				Provider:  c.options.Provider,
				Kind:      KindUpstream,
				Cause:     err,
				Retryable: retry.IsRetryableError(err),
			}
		}
	}

	start := time.Now()
	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, callOptions...)
	elapsed := time.Since(start)

	record := completionRecord{
		Name:       c.options.Name,
		Provider:   string(c.options.Provider),
		Model:      c.options.ModelConfig.Model,
		Prompt:     prompt,
		Response:   text,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	}

	if err != nil {
		record.Error = err.Error()
		capture.WriteJSON("completion", record)
		pe := &ProviderError{
			Provider:  c.options.Provider,
			Kind:      KindUpstream,
			Cause:     err,
			Retryable: retry.IsRetryableError(err),
		}
		log.Error().Err(err).
			Str("name", c.options.Name).
			Str("provider", string(c.options.Provider)).
			Str("model", c.options.ModelConfig.Model).
			Bool("retryable", pe.Retryable).
			Dur("duration", elapsed).
			Msg("Completion call failed")
		return "", pe
	}

	capture.WriteJSON("completion", record)
	if strings.TrimSpace(text) == "" {
		log.Warn().
			Str("name", c.options.Name).
			Str("provider", string(c.options.Provider)).
			Msg("Completion returned no content")
		return "", &ProviderError{Provider: c.options.Provider, Kind: KindEmptyResponse, Cause: ErrEmptyResponse}
	}

	log.Debug().
		Str("name", c.options.Name).
		Str("provider", string(c.options.Provider)).
		Str("model", c.options.ModelConfig.Model).
		Int("prompt_chars", len(prompt)).
		Int("response_chars", len(text)).
		Dur("duration", elapsed).
		Msg("Completion call succeeded")
	return text, nil
}

// Provider returns the configured provider.
func (c *Connector) Provider() Provider {
	return c.options.Provider
}

// Model returns the configured model identifier.
func (c *Connector) Model() string {
	return c.options.ModelConfig.Model
}

// HasCredentials reports whether Complete can reach the provider.
func (c *Connector) HasCredentials() bool {
	return c.llm != nil
}
