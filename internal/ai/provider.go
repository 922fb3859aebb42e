package ai

import (
	"context"
	stderrors "errors"
	"fmt"

	"jobscout/internal/breaker"
	"jobscout/internal/config"
	"jobscout/internal/errors"
)

// Request is a single text generation call.
type Request struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int32
	Temperature  float32
}

// Generation is the text a provider produced for a Request.
type Generation struct {
	Text  string
	Model string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from provider responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Generator produces text for a prompt. Failures are *errors.AppError of type provider.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Generation, error)
	Name() string
}

// HealthReporter is implemented by generators that expose breaker state.
type HealthReporter interface {
	IsHealthy() bool
	Stats() map[string]any
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// ModelChecker is implemented by providers that can look up their configured model.
type ModelChecker interface {
	GetModelInfo(ctx context.Context) *ModelInfo
}

// AsModelChecker finds a ModelChecker in gen or in the generators it wraps.
func AsModelChecker(gen Generator) (ModelChecker, bool) {
	for gen != nil {
		if mc, ok := gen.(ModelChecker); ok {
			return mc, true
		}
		u, ok := gen.(interface{ Unwrap() Generator })
		if !ok {
			return nil, false
		}
		gen = u.Unwrap()
	}
	return nil, false
}

// NewGenerator returns the configured provider, or nil when no API key resolved.
func NewGenerator(cfg config.AIConfig, logger *errors.Logger) (Generator, error) {
	if !cfg.ProviderEnabled() {
		logger.Info("Generative provider disabled, heuristic analysis only", "provider", cfg.Provider)
		return nil, nil
	}

	logger.Debug("Initializing generative provider",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries)

	switch cfg.Provider {
	case "openrouter":
		return NewOpenRouterProvider(cfg, logger), nil
	case "gemini":
		g, err := NewGeminiProvider(context.Background(), cfg, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// providerError maps a failed call to a provider AppError with a specific code.
func providerError(provider string, err error, classify func(error) string) *errors.AppError {
	if appErr, ok := errors.As(err); ok && appErr.Type == errors.ErrorTypeProvider {
		return appErr
	}

	code := errors.ErrCodeProviderFailed
	switch {
	case breaker.IsOpenError(err):
		code = errors.ErrCodeCircuitOpen
	case stderrors.Is(err, context.DeadlineExceeded):
		code = errors.ErrCodeProviderTimeout
	case classify != nil:
		if c := classify(err); c != "" {
			code = c
		}
	}

	return errors.NewProviderError(code, provider+" generation failed", err).WithContext("provider", provider)
}
