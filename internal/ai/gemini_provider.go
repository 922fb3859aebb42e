package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"jobscout/internal/breaker"
	"jobscout/internal/config"
	"jobscout/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements Generator for Google Gemini
type GeminiProvider struct {
	client       *genai.Client
	cfg          config.AIConfig
	breaker      *breaker.Breaker[*genai.GenerateContentResponse]
	modelBreaker *breaker.Breaker[*genai.Model]
	logger       *errors.Logger
}

var (
	_ Generator    = (*GeminiProvider)(nil)
	_ ModelChecker = (*GeminiProvider)(nil)
)

func NewGeminiProvider(ctx context.Context, cfg config.AIConfig, logger *errors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.Gemini.BaseURL},
	})
	if err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderFailed, "Failed to create Gemini client", err)
	}

	modelSettings := breaker.FromConfig(cfg.CircuitBreaker)
	modelSettings.MinRequests = 5
	modelSettings.FailureThreshold = 0.8

	return &GeminiProvider{
		client:       client,
		cfg:          cfg,
		breaker:      breaker.New[*genai.GenerateContentResponse]("provider-gemini", breaker.FromConfig(cfg.CircuitBreaker), logger),
		modelBreaker: breaker.New[*genai.Model]("provider-gemini-model", modelSettings, logger),
		logger:       logger,
	}, nil
}

func (g *GeminiProvider) Name() string { return "gemini" }

// Generate runs one GenerateContent call, asking for a JSON response.
func (g *GeminiProvider) Generate(ctx context.Context, req Request) (*Generation, error) {
	ctx, span := otel.Tracer("jobscout.ai.gemini").Start(ctx, "gemini.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", g.Name()),
		attribute.String("ai.model", g.cfg.Model),
		attribute.Float64("ai.temperature", float64(req.Temperature)),
		attribute.Int("input.prompt_length", len(req.Prompt)),
	)

	temperature := req.Temperature
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  req.MaxTokens,
		Temperature:      &temperature,
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return withRetry(ctx, g.logger, "gemini.generate", g.cfg.MaxRetries, isRetryableGoogleError, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(req.Prompt), genCfg)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, providerError(g.Name(), err, classifyGoogleError)
	}

	gen := &Generation{
		Text:  strings.TrimSpace(result.Text()),
		Model: g.cfg.Model,
		Usage: extractTokenUsage(result),
	}
	if gen.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", gen.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", gen.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", gen.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return gen, nil
}

// GetModelInfo checks the availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.cfg.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.cfg.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed", "model", g.cfg.Model, "error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

func (g *GeminiProvider) IsHealthy() bool {
	return g.breaker.IsHealthy() && g.modelBreaker.IsHealthy()
}

func (g *GeminiProvider) Stats() map[string]any {
	return map[string]any{
		"generate": g.breaker.Stats(),
		"model":    g.modelBreaker.Stats(),
	}
}

func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	return &TokenUsage{
		InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
		OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
	}
}

func isRetryableGoogleError(err error) bool {
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	switch googleStatus(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func classifyGoogleError(err error) string {
	switch googleStatus(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.ErrCodeProviderAuth
	case http.StatusTooManyRequests:
		return errors.ErrCodeProviderQuota
	}
	return ""
}

// googleStatus returns the HTTP status of a genai or googleapi error, 0 for anything else.
func googleStatus(err error) int {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	var gErr *googleapi.Error
	if stderrors.As(err, &gErr) {
		return gErr.Code
	}
	return 0
}
