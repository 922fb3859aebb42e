package ai

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"jobscout/internal/breaker"
	"jobscout/internal/config"
	"jobscout/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OpenRouterProvider calls the OpenRouter chat completions endpoint.
type OpenRouterProvider struct {
	cfg     config.AIConfig
	client  *http.Client
	breaker *breaker.Breaker[*Generation]
	logger  *errors.Logger
}

var _ Generator = (*OpenRouterProvider)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int32         `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("OpenRouter error %d: %s", e.StatusCode, e.Body)
}

func NewOpenRouterProvider(cfg config.AIConfig, logger *errors.Logger) *OpenRouterProvider {
	return &OpenRouterProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker.New[*Generation]("provider-openrouter", breaker.FromConfig(cfg.CircuitBreaker), logger),
		logger:  logger,
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

// Generate sends one chat completion request and returns the trimmed content of the first choice.
func (p *OpenRouterProvider) Generate(ctx context.Context, req Request) (*Generation, error) {
	ctx, span := otel.Tracer("jobscout.ai.openrouter").Start(ctx, "openrouter.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", p.Name()),
		attribute.String("ai.model", p.cfg.Model),
		attribute.Float64("ai.temperature", float64(req.Temperature)),
		attribute.Int("input.prompt_length", len(req.Prompt)),
	)

	gen, err := p.breaker.Execute(func() (*Generation, error) {
		return withRetry(ctx, p.logger, "openrouter.generate", p.cfg.MaxRetries, isRetryableStatus, func() (*Generation, error) {
			return p.complete(ctx, req)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, providerError(p.Name(), err, classifyStatus)
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

func (p *OpenRouterProvider) complete(ctx context.Context, req Request) (*Generation, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := strings.TrimRight(p.cfg.OpenRouter.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", p.cfg.OpenRouter.SiteURL)
	httpReq.Header.Set("X-Title", p.cfg.OpenRouter.AppName)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling OpenRouter: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	gen := &Generation{
		Text:  strings.TrimSpace(parsed.Choices[0].Message.Content),
		Model: parsed.Model,
	}
	if parsed.Usage != nil {
		gen.Usage = &TokenUsage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		}
	}
	return gen, nil
}

// IsHealthy reports whether the provider breaker is closed.
func (p *OpenRouterProvider) IsHealthy() bool { return p.breaker.IsHealthy() }

func (p *OpenRouterProvider) Stats() map[string]any { return p.breaker.Stats() }

func isRetryableStatus(err error) bool {
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

func classifyStatus(err error) string {
	var statusErr *StatusError
	if !stderrors.As(err, &statusErr) {
		return ""
	}
	switch statusErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return errors.ErrCodeProviderAuth
	case http.StatusTooManyRequests:
		return errors.ErrCodeProviderQuota
	}
	return ""
}
