package observability

import (
	"context"
	"fmt"
	"time"

	"jobscout/internal/ai"
	"jobscout/internal/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the jobscout instruments. The zero value records nothing, so
// callers never need to check whether observability is enabled.
type Metrics struct {
	// Analysis
	Analyses metric.Int64Counter

	// Generative provider
	ProviderDuration metric.Float64Histogram
	ProviderRequests metric.Int64Counter
	ProviderErrors   metric.Int64Counter
	ProviderTokens   metric.Int64Histogram

	// Job aggregation
	JobSearches    metric.Int64Counter
	JobsReturned   metric.Int64Histogram
	SourceFailures metric.Int64Counter

	// Certificates
	CertReloads    metric.Int64Counter
	CertExpiryTime metric.Float64Gauge

	RateLimitHits metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.Analyses, err = meter.Int64Counter("jobscout_analyses_total",
		metric.WithDescription("Resume analyses by strategy path")); err != nil {
		return nil, fmt.Errorf("failed to create analyses metric: %w", err)
	}

	if m.ProviderDuration, err = meter.Float64Histogram("jobscout_provider_duration_seconds",
		metric.WithDescription("Time spent in generative provider calls"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create provider duration metric: %w", err)
	}
	if m.ProviderRequests, err = meter.Int64Counter("jobscout_provider_requests_total",
		metric.WithDescription("Total number of generative provider calls")); err != nil {
		return nil, fmt.Errorf("failed to create provider request metric: %w", err)
	}
	if m.ProviderErrors, err = meter.Int64Counter("jobscout_provider_errors_total",
		metric.WithDescription("Generative provider calls that failed")); err != nil {
		return nil, fmt.Errorf("failed to create provider error metric: %w", err)
	}
	if m.ProviderTokens, err = meter.Int64Histogram("jobscout_provider_token_usage",
		metric.WithDescription("Token usage per provider call (input, output, total)"),
		metric.WithUnit("tokens")); err != nil {
		return nil, fmt.Errorf("failed to create token usage metric: %w", err)
	}

	if m.JobSearches, err = meter.Int64Counter("jobscout_job_searches_total",
		metric.WithDescription("Job searches by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create job search metric: %w", err)
	}
	if m.JobsReturned, err = meter.Int64Histogram("jobscout_jobs_returned",
		metric.WithDescription("Postings returned per job search")); err != nil {
		return nil, fmt.Errorf("failed to create jobs returned metric: %w", err)
	}
	if m.SourceFailures, err = meter.Int64Counter("jobscout_source_failures_total",
		metric.WithDescription("Job source queries that failed and were skipped")); err != nil {
		return nil, fmt.Errorf("failed to create source failure metric: %w", err)
	}

	if m.CertReloads, err = meter.Int64Counter("jobscout_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads")); err != nil {
		return nil, fmt.Errorf("failed to create certificate reload metric: %w", err)
	}
	if m.CertExpiryTime, err = meter.Float64Gauge("jobscout_cert_expiry_seconds",
		metric.WithDescription("Seconds until certificate expiry"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create certificate expiry metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter("jobscout_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter")); err != nil {
		return nil, fmt.Errorf("failed to create rate limit metric: %w", err)
	}

	return m, nil
}

// RecordAnalysis counts one analysis under its strategy path.
func (m *Metrics) RecordAnalysis(ctx context.Context, path string) {
	if m == nil || m.Analyses == nil {
		return
	}
	m.Analyses.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

// RecordProviderCall records latency, outcome and token usage of one provider call.
func (m *Metrics) RecordProviderCall(ctx context.Context, provider string, duration time.Duration, usage *ai.TokenUsage, err error) {
	if m == nil || m.ProviderRequests == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.Bool("success", err == nil),
	}
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.ProviderDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if err != nil {
		code := "unknown"
		if appErr, ok := errors.As(err); ok {
			code = appErr.Code
		}
		m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("code", code)))
		return
	}

	if usage == nil {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.ProviderTokens.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("token_type", tt.tokenType)))
	}
}

// RecordJobSearch records one aggregation run: how many postings it returned,
// which sources were skipped, and whether it failed outright.
func (m *Metrics) RecordJobSearch(ctx context.Context, returned int, failedSources []string, err error) {
	if m == nil || m.JobSearches == nil {
		return
	}
	m.JobSearches.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
	if err == nil {
		m.JobsReturned.Record(ctx, int64(returned))
	}
	for _, source := range failedSources {
		m.SourceFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordRateLimitHit counts a rejected request. limitType is "ip" or "api_key".
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limitType string) {
	if m == nil || m.RateLimitHits == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_type", limitType)))
}

// RecordCertReload counts a certificate reload and, on success, updates the expiry gauge.
func (m *Metrics) RecordCertReload(ctx context.Context, notAfter time.Time, err error) {
	if m == nil || m.CertReloads == nil {
		return
	}
	m.CertReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
	if err == nil && !notAfter.IsZero() {
		m.CertExpiryTime.Record(ctx, time.Until(notAfter).Seconds())
	}
}

type instrumentedGenerator struct {
	ai.Generator
	metrics *Metrics
}

// InstrumentGenerator records provider metrics around every Generate call.
// A nil generator stays nil so a disabled provider remains disabled.
func InstrumentGenerator(gen ai.Generator, m *Metrics) ai.Generator {
	if gen == nil {
		return nil
	}
	return &instrumentedGenerator{Generator: gen, metrics: m}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, req ai.Request) (*ai.Generation, error) {
	start := time.Now()
	gen, err := g.Generator.Generate(ctx, req)

	var usage *ai.TokenUsage
	if gen != nil {
		usage = gen.Usage
	}
	g.metrics.RecordProviderCall(ctx, g.Generator.Name(), time.Since(start), usage, err)
	return gen, err
}

// Unwrap returns the wrapped provider.
func (g *instrumentedGenerator) Unwrap() ai.Generator { return g.Generator }

// IsHealthy forwards breaker state when the wrapped provider reports it.
func (g *instrumentedGenerator) IsHealthy() bool {
	if hr, ok := g.Generator.(ai.HealthReporter); ok {
		return hr.IsHealthy()
	}
	return true
}

func (g *instrumentedGenerator) Stats() map[string]any {
	if hr, ok := g.Generator.(ai.HealthReporter); ok {
		return hr.Stats()
	}
	return nil
}
