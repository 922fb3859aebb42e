package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobscout/internal/ai"
	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type stubGenerator struct {
	gen *ai.Generation
	err error
}

func (s stubGenerator) Name() string { return "stub" }

func (s stubGenerator) Generate(context.Context, ai.Request) (*ai.Generation, error) {
	return s.gen, s.err
}

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := newMetrics(mp.Meter("jobscout-test"))
	require.NoError(t, err)
	return m, reader
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestRecordAnalysis(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAnalysis(ctx, "heuristic")
	m.RecordAnalysis(ctx, "generative")

	assert.Equal(t, int64(2), sumOf(t, reader, "jobscout_analyses_total"))
}

func TestRecordJobSearch(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordJobSearch(ctx, 12, []string{"remotive"}, nil)
	m.RecordJobSearch(ctx, 0, []string{"weworkremotely", "remotive"}, errors.NewFetchError(errors.ErrCodeAllSourcesFailed, "down", nil))

	assert.Equal(t, int64(2), sumOf(t, reader, "jobscout_job_searches_total"))
	assert.Equal(t, int64(3), sumOf(t, reader, "jobscout_source_failures_total"))
}

func TestZeroMetricsAreSafe(t *testing.T) {
	ctx := context.Background()
	for _, m := range []*Metrics{nil, {}} {
		assert.NotPanics(t, func() {
			m.RecordAnalysis(ctx, "heuristic")
			m.RecordProviderCall(ctx, "stub", time.Second, nil, nil)
			m.RecordJobSearch(ctx, 1, []string{"a"}, nil)
			m.RecordRateLimitHit(ctx, "ip")
			m.RecordCertReload(ctx, time.Now().Add(time.Hour), nil)
		})
	}
}

func TestInstrumentGenerator(t *testing.T) {
	assert.Nil(t, InstrumentGenerator(nil, &Metrics{}))

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	ok := InstrumentGenerator(stubGenerator{gen: &ai.Generation{
		Text:  "{}",
		Usage: &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}}, m)
	gen, err := ok.Generate(ctx, ai.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "{}", gen.Text)
	assert.Equal(t, "stub", ok.Name())

	failing := InstrumentGenerator(stubGenerator{
		err: errors.NewProviderError(errors.ErrCodeProviderTimeout, "timed out", nil),
	}, m)
	_, err = failing.Generate(ctx, ai.Request{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeProvider))

	assert.Equal(t, int64(2), sumOf(t, reader, "jobscout_provider_requests_total"))
	assert.Equal(t, int64(1), sumOf(t, reader, "jobscout_provider_errors_total"))

	hr, isReporter := ok.(ai.HealthReporter)
	require.True(t, isReporter)
	assert.True(t, hr.IsHealthy())
}

func TestPrometheusExporterServesMetrics(t *testing.T) {
	reader, mux, err := SetupPrometheusExporter(PrometheusConfig{Enabled: true, Endpoint: "/metrics"})
	require.NoError(t, err)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	m, err := newMetrics(mp.Meter("jobscout-test"))
	require.NoError(t, err)
	m.RecordRateLimitHit(context.Background(), "ip")

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "jobscout_rate_limit_hits")
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(Config{ServiceName: "jobscout"}, nil)
	require.NoError(t, err)

	assert.False(t, om.Enabled())
	assert.NotNil(t, om.GetMetrics())
	assert.NotNil(t, om.Tracer("test"))

	h := om.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestFromConfigDefaults(t *testing.T) {
	cfg := FromConfig(nil, "1.2.3")
	assert.Equal(t, "jobscout", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, defaultMetricsInterval, cfg.MetricsInterval)
}
