package observability

import (
	"time"

	"jobscout/internal/config"
)

// Config holds the settings the manager needs, resolved from the application config.
type Config struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	PrettyPrint     bool
	SampleRate      float64
	MetricsInterval time.Duration
	Prometheus      PrometheusConfig
	OTLP            config.OTLPConfig
}

// FromConfig resolves observability settings. The application version is used
// when no service version is configured.
func FromConfig(cfg *config.Config, version string) Config {
	if cfg == nil {
		return Config{
			ServiceName:     "jobscout",
			ServiceVersion:  version,
			ServiceInstance: "jobscout-1",
			SampleRate:      1.0,
			MetricsInterval: defaultMetricsInterval,
			Prometheus:      GetPrometheusConfig(nil),
		}
	}

	obs := cfg.Observability
	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}
	interval := obs.MetricsInterval
	if interval <= 0 {
		interval = defaultMetricsInterval
	}

	return Config{
		ServiceName:     obs.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obs.ServiceInstance,
		Enabled:         obs.Enabled,
		ConsoleOutput:   obs.ConsoleOutput,
		PrettyPrint:     obs.PrettyPrint,
		SampleRate:      obs.SampleRate,
		MetricsInterval: interval,
		Prometheus:      GetPrometheusConfig(cfg),
		OTLP:            obs.OTLP,
	}
}
