package jobs

import (
	"context"
	"fmt"
	"strings"

	"jobscout/internal/breaker"
	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/mitchellh/mapstructure"
)

// BuildSources instantiates the enabled sources of cfg in configuration order.
// All sources share one HTTP client and per-host limiter.
func BuildSources(cfg config.JobsConfig, logger *errors.Logger) ([]Source, error) {
	if logger == nil {
		logger = errors.Nop()
	}

	client := NewClient(cfg.Timeout, cfg.UserAgent, NewHostLimiter(cfg.HostRate, cfg.HostBurst))
	fetcher := NewGofeedFetcher(client)

	var sources []Source
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		src, err := buildSource(sc, client, fetcher)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("job source %q: %v", sc.Name, err), err)
		}
		sources = append(sources, guard(src, breaker.FromConfig(cfg.CircuitBreaker), logger))
		logger.Debug("Job source registered", "source", sc.Name, "type", sc.Type)
	}
	return sources, nil
}

func buildSource(sc config.SourceConfig, client *Client, fetcher FeedFetcher) (Source, error) {
	switch strings.ToLower(sc.Type) {
	case "feed":
		var opts FeedOptions
		if err := decodeOptions(sc.Options, &opts); err != nil {
			return nil, err
		}
		if opts.URL == "" {
			return nil, fmt.Errorf("options.url is required")
		}
		return NewFeedSource(sc.Name, opts, fetcher), nil
	case "remotive":
		var opts RemotiveOptions
		if err := decodeOptions(sc.Options, &opts); err != nil {
			return nil, err
		}
		return NewRemotiveSource(sc.Name, opts, client), nil
	case "greenhouse":
		var opts GreenhouseOptions
		if err := decodeOptions(sc.Options, &opts); err != nil {
			return nil, err
		}
		for i, b := range opts.Boards {
			if strings.TrimSpace(b.Slug) == "" {
				return nil, fmt.Errorf("options.boards[%d].slug is required", i)
			}
		}
		return NewGreenhouseSource(sc.Name, opts, client), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", sc.Type)
	}
}

func decodeOptions(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decoding options: %w", err)
	}
	return nil
}

// guardedSource runs queries through a per-source circuit breaker.
type guardedSource struct {
	Source
	breaker *breaker.Breaker[[]Record]
}

func guard(src Source, settings breaker.Settings, logger *errors.Logger) Source {
	cb := breaker.New[[]Record]("source-"+src.Name(), settings, logger)
	if cb == nil {
		return src
	}
	return &guardedSource{Source: src, breaker: cb}
}

func (g *guardedSource) Query(ctx context.Context, terms []string, rowLimit int) ([]Record, error) {
	records, err := g.breaker.Execute(func() ([]Record, error) {
		return g.Source.Query(ctx, terms, rowLimit)
	})
	if err != nil && breaker.IsOpenError(err) {
		return nil, errors.NewFetchError(errors.ErrCodeCircuitOpen, "source temporarily disabled", err).
			WithContext("source", g.Name())
	}
	return records, err
}

func (g *guardedSource) Probe(ctx context.Context) error {
	if p, ok := g.Source.(Prober); ok {
		return p.Probe(ctx)
	}
	return nil
}

func (g *guardedSource) IsHealthy() bool {
	return g.breaker.IsHealthy()
}

func (g *guardedSource) Stats() map[string]any {
	return g.breaker.Stats()
}
