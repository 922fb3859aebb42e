package jobs

import (
	"context"
	"time"

	"jobscout/internal/types"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultProbeTimeout = 5 * time.Second
	probeConcurrency    = 4
)

// ProbeSources checks every source concurrently and reports one status per
// source in query order. Sources without a Probe method are reported healthy
// unless their breaker is open.
func ProbeSources(ctx context.Context, sources []Source, timeout time.Duration) []types.SourceStatus {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	statuses := make([]types.SourceStatus, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)

	for i, src := range sources {
		g.Go(func() error {
			statuses[i] = probeOne(gctx, src, timeout)
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

func probeOne(ctx context.Context, src Source, timeout time.Duration) types.SourceStatus {
	status := types.SourceStatus{Name: src.Name(), Healthy: true}

	if h, ok := src.(interface{ IsHealthy() bool }); ok && !h.IsHealthy() {
		status.Healthy = false
		status.Error = "circuit breaker open"
		return status
	}

	p, ok := src.(Prober)
	if !ok {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := p.Probe(ctx)
	status.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	return status
}
