package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"jobscout/internal/errors"
	"jobscout/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultRowLimit is the number of postings returned when callers do not ask for one.
const DefaultRowLimit = 60

// ErrAllSourcesFailed is matched by the error FetchJobs returns when no queried
// source could be read.
var ErrAllSourcesFailed = stderrors.New("all job sources failed")

// SourceFailure records a source that was skipped during a search.
type SourceFailure struct {
	Source string
	Err    error
}

// SearchResult is the detailed outcome of a search.
type SearchResult struct {
	Jobs     []types.JobPosting
	Terms    []string
	Queried  []string
	Failures []SourceFailure
}

// Aggregator queries sources in priority order until the row limit is met.
type Aggregator struct {
	sources []Source
	logger  *errors.Logger
}

func NewAggregator(sources []Source, logger *errors.Logger) *Aggregator {
	if logger == nil {
		logger = errors.Nop()
	}
	return &Aggregator{sources: sources, logger: logger}
}

// Sources returns the sources in query order.
func (a *Aggregator) Sources() []Source {
	return a.sources
}

// FetchJobs returns at most rowLimit postings matching rawKeywords.
func (a *Aggregator) FetchJobs(ctx context.Context, rawKeywords string, rowLimit int) ([]types.JobPosting, error) {
	res, err := a.Search(ctx, rawKeywords, rowLimit)
	if err != nil {
		return nil, err
	}
	return res.Jobs, nil
}

// Search is FetchJobs with per-source bookkeeping. A failing source is logged and
// skipped; the search fails only when every source it queried failed.
func (a *Aggregator) Search(ctx context.Context, rawKeywords string, rowLimit int) (SearchResult, error) {
	ctx, span := otel.Tracer("jobscout.jobs").Start(ctx, "jobs.search")
	defer span.End()

	res := SearchResult{Jobs: []types.JobPosting{}, Terms: ParseTerms(rawKeywords)}
	span.SetAttributes(
		attribute.StringSlice("jobs.terms", res.Terms),
		attribute.Int("jobs.row_limit", rowLimit),
	)
	if rowLimit <= 0 {
		return res, nil
	}

	failed := 0
	for _, src := range a.sources {
		remaining := rowLimit - len(res.Jobs)
		if remaining <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			res.Failures = append(res.Failures, SourceFailure{Source: src.Name(), Err: err})
			break
		}

		res.Queried = append(res.Queried, src.Name())
		records, err := a.querySource(ctx, src, res.Terms, remaining)
		if err != nil {
			failed++
			res.Failures = append(res.Failures, SourceFailure{Source: src.Name(), Err: err})
			a.logger.LogWarnError(err, "Job source failed, skipping", "source", src.Name())
			continue
		}

		for _, rec := range records {
			if len(res.Jobs) >= rowLimit {
				break
			}
			res.Jobs = append(res.Jobs, Normalize(rec))
		}
	}

	span.SetAttributes(
		attribute.Int("jobs.count", len(res.Jobs)),
		attribute.Int("jobs.failed_sources", len(res.Failures)),
	)

	if len(res.Failures) > 0 && failed == len(res.Queried) {
		errs := make([]error, 0, len(res.Failures))
		for _, f := range res.Failures {
			errs = append(errs, fmt.Errorf("%s: %w", f.Source, f.Err))
		}
		err := errors.NewFetchError(errors.ErrCodeAllSourcesFailed, "no job source could be queried",
			fmt.Errorf("%w: %w", ErrAllSourcesFailed, stderrors.Join(errs...)))
		span.RecordError(err)
		return res, err
	}
	return res, nil
}

func (a *Aggregator) querySource(ctx context.Context, src Source, terms []string, rowLimit int) ([]Record, error) {
	ctx, span := otel.Tracer("jobscout.jobs").Start(ctx, "jobs.source.query")
	defer span.End()
	span.SetAttributes(attribute.String("jobs.source", src.Name()))

	start := time.Now()
	records, err := src.Query(ctx, terms, rowLimit)
	a.logger.Debug("Job source queried",
		"source", src.Name(),
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		span.RecordError(err)
		return nil, wrapSourceError(src.Name(), err)
	}
	return records, nil
}

// Normalize maps a source record onto the common posting shape. Empty values
// count as absent.
func Normalize(rec Record) types.JobPosting {
	return types.JobPosting{
		Title:       rec["title"],
		CompanyName: rec["companyName"],
		Location:    firstOf(rec, "location", "place", "city"),
		URL:         firstOf(rec, "url", "link"),
		Source:      firstOf(rec, "source"),
	}
}

func firstOf(rec Record, keys ...string) *string {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != "" {
			return &v
		}
	}
	return nil
}
