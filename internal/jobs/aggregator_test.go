package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name     string
	records  []Record
	err      error
	calls    int
	gotTerms []string
	gotLimit int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Query(_ context.Context, terms []string, rowLimit int) ([]Record, error) {
	f.calls++
	f.gotTerms = terms
	f.gotLimit = rowLimit
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func records(source string, n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{"title": fmt.Sprintf("%s job %d", source, i), "companyName": source, "source": source}
	}
	return out
}

func TestFetchJobsPriorityAndRemainingRows(t *testing.T) {
	first := &fakeSource{name: "first", records: records("first", 3)}
	second := &fakeSource{name: "second", records: records("second", 10)}
	agg := NewAggregator([]Source{first, second}, nil)

	jobs, err := agg.FetchJobs(context.Background(), "Go, Rust", 5)
	require.NoError(t, err)
	require.Len(t, jobs, 5)

	assert.Equal(t, "first job 0", jobs[0].Title)
	assert.Equal(t, "second job 0", jobs[3].Title)
	assert.Equal(t, []string{"go", "rust"}, first.gotTerms)
	assert.Equal(t, 5, first.gotLimit)
	assert.Equal(t, 2, second.gotLimit)
}

func TestFetchJobsStopsOnceLimitReached(t *testing.T) {
	first := &fakeSource{name: "first", records: records("first", 4)}
	second := &fakeSource{name: "second", records: records("second", 4)}
	agg := NewAggregator([]Source{first, second}, nil)

	jobs, err := agg.FetchJobs(context.Background(), "go", 4)
	require.NoError(t, err)
	assert.Len(t, jobs, 4)
	assert.Zero(t, second.calls)
}

func TestFetchJobsTruncatesOversizedSourceResults(t *testing.T) {
	src := &fakeSource{name: "greedy", records: records("greedy", 9)}
	jobs, err := NewAggregator([]Source{src}, nil).FetchJobs(context.Background(), "go", 3)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}

func TestFetchJobsNonPositiveLimit(t *testing.T) {
	src := &fakeSource{name: "first", records: records("first", 2)}
	agg := NewAggregator([]Source{src}, nil)

	for _, limit := range []int{0, -1} {
		jobs, err := agg.FetchJobs(context.Background(), "go", limit)
		require.NoError(t, err)
		assert.NotNil(t, jobs)
		assert.Empty(t, jobs)
	}
	assert.Zero(t, src.calls)
}

func TestFetchJobsIsolatesFailingSource(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.NewFetchError(errors.ErrCodeSourceUnavailable, "down", nil)}
	healthy := &fakeSource{name: "healthy", records: records("healthy", 2)}
	agg := NewAggregator([]Source{broken, healthy}, nil)

	res, err := agg.Search(context.Background(), "go", 60)
	require.NoError(t, err)
	assert.Len(t, res.Jobs, 2)
	assert.Equal(t, []string{"broken", "healthy"}, res.Queried)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "broken", res.Failures[0].Source)
}

func TestFetchJobsAllSourcesFailed(t *testing.T) {
	a := &fakeSource{name: "a", err: stderrors.New("connection refused")}
	b := &fakeSource{name: "b", err: errors.NewFetchError(errors.ErrCodeSourceBadPayload, "bad xml", nil)}
	agg := NewAggregator([]Source{a, b}, nil)

	jobs, err := agg.FetchJobs(context.Background(), "go", 10)
	require.Error(t, err)
	assert.Nil(t, jobs)
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFetch))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "bad xml")
}

func TestFetchJobsEmptyResultsAreNotFailures(t *testing.T) {
	a := &fakeSource{name: "a"}
	jobs, err := NewAggregator([]Source{a}, nil).FetchJobs(context.Background(), "cobol", 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestFetchJobsNoSources(t *testing.T) {
	jobs, err := NewAggregator(nil, nil).FetchJobs(context.Background(), "go", 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
