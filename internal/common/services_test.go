package common

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"jobscout/internal/analysis"
	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/events"
	"jobscout/internal/extract"
	"jobscout/internal/jobs"
	"jobscout/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name    string
	records []jobs.Record
	err     error
	terms   []string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Query(_ context.Context, terms []string, rowLimit int) ([]jobs.Record, error) {
	s.terms = terms
	if s.err != nil {
		return nil, s.err
	}
	if len(s.records) > rowLimit {
		return s.records[:rowLimit], nil
	}
	return s.records, nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestServices(sources ...jobs.Source) (*Services, *recordingPublisher) {
	pub := &recordingPublisher{}
	extractor := extract.NewExtractor(config.ExtractConfig{AllowedFormats: []string{"pdf", "txt"}, MaxFileSize: 1 << 20})
	return &Services{
		Config:     &config.Config{},
		Analyzer:   analysis.NewAnalyzer(analysis.Options{}),
		Aggregator: jobs.NewAggregator(sources, nil),
		Extractor:  extractor,
		Loader:     storage.NewLoader(config.S3Config{}, extractor.MaxFileSize(), nil),
		Publisher:  pub,
		Logger:     errors.Nop(),
	}, pub
}

const resumeText = "Built data pipelines on AWS with SQL and Airflow daily. Shipped RAG chatbots fast. Led a team of five. Mentored juniors."

func TestAnalyzeDocument(t *testing.T) {
	svc, pub := newTestServices()

	report, err := svc.AnalyzeDocument(context.Background(), "resume.txt", []byte(resumeText))
	require.NoError(t, err)
	assert.Equal(t, "Built data pipelines on AWS with SQL and Airflow daily. Shipped RAG chatbots fast. Led a team of five.", report.Summary)
	assert.Equal(t, "Solid coverage across cloud, data, MLOps, and LLM stacks.", report.Gaps)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeAnalysisCompleted, pub.events[0].Type)
	payload, ok := pub.events[0].Payload.(events.AnalysisCompleted)
	require.True(t, ok)
	assert.Equal(t, string(analysis.PathHeuristic), payload.Path)
}

func TestAnalyzeDocumentRejectsFormat(t *testing.T) {
	svc, pub := newTestServices()

	_, err := svc.AnalyzeDocument(context.Background(), "resume.docx", []byte("x"))
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
	assert.Equal(t, "Only PDF, TXT files are supported", appErr.Message)
	assert.Empty(t, pub.events)
}

func TestSearchJobs(t *testing.T) {
	failing := &stubSource{name: "down", err: errors.NewFetchError(errors.ErrCodeSourceUnavailable, "503", nil)}
	working := &stubSource{name: "feed", records: []jobs.Record{
		{"title": "Go Engineer", "companyName": "Acme", "link": "https://example.com/1", "source": "feed"},
		{"title": "SRE", "companyName": "Globex"},
	}}
	svc, pub := newTestServices(failing, working)

	postings, err := svc.SearchJobs(context.Background(), "Go, SRE", 1)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "https://example.com/1", *postings[0].URL)
	assert.Equal(t, []string{"go", "sre"}, working.terms)

	require.Len(t, pub.events, 1)
	payload, ok := pub.events[0].Payload.(events.JobsSearched)
	require.True(t, ok)
	assert.Equal(t, []string{"down"}, payload.FailedSources)
	assert.Equal(t, 1, payload.Returned)
}

func TestSearchJobsTotalOutage(t *testing.T) {
	svc, _ := newTestServices(&stubSource{name: "a", err: stderrors.New("boom")})

	_, err := svc.SearchJobs(context.Background(), "go", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, jobs.ErrAllSourcesFailed)
}

func TestRecommend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(resumeText), 0o600))

	src := &stubSource{name: "feed", records: []jobs.Record{{"title": "Data Engineer", "companyName": "Acme"}}}
	svc, _ := newTestServices(src)

	rec, err := svc.Recommend(context.Background(), path, 60)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Keywords)
	assert.Equal(t, jobs.ParseTerms(rec.Keywords), src.terms)
	require.Len(t, rec.Jobs, 1)
	assert.Equal(t, "Data Engineer", rec.Jobs[0].Title)
}
