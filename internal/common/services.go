package common

import (
	"context"
	"fmt"

	"jobscout/internal/ai"
	"jobscout/internal/analysis"
	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/events"
	"jobscout/internal/extract"
	"jobscout/internal/jobs"
	"jobscout/internal/observability"
	"jobscout/internal/storage"
	"jobscout/internal/types"
)

// Services wires the analysis and job search pipeline shared by the CLI and the
// HTTP server. Metrics and events are recorded here so both surfaces report alike.
type Services struct {
	Config     *config.Config
	Analyzer   *analysis.Analyzer
	Aggregator *jobs.Aggregator
	Extractor  *extract.Extractor
	Loader     *storage.Loader
	Publisher  events.Publisher
	Metrics    *observability.Metrics
	Logger     *errors.Logger
}

// NewServices builds every component from cfg. metrics may be nil.
func NewServices(cfg *config.Config, metrics *observability.Metrics, logger *errors.Logger) (*Services, error) {
	if logger == nil {
		logger = errors.Nop()
	}

	gen, err := ai.NewGenerator(cfg.AI, logger)
	if err != nil {
		return nil, err
	}

	sources, err := jobs.BuildSources(cfg.Jobs, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		logger.LogWarnError(err, "Event publishing disabled")
		publisher = events.Nop{}
	}

	extractor := extract.NewExtractor(cfg.Extract)
	return &Services{
		Config: cfg,
		Analyzer: analysis.NewAnalyzer(analysis.Options{
			Generator:    observability.InstrumentGenerator(gen, metrics),
			SystemPrompt: cfg.AI.SystemPrompt,
			Instruction:  cfg.AI.Instruction,
			MaxTokens:    cfg.AI.MaxTokens,
			Temperature:  &cfg.AI.Temperature,
			Timeout:      cfg.AI.Timeout,
			Tokenizer:    analysis.NewTokenizer(cfg.Analysis.ExtraStopwords...),
			KeywordLimit: cfg.Analysis.KeywordLimit,
			Logger:       logger,
		}),
		Aggregator: jobs.NewAggregator(sources, logger),
		Extractor:  extractor,
		Loader:     storage.NewLoader(cfg.Storage.S3, extractor.MaxFileSize(), logger),
		Publisher:  publisher,
		Metrics:    metrics,
		Logger:     logger,
	}, nil
}

// Close releases the event publisher.
func (s *Services) Close() error {
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher.Close()
}

// AnalyzeDocument extracts text from an uploaded or loaded resume and analyzes it.
// Only extraction can fail.
func (s *Services) AnalyzeDocument(ctx context.Context, filename string, data []byte) (types.AnalysisReport, error) {
	text, err := s.Extractor.Extract(filename, data)
	if err != nil {
		return types.AnalysisReport{}, err
	}
	return s.AnalyzeText(ctx, text), nil
}

// AnalyzeText runs the analysis and records its path.
func (s *Services) AnalyzeText(ctx context.Context, text string) types.AnalysisReport {
	res := s.Analyzer.Analyze(ctx, text)
	s.Metrics.RecordAnalysis(ctx, string(res.Path))

	payload := events.AnalysisCompleted{Path: string(res.Path), TextLength: len(text)}
	if gen := s.Analyzer.Generator(); gen != nil {
		payload.Provider = gen.Name()
	}
	if res.ProviderErr != nil {
		payload.ProviderErr = res.ProviderErr.Error()
	}
	s.publish(ctx, events.New(events.TypeAnalysisCompleted, payload))

	if res.Usage != nil {
		s.Logger.Info("Provider token usage",
			"input_tokens", res.Usage.InputTokens,
			"output_tokens", res.Usage.OutputTokens,
			"total_tokens", res.Usage.TotalTokens)
	}
	return res.Report
}

// Keywords returns the comma-joined search keywords for text.
func (s *Services) Keywords(text string) string {
	return s.Analyzer.Keywords(text)
}

// SearchJobs queries the sources for rawKeywords. It fails only when every
// queried source failed.
func (s *Services) SearchJobs(ctx context.Context, rawKeywords string, rows int) ([]types.JobPosting, error) {
	res, err := s.Aggregator.Search(ctx, rawKeywords, rows)

	failed := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		failed = append(failed, f.Source)
	}
	s.Metrics.RecordJobSearch(ctx, len(res.Jobs), failed, err)
	s.publish(ctx, events.New(events.TypeJobsSearched, events.JobsSearched{
		Terms:         res.Terms,
		RowLimit:      rows,
		Returned:      len(res.Jobs),
		FailedSources: failed,
	}))

	if err != nil {
		return nil, err
	}
	return res.Jobs, nil
}

// Recommend loads a resume by reference (path or s3:// URI), analyzes it and
// searches jobs with the keywords of its summary.
func (s *Services) Recommend(ctx context.Context, ref string, rows int) (types.JobRecommendation, error) {
	doc, err := s.Loader.Load(ctx, ref)
	if err != nil {
		return types.JobRecommendation{}, err
	}

	report, err := s.AnalyzeDocument(ctx, doc.Name, doc.Data)
	if err != nil {
		return types.JobRecommendation{}, err
	}

	keywords := s.Keywords(report.Summary)
	postings, err := s.SearchJobs(ctx, keywords, rows)
	if err != nil {
		return types.JobRecommendation{}, fmt.Errorf("job search failed: %w", err)
	}

	return types.JobRecommendation{Report: report, Keywords: keywords, Jobs: postings}, nil
}

func (s *Services) publish(ctx context.Context, ev events.Event) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, ev); err != nil {
		s.Logger.LogWarnError(err, "Failed to publish event", "event_type", ev.Type)
	}
}
