package analysis

import (
	"context"
	"strings"
	"time"

	"jobscout/internal/ai"
	"jobscout/internal/errors"
	"jobscout/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultSystemPrompt = "You are a concise resume analyst."
	DefaultInstruction  = "Analyze this resume text and reply as JSON with keys summary, gaps, roadmap. " +
		"Summary should be 3 sentences. Gaps should list missing skills or areas. " +
		"Roadmap should be 3 bullet points. Resume text:\n\n"

	DefaultMaxTokens   int32   = 420
	DefaultTemperature float32 = 0.4
	DefaultTimeout             = 40 * time.Second
)

// Path records which strategy produced a report.
type Path string

const (
	PathEmpty              Path = "empty"
	PathGenerative         Path = "generative"
	PathGenerativeDegraded Path = "generative_degraded"
	PathHeuristic          Path = "heuristic"
	PathHeuristicFallback  Path = "heuristic_fallback"
)

// Result is the outcome of one analysis. ProviderErr is set when a provider call
// failed and the heuristic path answered instead.
type Result struct {
	Report      types.AnalysisReport
	Path        Path
	ProviderErr error
	Usage       *ai.TokenUsage
}

// Options configures an Analyzer. Zero values fall back to the defaults above;
// Temperature uses the default only when nil, so 0 can be requested.
type Options struct {
	Generator    ai.Generator
	SystemPrompt string
	Instruction  string
	MaxTokens    int32
	Temperature  *float32
	Timeout      time.Duration
	Tokenizer    *Tokenizer
	Catalog      *SkillCatalog
	KeywordLimit int
	Logger       *errors.Logger
}

// Analyzer turns resume text into an AnalysisReport. A nil Generator means the
// provider is not configured and only the heuristic path runs.
type Analyzer struct {
	generator    ai.Generator
	systemPrompt string
	instruction  string
	maxTokens    int32
	temperature  float32
	timeout      time.Duration
	tokenizer    *Tokenizer
	catalog      *SkillCatalog
	keywordLimit int
	logger       *errors.Logger
}

func NewAnalyzer(opts Options) *Analyzer {
	a := &Analyzer{
		generator:    opts.Generator,
		systemPrompt: opts.SystemPrompt,
		instruction:  opts.Instruction,
		maxTokens:    opts.MaxTokens,
		temperature:  DefaultTemperature,
		timeout:      opts.Timeout,
		tokenizer:    opts.Tokenizer,
		catalog:      opts.Catalog,
		keywordLimit: opts.KeywordLimit,
		logger:       opts.Logger,
	}
	if a.systemPrompt == "" {
		a.systemPrompt = DefaultSystemPrompt
	}
	if a.instruction == "" {
		a.instruction = DefaultInstruction
	}
	if a.maxTokens <= 0 {
		a.maxTokens = DefaultMaxTokens
	}
	if opts.Temperature != nil {
		a.temperature = *opts.Temperature
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.tokenizer == nil {
		a.tokenizer = NewTokenizer()
	}
	if a.catalog == nil {
		a.catalog = NewSkillCatalog(DefaultBuckets)
	}
	if a.keywordLimit <= 0 {
		a.keywordLimit = KeywordLimit
	}
	if a.logger == nil {
		a.logger = errors.Nop()
	}
	return a
}

// GenerativeEnabled reports whether a provider is configured.
func (a *Analyzer) GenerativeEnabled() bool {
	return a.generator != nil
}

// Generator returns the configured provider, nil when disabled.
func (a *Analyzer) Generator() ai.Generator {
	return a.generator
}

// Analyze never fails once it has text: provider and parse failures degrade to
// the line-split or heuristic paths.
func (a *Analyzer) Analyze(ctx context.Context, text string) Result {
	ctx, span := otel.Tracer("jobscout.analysis").Start(ctx, "analysis.analyze")
	defer span.End()

	text = strings.TrimSpace(text)
	span.SetAttributes(attribute.Int("input.text_length", len(text)))

	var res Result
	switch {
	case text == "":
		res = Result{Report: types.AnalysisReport{Summary: noReadableTextMessage}, Path: PathEmpty}
	case a.generator != nil:
		res = a.analyzeGenerative(ctx, text)
	default:
		res = a.analyzeHeuristic(text)
	}

	span.SetAttributes(attribute.String("analysis.path", string(res.Path)))
	if res.ProviderErr != nil {
		span.RecordError(res.ProviderErr)
	}
	return res
}

func (a *Analyzer) analyzeGenerative(ctx context.Context, text string) Result {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	gen, err := a.generator.Generate(callCtx, ai.Request{
		SystemPrompt: a.systemPrompt,
		Prompt:       a.instruction + text,
		MaxTokens:    a.maxTokens,
		Temperature:  a.temperature,
	})
	if err != nil {
		if !errors.IsType(err, errors.ErrorTypeProvider) {
			err = errors.NewProviderError(errors.ErrCodeProviderFailed, "generation failed", err)
		}
		a.logger.LogWarnError(err, "Generative analysis failed, using heuristic analysis",
			"provider", a.generator.Name())
		res := a.analyzeHeuristic(text)
		res.Path = PathHeuristicFallback
		res.ProviderErr = err
		return res
	}

	report, err := ParseReport(gen.Text)
	if err != nil {
		a.logger.LogWarnError(err, "Provider reply was not a JSON report, splitting lines",
			"provider", a.generator.Name(),
			"reply_length", len(gen.Text))
		return Result{Report: SplitReport(gen.Text), Path: PathGenerativeDegraded, Usage: gen.Usage}
	}
	return Result{Report: report, Path: PathGenerative, Usage: gen.Usage}
}

func (a *Analyzer) analyzeHeuristic(text string) Result {
	_, tokens := a.tokenizer.ExtractKeywords(text, HeuristicTokenLimit)
	return Result{
		Report: types.AnalysisReport{
			Summary: Summarize(text),
			Gaps:    a.catalog.DetectSkillGaps(tokens),
			Roadmap: a.catalog.BuildRoadmap(tokens),
		},
		Path: PathHeuristic,
	}
}

// Keywords returns the comma-joined top keywords of text, used as job search terms.
func (a *Analyzer) Keywords(text string) string {
	joined, _ := a.tokenizer.ExtractKeywords(text, a.keywordLimit)
	return joined
}
