package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"jobscout/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("yaml", "any", &YAMLFormatter{})
	registry.RegisterFormatter("text", "AnalysisReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisReport", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobsOutput", &JobsTextFormatter{})
	registry.RegisterFormatter("markdown", "JobsOutput", &JobsMarkdownFormatter{})
	registry.RegisterFormatter("text", "KeywordsOutput", &KeywordsTextFormatter{})
	registry.RegisterFormatter("markdown", "KeywordsOutput", &KeywordsTextFormatter{})
	registry.RegisterFormatter("text", "JobRecommendation", &RecommendationTextFormatter{})
	registry.RegisterFormatter("markdown", "JobRecommendation", &RecommendationMarkdownFormatter{})

	return registry
}

// GlobalRegistry is the registry used by the CLI output handler.
var GlobalRegistry = NewFormatterRegistry()

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in sorted order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisReport:
		return "AnalysisReport"
	case types.JobsOutput:
		return "JobsOutput"
	case types.KeywordsOutput:
		return "KeywordsOutput"
	case types.JobRecommendation:
		return "JobRecommendation"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return "any"
}

// ReportTextFormatter renders an analysis report as plain sections.
type ReportTextFormatter struct{}

func (f *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder
	writeReportText(&output, report)
	return output.String(), nil
}

func (f *ReportTextFormatter) SupportedType() string {
	return "AnalysisReport"
}

func writeReportText(output *strings.Builder, report types.AnalysisReport) {
	output.WriteString("=== SUMMARY ===\n")
	output.WriteString(report.Summary)
	output.WriteString("\n\n")
	output.WriteString("=== SKILL GAPS ===\n")
	output.WriteString(orNone(report.Gaps))
	output.WriteString("\n\n")
	output.WriteString("=== ROADMAP ===\n")
	output.WriteString(orNone(report.Roadmap))
	output.WriteString("\n")
}

// ReportMarkdownFormatter renders an analysis report as Markdown.
type ReportMarkdownFormatter struct{}

func (f *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resume Analysis\n\n")
	writeReportMarkdown(&output, report, "##")
	return output.String(), nil
}

func (f *ReportMarkdownFormatter) SupportedType() string {
	return "AnalysisReport"
}

func writeReportMarkdown(output *strings.Builder, report types.AnalysisReport, heading string) {
	fmt.Fprintf(output, "%s Summary\n\n%s\n\n", heading, report.Summary)
	fmt.Fprintf(output, "%s Skill Gaps\n\n%s\n\n", heading, orNone(report.Gaps))
	fmt.Fprintf(output, "%s Roadmap\n\n%s\n", heading, orNone(report.Roadmap))
}

// JobsTextFormatter lists postings one block per job.
type JobsTextFormatter struct{}

func (f *JobsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobsOutput)
	if !ok {
		return "", fmt.Errorf("expected JobsOutput, got %T", data)
	}

	var output strings.Builder
	writeJobsText(&output, result.Jobs)
	return output.String(), nil
}

func (f *JobsTextFormatter) SupportedType() string {
	return "JobsOutput"
}

func writeJobsText(output *strings.Builder, jobs []types.JobPosting) {
	fmt.Fprintf(output, "=== JOBS (%d) ===\n", len(jobs))
	for i, job := range jobs {
		fmt.Fprintf(output, "\n%d. %s\n", i+1, job.Title)
		fmt.Fprintf(output, "   Company: %s\n", job.CompanyName)
		if job.Location != nil {
			fmt.Fprintf(output, "   Location: %s\n", *job.Location)
		}
		if job.Source != nil {
			fmt.Fprintf(output, "   Source: %s\n", *job.Source)
		}
		if job.URL != nil {
			fmt.Fprintf(output, "   URL: %s\n", *job.URL)
		}
	}
}

// JobsMarkdownFormatter renders postings as a Markdown table.
type JobsMarkdownFormatter struct{}

func (f *JobsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobsOutput)
	if !ok {
		return "", fmt.Errorf("expected JobsOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Jobs\n\n")
	writeJobsMarkdown(&output, result.Jobs)
	return output.String(), nil
}

func (f *JobsMarkdownFormatter) SupportedType() string {
	return "JobsOutput"
}

func writeJobsMarkdown(output *strings.Builder, jobs []types.JobPosting) {
	if len(jobs) == 0 {
		output.WriteString("_No matching jobs found._\n")
		return
	}
	output.WriteString("| Title | Company | Location | Source |\n")
	output.WriteString("|---|---|---|---|\n")
	for _, job := range jobs {
		title := escapeCell(job.Title)
		if job.URL != nil {
			title = fmt.Sprintf("[%s](%s)", title, *job.URL)
		}
		fmt.Fprintf(output, "| %s | %s | %s | %s |\n",
			title, escapeCell(job.CompanyName), escapeCell(deref(job.Location)), escapeCell(deref(job.Source)))
	}
}

// KeywordsTextFormatter prints the joined keywords on one line.
type KeywordsTextFormatter struct{}

func (f *KeywordsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.KeywordsOutput)
	if !ok {
		return "", fmt.Errorf("expected KeywordsOutput, got %T", data)
	}
	return result.Keywords + "\n", nil
}

func (f *KeywordsTextFormatter) SupportedType() string {
	return "KeywordsOutput"
}

// RecommendationTextFormatter renders the analysis followed by the jobs found.
type RecommendationTextFormatter struct{}

func (f *RecommendationTextFormatter) Format(data any) (string, error) {
	rec, ok := data.(types.JobRecommendation)
	if !ok {
		return "", fmt.Errorf("expected JobRecommendation, got %T", data)
	}

	var output strings.Builder
	writeReportText(&output, rec.Report)
	output.WriteString("\n=== KEYWORDS ===\n")
	output.WriteString(orNone(rec.Keywords))
	output.WriteString("\n\n")
	writeJobsText(&output, rec.Jobs)
	return output.String(), nil
}

func (f *RecommendationTextFormatter) SupportedType() string {
	return "JobRecommendation"
}

// RecommendationMarkdownFormatter renders the analysis and jobs as one Markdown document.
type RecommendationMarkdownFormatter struct{}

func (f *RecommendationMarkdownFormatter) Format(data any) (string, error) {
	rec, ok := data.(types.JobRecommendation)
	if !ok {
		return "", fmt.Errorf("expected JobRecommendation, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Job Recommendations\n\n")
	writeReportMarkdown(&output, rec.Report, "##")
	fmt.Fprintf(&output, "\n## Keywords\n\n%s\n\n## Jobs\n\n", orNone(rec.Keywords))
	writeJobsMarkdown(&output, rec.Jobs)
	return output.String(), nil
}

func (f *RecommendationMarkdownFormatter) SupportedType() string {
	return "JobRecommendation"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
