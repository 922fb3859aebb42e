package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"jobscout/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func strPtr(s string) *string { return &s }

var sampleJobs = types.JobsOutput{Jobs: []types.JobPosting{
	{
		Title:       "Senior Go Engineer",
		CompanyName: "Acme",
		Location:    strPtr("Remote"),
		URL:         strPtr("https://example.com/jobs/1"),
		Source:      strPtr("WeWorkRemotely"),
	},
	{Title: "Data | Platform", CompanyName: "Globex"},
}}

func TestFormatJSON(t *testing.T) {
	out, err := NewFormatterRegistry().Format(sampleJobs, "json")
	require.NoError(t, err)

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded["jobs"], 2)
	assert.Equal(t, "Remote", decoded["jobs"][0]["location"])
	assert.Nil(t, decoded["jobs"][1]["url"])
}

func TestFormatYAML(t *testing.T) {
	report := types.AnalysisReport{Summary: "Go developer.", Gaps: "Needs evidence in: Cloud", Roadmap: "- Ship it"}
	out, err := NewFormatterRegistry().Format(report, "yaml")
	require.NoError(t, err)

	var decoded types.AnalysisReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, report, decoded)
}

func TestFormatReportText(t *testing.T) {
	out, err := NewFormatterRegistry().Format(types.AnalysisReport{Summary: "No readable text found in resume."}, "text")
	require.NoError(t, err)

	assert.Contains(t, out, "=== SUMMARY ===\nNo readable text found in resume.")
	assert.Contains(t, out, "=== SKILL GAPS ===\n(none)")
}

func TestFormatJobsMarkdown(t *testing.T) {
	out, err := NewFormatterRegistry().Format(sampleJobs, "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "| [Senior Go Engineer](https://example.com/jobs/1) | Acme | Remote | WeWorkRemotely |")
	assert.Contains(t, out, `| Data \| Platform | Globex |  |  |`)

	empty, err := NewFormatterRegistry().Format(types.JobsOutput{}, "markdown")
	require.NoError(t, err)
	assert.Contains(t, empty, "No matching jobs found")
}

func TestFormatRecommendationText(t *testing.T) {
	rec := types.JobRecommendation{
		Report:   types.AnalysisReport{Summary: "Go developer."},
		Keywords: "go, kubernetes",
		Jobs:     sampleJobs.Jobs,
	}
	out, err := NewFormatterRegistry().Format(rec, "text")
	require.NoError(t, err)

	assert.Contains(t, out, "=== KEYWORDS ===\ngo, kubernetes")
	assert.Contains(t, out, "=== JOBS (2) ===")
	assert.True(t, strings.Index(out, "SUMMARY") < strings.Index(out, "JOBS"))
}

func TestFormatUnknown(t *testing.T) {
	_, err := NewFormatterRegistry().Format(sampleJobs, "xml")
	assert.Error(t, err)
	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, NewFormatterRegistry().GetSupportedFormats())
}
