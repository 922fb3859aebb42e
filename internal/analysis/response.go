package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobscout/internal/errors"
	"jobscout/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

// reportSchema accepts a JSON object whose report keys are text, a list of text, or null.
const reportSchema = `{
  "type": "object",
  "definitions": {
    "text": {
      "anyOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}},
        {"type": "null"}
      ]
    }
  },
  "properties": {
    "summary": {"$ref": "#/definitions/text"},
    "gaps": {"$ref": "#/definitions/text"},
    "roadmap": {"$ref": "#/definitions/text"}
  }
}`

var compiledReportSchema = mustCompileSchema(reportSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid report schema: %v", err))
	}
	return schema
}

// ParseReport decodes a provider reply into a report. A surrounding Markdown code
// fence is ignored. Missing keys yield empty fields. Replies that are not a JSON
// object of text values fail with a parse error.
func ParseReport(content string) (types.AnalysisReport, error) {
	cleaned := stripCodeFence(content)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return types.AnalysisReport{}, errors.NewParseError(errors.ErrCodeMalformedResponse, "provider reply is not valid JSON", err)
	}

	result, err := compiledReportSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return types.AnalysisReport{}, errors.NewParseError(errors.ErrCodeMalformedResponse, "provider reply could not be validated", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return types.AnalysisReport{}, errors.NewParseError(errors.ErrCodeMalformedResponse,
			"provider reply has unexpected shape", nil).WithContext("problems", problems)
	}

	obj := doc.(map[string]any)
	return types.AnalysisReport{
		Summary: textValue(obj["summary"], " "),
		Gaps:    textValue(obj["gaps"], "; "),
		Roadmap: textValue(obj["roadmap"], "\n"),
	}, nil
}

// SplitReport is the line-based fallback for replies that are not JSON:
// line 0 is the summary, lines 1-2 the gaps, the rest the roadmap.
func SplitReport(content string) types.AnalysisReport {
	parts := strings.Split(content, "\n")
	report := types.AnalysisReport{Summary: parts[0]}
	if len(parts) > 1 {
		report.Gaps = strings.Join(parts[1:min(3, len(parts))], "; ")
	}
	if len(parts) > 3 {
		report.Roadmap = strings.Join(parts[3:], "\n")
	}
	return report
}

func textValue(v any, sep string) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return strings.Join(items, sep)
	default:
		return ""
	}
}

func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
