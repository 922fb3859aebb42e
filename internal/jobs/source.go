package jobs

import (
	"context"
	"strings"
)

// Record is one listing in the shape its source produced. Keys are
// source-specific; Normalize maps them onto a JobPosting.
type Record map[string]string

// Source is a job listing backend. Query returns at most rowLimit records
// relevant to terms, or a fetch error when the backend could not be read.
type Source interface {
	Name() string
	Query(ctx context.Context, terms []string, rowLimit int) ([]Record, error)
}

// Prober is implemented by sources that can check reachability without a search.
type Prober interface {
	Probe(ctx context.Context) error
}

// ParseTerms splits comma-separated keywords into lowercase search terms.
// When nothing survives the split, the whole trimmed input is the only term.
func ParseTerms(raw string) []string {
	var terms []string
	for part := range strings.SplitSeq(raw, ",") {
		if t := strings.ToLower(strings.TrimSpace(part)); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return []string{strings.ToLower(strings.TrimSpace(raw))}
	}
	return terms
}

// MatchesAny reports whether blob contains any non-empty term. blob is
// lowercased before comparison.
func MatchesAny(blob string, terms []string) bool {
	blob = strings.ToLower(blob)
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" && strings.Contains(blob, t) {
			return true
		}
	}
	return false
}

// InferCompany picks the company for a feed entry: the author, else the text
// after the last "-" of the title, else the source name.
func InferCompany(author, title, sourceName string) string {
	if a := strings.TrimSpace(author); a != "" {
		return a
	}
	if i := strings.LastIndex(title, "-"); i >= 0 {
		if c := strings.TrimSpace(title[i+1:]); c != "" {
			return c
		}
	}
	return sourceName
}
