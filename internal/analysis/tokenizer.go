package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// KeywordLimit is the number of keywords returned to search callers.
const KeywordLimit = 12

// HeuristicTokenLimit is the number of tokens the heuristic path classifies.
const HeuristicTokenLimit = 30

var tokenPattern = regexp.MustCompile(`[a-z][a-z0-9_+#/.-]{2,}`)

var defaultStopwords = []string{
	"and", "or", "the", "a", "an", "to", "of", "in", "on", "for", "with", "by",
	"from", "at", "as", "is", "are", "was", "were", "be", "this", "that", "it",
	"its", "your", "you", "we", "they", "their", "our", "have", "has", "had",
	"will", "can", "may", "pdf", "page", "pages",
}

// Tokenizer scores word-like tokens by frequency. It is safe for concurrent use.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer builds a tokenizer with the default stopword set plus any extras.
func NewTokenizer(extraStopwords ...string) *Tokenizer {
	stop := make(map[string]struct{}, len(defaultStopwords)+len(extraStopwords))
	for _, w := range defaultStopwords {
		stop[w] = struct{}{}
	}
	for _, w := range extraStopwords {
		stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{stopwords: stop}
}

// Tokens returns every non-stopword token of text in encounter order.
func (t *Tokenizer) Tokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := t.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// ExtractKeywords returns the limit most frequent tokens of text, joined by ", ",
// along with the list. Ties keep first-encounter order.
func (t *Tokenizer) ExtractKeywords(text string, limit int) (string, []string) {
	if limit <= 0 || strings.TrimSpace(text) == "" {
		return "", []string{}
	}

	counts := make(map[string]int)
	var order []string
	for _, tok := range t.Tokens(text) {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	if order == nil {
		order = []string{}
	}
	return strings.Join(order, ", "), order
}
