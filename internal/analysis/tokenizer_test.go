package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		limit      int
		wantJoined string
		wantTokens []string
	}{
		{
			name:       "frequency order",
			text:       "Python python PYTHON aws",
			limit:      2,
			wantJoined: "python, aws",
			wantTokens: []string{"python", "aws"},
		},
		{
			name:       "ties keep first encounter order",
			text:       "Kubernetes docker terraform",
			limit:      2,
			wantJoined: "kubernetes, docker",
			wantTokens: []string{"kubernetes", "docker"},
		},
		{
			name:       "stopwords and short words dropped",
			text:       "the and pdf pages Go is it",
			limit:      5,
			wantJoined: "",
			wantTokens: []string{},
		},
		{
			name:       "symbols inside tokens are kept",
			text:       "C++ node.js ci/cd c#",
			limit:      10,
			wantJoined: "c++, node.js, ci/cd",
			wantTokens: []string{"c++", "node.js", "ci/cd"},
		},
		{
			name:       "limit truncates after counting",
			text:       "the AWS and GCP team uses AWS daily",
			limit:      2,
			wantJoined: "aws, gcp",
			wantTokens: []string{"aws", "gcp"},
		},
		{
			name:       "empty text",
			text:       "   \n\t",
			limit:      12,
			wantJoined: "",
			wantTokens: []string{},
		},
		{
			name:       "non-positive limit",
			text:       "golang golang",
			limit:      0,
			wantJoined: "",
			wantTokens: []string{},
		},
	}

	tokenizer := NewTokenizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined, tokens := tokenizer.ExtractKeywords(tt.text, tt.limit)
			assert.Equal(t, tt.wantJoined, joined)
			assert.Equal(t, tt.wantTokens, tokens)
		})
	}
}

func TestExtractKeywordsIsDeterministic(t *testing.T) {
	tokenizer := NewTokenizer()
	text := "go rust rust zig zig odin odin odin kotlin"

	first, _ := tokenizer.ExtractKeywords(text, 4)
	for range 20 {
		again, _ := tokenizer.ExtractKeywords(text, 4)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "odin, rust, zig, kotlin", first)
}

func TestExtraStopwords(t *testing.T) {
	tokenizer := NewTokenizer(" Resume ", "curriculum")
	joined, _ := tokenizer.ExtractKeywords("Resume curriculum vitae engineer", 5)
	assert.Equal(t, "vitae, engineer", joined)
}
