package analysis

import (
	"strings"
	"unicode"
)

const (
	noReadableTextMessage = "No readable text found in resume."
	summarySentences      = 3
)

// SplitSentences breaks text after '.', '!' or '?' when whitespace follows.
// Pieces are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if !unicode.IsSpace(runes[i+1]) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Summarize joins the first three sentences of text.
func Summarize(text string) string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return noReadableTextMessage
	}
	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	return strings.Join(sentences, " ")
}
