package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits PHP names into lowercase search terms. Namespace
// separators, underscores and camelCase boundaries all start a new term.
type Tokenizer struct {
	stopwords map[string]struct{}
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{stopwords: defaultStopwords()}
}

func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// splitWords breaks text on non-alphanumerics and on case changes, keeping
// acronyms together: "parseHTTPRequest" -> parse, HTTP, Request.
func splitWords(text string) []string {
	var words []string
	runes := []rune(text)
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		case unicode.IsDigit(r) != unicode.IsDigit(prev):
			flush(i)
			start = i
		}
	}
	flush(len(runes))

	return words
}

// defaultStopwords are PHP keywords and modifiers that carry no meaning in
// a name search.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"php", "class", "function", "use", "namespace",
		"public", "protected", "private", "static", "abstract", "final",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
