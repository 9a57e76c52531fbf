package domain

// Token is one element of a lexed PHP token stream. Content tokens carry the
// tokenizer's kind, text and line; structural tokens are bare punctuation.
//
// The tokenizer emits whole string literals as single content tokens, so
// keywords that appear inside strings never reach the parser as separate
// tokens.
type Token struct {
	Kind   int
	Text   string
	Line   int
	Symbol string

	content bool
}

func Content(kind int, text string, line int) Token {
	return Token{Kind: kind, Text: text, Line: line, content: true}
}

func Symbol(s string) Token {
	return Token{Symbol: s}
}

func (t Token) IsContent() bool {
	return t.content
}

func (t Token) String() string {
	if t.content {
		return t.Text
	}
	return t.Symbol
}
