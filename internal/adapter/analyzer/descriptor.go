package analyzer

import (
	"strings"

	"phptdd/internal/domain"
)

// NextDescriptorOnLine returns the name that follows the token at start on
// the same line: leading whitespace tokens are skipped, then contiguous
// non-blank token text is concatenated until whitespace, a structural token
// or the end of the line.
func NextDescriptorOnLine(start, line int, tokens []domain.Token) string {
	var b strings.Builder
	started := false
	for i := start + 1; i >= 0 && i < len(tokens); i++ {
		tok := tokens[i]
		if !tok.IsContent() || tok.Line != line {
			break
		}
		text := strings.TrimSpace(tok.Text)
		if text != "" {
			started = true
			b.WriteString(text)
			continue
		}
		if started {
			break
		}
	}
	return b.String()
}

// IsDeclarationStart reports whether the first non-blank token at or after
// index on line is the class or function keyword.
func IsDeclarationStart(index, line int, tokens []domain.Token) bool {
	for i := index; i >= 0 && i < len(tokens); i++ {
		tok := tokens[i]
		if !tok.IsContent() || tok.Line != line {
			return false
		}
		text := strings.TrimSpace(tok.Text)
		if text == "" {
			continue
		}
		return text == keywordClass || text == keywordFunction
	}
	return false
}
