package analyzer

import (
	"strings"

	"phptdd/internal/domain"
)

// stream builds token streams line by line the way token_get_all lays them
// out: whitespace carrying a newline belongs to the line it starts on.
type stream struct {
	tokens []domain.Token
	line   int
}

func newStream() *stream {
	return &stream{line: 1}
}

func (s *stream) word(text string) *stream {
	s.tokens = append(s.tokens, domain.Content(319, text, s.line))
	return s
}

func (s *stream) words(texts ...string) *stream {
	for i, text := range texts {
		if i > 0 {
			s.sp()
		}
		s.word(text)
	}
	return s
}

func (s *stream) sp() *stream {
	s.tokens = append(s.tokens, domain.Content(382, " ", s.line))
	return s
}

func (s *stream) nl() *stream {
	s.tokens = append(s.tokens, domain.Content(382, "\n", s.line))
	s.line++
	return s
}

func (s *stream) blank(n int) *stream {
	s.tokens = append(s.tokens, domain.Content(382, strings.Repeat("\n", n), s.line))
	s.line += n
	return s
}

func (s *stream) comment(text string) *stream {
	s.tokens = append(s.tokens, domain.Content(377, text, s.line))
	s.line += strings.Count(text, "\n")
	return s
}

func (s *stream) sym(symbols ...string) *stream {
	for _, sym := range symbols {
		s.tokens = append(s.tokens, domain.Symbol(sym))
	}
	return s
}

func (s *stream) build() []domain.Token {
	return s.tokens
}
