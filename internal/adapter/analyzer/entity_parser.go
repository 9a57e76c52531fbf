package analyzer

import (
	"errors"
	"strings"

	"phptdd/internal/domain"
)

// ErrEmptyStream is returned when there are no tokens to parse.
var ErrEmptyStream = errors.New("no PHP tokens found to parse")

const (
	keywordNamespace      = "namespace"
	keywordNamespaceAlias = "phpnamespace"
	keywordUse            = "use"
	keywordClass          = "class"
	keywordFunction       = "function"
)

// EntityParser finds classes, methods, functions and use statements in a
// PHP token stream.
type EntityParser struct{}

// NewEntityParser creates a new entity parser.
func NewEntityParser() *EntityParser {
	return &EntityParser{}
}

// Entities returns every entity in the stream in declaration order. Methods
// are listed under their class, not at the top level.
func (p *EntityParser) Entities(tokens []domain.Token) ([]*domain.Entity, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyStream
	}
	s := newParseState(tokens, 0, false)
	s.run()
	return s.entities, nil
}

// TestableEntities returns the top-level entities that tests can target.
func (p *EntityParser) TestableEntities(tokens []domain.Token) ([]*domain.Entity, error) {
	entities, err := p.Entities(tokens)
	if err != nil {
		return nil, err
	}
	testable := make([]*domain.Entity, 0, len(entities))
	for _, e := range entities {
		if e.Testable() {
			testable = append(testable, e)
		}
	}
	return testable, nil
}

// EntityAt returns the tightest testable entity enclosing line, preferring a
// method over its class. It returns nil when no entity encloses the line.
func (p *EntityParser) EntityAt(tokens []domain.Token, line int) (*domain.Entity, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyStream
	}
	s := newParseState(tokens, line, true)
	return s.run(), nil
}

type parseState struct {
	tokens   []domain.Token
	target   int
	targeted bool

	entities  []*domain.Entity
	namespace string
	depth     int
	line      int
	class     *domain.Entity
	function  *domain.Entity
	matched   *domain.Entity
	comments  commentTracker
}

func newParseState(tokens []domain.Token, target int, targeted bool) *parseState {
	return &parseState{
		tokens:   tokens,
		target:   target,
		targeted: targeted,
	}
}

// run consumes the whole stream, returning early in targeted mode once the
// class enclosing the target closes.
func (s *parseState) run() *domain.Entity {
	for i, tok := range s.tokens {
		if tok.IsContent() {
			s.content(i, tok)
			continue
		}
		if found, done := s.structural(tok); done {
			return found
		}
	}
	return s.matched
}

func (s *parseState) content(index int, tok domain.Token) {
	s.line = tok.Line
	text := strings.TrimSpace(tok.Text)

	switch {
	case text == keywordNamespace || strings.EqualFold(text, keywordNamespaceAlias):
		s.namespace = NextDescriptorOnLine(index, s.line, s.tokens)
	case text == keywordUse:
		namespace := NextDescriptorOnLine(index, s.line, s.tokens)
		if !s.targeted {
			s.entities = append(s.entities, domain.NewUse(namespace, s.line))
		}
	case text == keywordClass:
		s.openClass(NextDescriptorOnLine(index, s.line, s.tokens))
	case text == keywordFunction:
		s.openFunction(NextDescriptorOnLine(index, s.line, s.tokens))
	default:
		s.comments.observe(index, tok, s.line, s.tokens)
		s.line += strings.Count(tok.Text, "\n")
	}
}

func (s *parseState) openClass(name string) {
	class := domain.NewClass(name, s.namespace, s.line)
	class.Comment = s.comments.take()
	s.appendTopLevel(class)
	s.class = class
}

// openFunction starts a function unless one is already open; functions
// declared inside another function are not tracked.
func (s *parseState) openFunction(name string) {
	if name == "" || s.function != nil {
		return
	}
	fn := domain.NewFunction(name, s.namespace, s.line)
	fn.Comment = s.comments.take()
	if s.class != nil && s.class.Depth != 0 && s.depth == s.class.Depth {
		fn.Class = s.class
		s.class.Functions = append(s.class.Functions, fn)
	} else {
		s.appendTopLevel(fn)
	}
	s.function = fn
}

func (s *parseState) appendTopLevel(e *domain.Entity) {
	if s.targeted {
		return
	}
	s.entities = append(s.entities, e)
}

func (s *parseState) structural(tok domain.Token) (*domain.Entity, bool) {
	switch tok.Symbol {
	case "{":
		s.depth++
		if s.class != nil && s.class.Depth == 0 {
			s.class.Depth = s.depth
		}
		if s.function != nil && s.function.Depth == 0 {
			s.function.Depth = s.depth
		}
	case "}":
		found, done := s.closeBlock()
		s.depth--
		return found, done
	}
	return nil, false
}

// closeBlock handles a closing brace at the current depth, before the depth
// is decremented.
func (s *parseState) closeBlock() (*domain.Entity, bool) {
	if s.function != nil && s.function.Depth != 0 && s.function.Depth == s.depth {
		s.function.EndLine = s.line
		if s.targeted && s.function.Encloses(s.target) {
			s.matched = s.function
		}
		s.function = nil
		return nil, false
	}

	if s.class != nil && s.class.Depth != 0 && s.class.Depth == s.depth {
		s.class.EndLine = s.line
		if s.targeted && s.class.Encloses(s.target) {
			if s.matched != nil {
				s.matched.Class = s.class
				return s.matched, true
			}
			return s.class, true
		}
		s.class = nil
	}
	return nil, false
}
