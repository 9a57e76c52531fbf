// Package builder produces the text edits that create and bind unit tests.
// Line numbers follow the entity model and are one-based.
package builder

import (
	"errors"
	"strings"

	"phptdd/internal/domain"
)

var ErrNoTestClass = errors.New("no test class was found")

const placeholderBody = "// code test functionality here"

// TestMethodLine finds the test method name in a parsed test file. When it
// exists its start line is returned with exists set; otherwise the line
// that closes the first class, where a new method belongs.
func TestMethodLine(entities []*domain.Entity, name string) (line int, exists bool, err error) {
	var first *domain.Entity
	for _, e := range entities {
		switch e.Kind {
		case domain.KindFunction:
			if e.Name == name {
				return e.StartLine, true, nil
			}
		case domain.KindClass:
			for _, f := range e.Functions {
				if f.Name == name {
					return f.StartLine, true, nil
				}
			}
			if first == nil {
				first = e
			}
		}
	}
	if first == nil {
		return 0, false, ErrNoTestClass
	}
	return first.EndLine, false, nil
}

// Stub is a generated test method.
type Stub struct {
	Text string
	// BodyOffset is the number of lines from the insertion point to the
	// placeholder body line.
	BodyOffset int
}

// TestStub renders a test method for entity, preceded by a @covers block
// for classes and functions.
func TestStub(entity *domain.Entity, testName, padding, eol string) Stub {
	var b strings.Builder
	offset := 2
	if entity != nil && entity.Testable() {
		b.WriteString(eol + padding + "/**")
		b.WriteString(eol + padding + " * @covers " + entity.FullName())
		b.WriteString(eol + padding + " **/")
		offset = 5
	}
	b.WriteString(eol + padding + "public function " + testName + "() {")
	b.WriteString(eol + padding + padding + placeholderBody)
	b.WriteString(eol + padding + "}" + eol)
	return Stub{Text: b.String(), BodyOffset: offset}
}

// Edit inserts Text before Line.
type Edit struct {
	Line int
	Text string
}

// TestFunctionComment binds name to entity through a @testFunction
// annotation, extending the entity's comment when it has one.
func TestFunctionComment(entity *domain.Entity, name, padding, eol string) Edit {
	text := "@testFunction " + name
	c := entity.Comment
	switch {
	case c == nil:
		return Edit{
			Line: entity.StartLine,
			Text: padding + "/**" + eol + padding + " * " + text + eol + padding + " */" + eol,
		}
	case c.Kind == domain.CommentInline:
		return Edit{Line: c.EndLine + 1, Text: padding + "// " + text + eol}
	default:
		return Edit{Line: c.EndLine, Text: padding + "* " + text + eol}
	}
}
