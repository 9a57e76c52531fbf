package analyzer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phptdd/internal/adapter/tokendump"
	"phptdd/internal/domain"
)

func loadSample(t *testing.T) []domain.Token {
	t.Helper()
	tokens, err := tokendump.DecodeFile("testdata/sample.tokens.json")
	require.NoError(t, err)
	return tokens
}

// class C { function m1() { return; } } / class D {} / function f() { return; }
func classesStream() []domain.Token {
	return newStream().
		words("class", "C").sp().sym("{").nl().
		sp().words("function", "m1").sym("(", ")").sp().sym("{").nl().
		sp().word("return").sym(";").nl().
		sp().sym("}").nl().
		sym("}").blank(2).
		words("class", "D").sp().sym("{").nl().
		sym("}").blank(2).
		words("function", "f").sym("(", ")").sp().sym("{").nl().
		sp().word("return").sym(";").nl().
		sym("}").
		build()
}

func TestEntities_NamespaceUseAndMethods(t *testing.T) {
	tokens := newStream().
		words("namespace", "NS").sym(";").nl().
		words("use", `Foo\Bar`).sym(";").nl().
		words("class", "C").sp().sym("{").nl().
		sp().words("function", "m1").sym("(", ")").sp().sym("{", "}").nl().
		sp().words("function", "m2").sym("(", ")").sp().sym("{", "}").nl().
		sym("}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	use := entities[0]
	assert.Equal(t, domain.KindUse, use.Kind)
	assert.Equal(t, `Foo\Bar`, use.Namespace)
	assert.Equal(t, 2, use.StartLine)
	assert.Equal(t, 2, use.EndLine)
	assert.False(t, use.Testable())

	class := entities[1]
	assert.Equal(t, domain.KindClass, class.Kind)
	assert.Equal(t, `NS\C`, class.FullName())
	assert.Equal(t, 3, class.StartLine)
	assert.Equal(t, 6, class.EndLine)
	assert.Equal(t, 1, class.Depth)
	require.Len(t, class.Functions, 2)

	m1 := class.Functions[0]
	assert.Equal(t, "m1", m1.Name)
	assert.Equal(t, "C::m1", m1.Identifier())
	assert.Equal(t, `NS\C::m1`, m1.FullName())
	assert.Equal(t, 2, m1.Depth)
	assert.Equal(t, 4, m1.EndLine)
	assert.Same(t, class, m1.Class)
	assert.Equal(t, "m2", class.Functions[1].Name)
}

func TestEntities_BlockCommentOnClass(t *testing.T) {
	tokens := newStream().
		comment("/**\n * Doc\n */").nl().
		words("class", "C").sp().sym("{").nl().
		sym("}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 1)

	class := entities[0]
	require.NotNil(t, class.Comment)
	assert.Equal(t, domain.CommentBlock, class.Comment.Kind)
	assert.Equal(t, 1, class.Comment.StartLine)
	assert.Equal(t, 3, class.Comment.EndLine)
	assert.Equal(t, 4, class.StartLine)
	assert.Equal(t, 1, class.FirstLine())
}

func TestEntityAt_Classes(t *testing.T) {
	tokens := classesStream()
	p := NewEntityParser()

	tests := []struct {
		line      int
		name      string
		kind      domain.EntityKind
		className string
	}{
		{line: 1, name: "C", kind: domain.KindClass},
		{line: 2, name: "m1", kind: domain.KindFunction, className: "C"},
		{line: 3, name: "m1", kind: domain.KindFunction, className: "C"},
		{line: 4, name: "m1", kind: domain.KindFunction, className: "C"},
		{line: 5, name: "C", kind: domain.KindClass},
		{line: 7, name: "D", kind: domain.KindClass},
		{line: 8, name: "D", kind: domain.KindClass},
		{line: 10, name: "f", kind: domain.KindFunction},
		{line: 11, name: "f", kind: domain.KindFunction},
		{line: 12, name: "f", kind: domain.KindFunction},
	}

	for _, tt := range tests {
		e, err := p.EntityAt(tokens, tt.line)
		require.NoError(t, err)
		require.NotNil(t, e, "line %d", tt.line)
		assert.Equal(t, tt.name, e.Name, "line %d", tt.line)
		assert.Equal(t, tt.kind, e.Kind, "line %d", tt.line)
		if tt.className == "" {
			assert.Nil(t, e.Class, "line %d", tt.line)
		} else {
			require.NotNil(t, e.Class, "line %d", tt.line)
			assert.Equal(t, tt.className, e.Class.Name, "line %d", tt.line)
		}
	}
}

func TestEntityAt_Outside(t *testing.T) {
	tokens := classesStream()
	p := NewEntityParser()

	for _, line := range []int{0, 6, 9, 13, 100} {
		e, err := p.EntityAt(tokens, line)
		require.NoError(t, err)
		assert.Nil(t, e, "line %d", line)
	}
}

func TestEntityAt_MethodRange(t *testing.T) {
	e, err := NewEntityParser().EntityAt(classesStream(), 3)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 2, e.StartLine)
	assert.Equal(t, 4, e.EndLine)
	assert.Equal(t, 5, e.Class.EndLine)
}

func TestEntities_EmptyStream(t *testing.T) {
	p := NewEntityParser()

	_, err := p.Entities(nil)
	assert.True(t, errors.Is(err, ErrEmptyStream))

	_, err = p.EntityAt([]domain.Token{}, 1)
	assert.True(t, errors.Is(err, ErrEmptyStream))

	_, err = p.TestableEntities(nil)
	assert.True(t, errors.Is(err, ErrEmptyStream))
}

func TestEntities_CommentInvalidatedByCode(t *testing.T) {
	tokens := newStream().
		comment("// orphan\n").
		word("$x").sp().sym("=").sp().word("1").sym(";").nl().
		words("function", "f").sym("(", ")").sp().sym("{", "}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Nil(t, entities[0].Comment)
}

func TestEntities_CodeOnCommentLineKeepsComment(t *testing.T) {
	tokens := newStream().
		comment("/** doc */").sp().word("$x").sym(";").nl().
		words("function", "f").sym("(", ")").sp().sym("{", "}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 1)

	f := entities[0]
	require.NotNil(t, f.Comment)
	assert.Equal(t, domain.CommentBlock, f.Comment.Kind)
	assert.Equal(t, 1, f.Comment.StartLine)
	assert.Equal(t, 1, f.Comment.EndLine)
	assert.Equal(t, 1, f.FirstLine())
	assert.Equal(t, 2, f.StartLine)
}

func TestEntities_CodeAfterCommentLineDropsComment(t *testing.T) {
	tokens := newStream().
		comment("/** doc */").sp().word("$x").sym(";").nl().
		word("$y").sym(";").nl().
		words("function", "f").sym("(", ")").sp().sym("{", "}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Nil(t, entities[0].Comment)
	assert.Equal(t, 3, entities[0].StartLine)
}

func TestEntities_ModifierBeforeDeclarationKeepsComment(t *testing.T) {
	tokens := newStream().
		words("class", "C").sp().sym("{").nl().
		sp().comment("/** doc */").nl().
		sp().words("public", "function", "m").sym("(", ")").sp().sym("{", "}").nl().
		sym("}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Len(t, entities[0].Functions, 1)

	m := entities[0].Functions[0]
	require.NotNil(t, m.Comment)
	assert.Equal(t, 2, m.Comment.StartLine)
	assert.Equal(t, 2, m.FirstLine())
}

// Only the token right after the code is inspected, so a second modifier
// before the keyword orphans the comment.
func TestEntities_TwoModifiersDropComment(t *testing.T) {
	tokens := newStream().
		words("class", "C").sp().sym("{").nl().
		sp().comment("/** doc */").nl().
		sp().words("public", "static", "function", "m").sym("(", ")").sp().sym("{", "}").nl().
		sym("}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities[0].Functions, 1)
	assert.Nil(t, entities[0].Functions[0].Comment)
}

func TestEntities_InlineCommentContinues(t *testing.T) {
	tokens := newStream().
		comment("// first\n").
		blank(1).
		comment("// second\n").
		words("function", "f").sym("(", ")").sp().sym("{", "}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 1)

	c := entities[0].Comment
	require.NotNil(t, c)
	assert.Equal(t, domain.CommentInline, c.Kind)
	assert.Equal(t, 1, c.StartLine)
	assert.Equal(t, 3, c.EndLine)
	assert.Equal(t, "// first\n// second", c.Text)
}

func TestEntities_BlockCommentReplacesInline(t *testing.T) {
	tokens := newStream().
		comment("// first\n").
		comment("/* second */").nl().
		words("function", "f").sym("(", ")").sp().sym("{", "}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)

	c := entities[0].Comment
	require.NotNil(t, c)
	assert.Equal(t, domain.CommentBlock, c.Kind)
	assert.Equal(t, 2, c.StartLine)
}

func TestEntities_UseNeverTakesComment(t *testing.T) {
	tokens := newStream().
		comment("/** doc */").nl().
		words("use", "Foo").sym(";").nl().
		words("function", "f").sym("(", ")").sp().sym("{", "}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Nil(t, entities[0].Comment)
	// The use statement itself is routed to the keyword handler, so the
	// comment survives until the next ordinary token on a later line.
	assert.Nil(t, entities[1].Comment)
}

func TestEntities_AnonymousFunctionIgnored(t *testing.T) {
	tokens := newStream().
		word("$f").sp().sym("=").sp().word("function").sp().sym("(", ")").sp().sym("{", "}", ";").nl().
		words("function", "g").sym("(", ")").sp().sym("{", "}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "g", entities[0].Name)
	assert.Equal(t, 1, entities[0].Depth)
}

func TestEntities_NamespaceAlias(t *testing.T) {
	tokens := newStream().
		words("PHPNamespace", "Alias").sym(";").nl().
		words("function", "f").sym("(", ")").sp().sym("{", "}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Alias", entities[0].Namespace)
	assert.Equal(t, `Alias\f`, entities[0].FullName())
}

func TestEntities_Sample(t *testing.T) {
	entities, err := NewEntityParser().Entities(loadSample(t))
	require.NoError(t, err)
	require.Len(t, entities, 4)

	assert.Equal(t, domain.KindUse, entities[0].Kind)
	assert.Equal(t, `My_Test_Module\`, entities[0].FullName())
	assert.Equal(t, "My_Test_Module", entities[0].Namespace)

	commented := entities[1]
	assert.Equal(t, domain.KindClass, commented.Kind)
	assert.Equal(t, `MyTestNamespace\MyCommentedClass`, commented.FullName())
	assert.Equal(t, "MyTestNamespace", commented.Namespace)
	require.NotNil(t, commented.Comment)
	assert.Equal(t, domain.CommentBlock, commented.Comment.Kind)
	assert.Equal(t, 6, commented.Comment.StartLine)
	assert.Equal(t, 8, commented.Comment.EndLine)
	assert.Equal(t, 9, commented.StartLine)
	assert.Equal(t, 33, commented.EndLine)

	// The function declared inside TestMethod1 and the ones inside string
	// literals are not entities.
	require.Len(t, commented.Functions, 2)
	m1, m3 := commented.Functions[0], commented.Functions[1]
	assert.Equal(t, "TestMethod1", m1.Name)
	assert.Equal(t, "MyCommentedClass::TestMethod1", m1.Identifier())
	assert.Equal(t, 15, m1.StartLine)
	assert.Equal(t, 22, m1.EndLine)
	require.NotNil(t, m1.Comment)
	assert.Equal(t, domain.CommentInline, m1.Comment.Kind)
	assert.Equal(t, 13, m1.Comment.StartLine)
	assert.Equal(t, 14, m1.Comment.EndLine)

	assert.Equal(t, "TestMethod3", m3.Name)
	assert.Equal(t, 25, m3.StartLine)
	assert.Equal(t, 32, m3.EndLine)
	require.NotNil(t, m3.Comment)
	assert.Equal(t, 24, m3.Comment.StartLine)

	uncommented := entities[2]
	assert.Equal(t, `MyTestNamespace\MyUncommentedClass`, uncommented.FullName())
	assert.Nil(t, uncommented.Comment)
	assert.Equal(t, 35, uncommented.StartLine)
	assert.Equal(t, 39, uncommented.EndLine)
	require.Len(t, uncommented.Functions, 1)

	standalone := entities[3]
	assert.Equal(t, domain.KindFunction, standalone.Kind)
	assert.Equal(t, `MyTestNamespace\standaloneTest`, standalone.FullName())
	assert.Nil(t, standalone.Class)
	assert.Equal(t, 41, standalone.StartLine)
	assert.Equal(t, 43, standalone.EndLine)
}

func TestTestableEntities_Sample(t *testing.T) {
	entities, err := NewEntityParser().TestableEntities(loadSample(t))
	require.NoError(t, err)
	require.Len(t, entities, 3)

	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.FullName())
	}
	assert.Equal(t, []string{
		`MyTestNamespace\MyCommentedClass`,
		`MyTestNamespace\MyUncommentedClass`,
		`MyTestNamespace\standaloneTest`,
	}, names)
}

func TestEntityAt_Sample(t *testing.T) {
	tokens := loadSample(t)
	p := NewEntityParser()

	tests := []struct {
		name      string
		line      int
		wantName  string
		wantStart int
		wantEnd   int
	}{
		{name: "inside method", line: 14, wantName: "TestMethod1", wantStart: 15, wantEnd: 22},
		{name: "method comment", line: 13, wantName: "TestMethod1", wantStart: 15, wantEnd: 22},
		{name: "class closing line", line: 39, wantName: "MyUncommentedClass", wantStart: 35, wantEnd: 39},
		{name: "standalone function", line: 42, wantName: "standaloneTest", wantStart: 41, wantEnd: 43},
		{name: "class comment", line: 7, wantName: "MyCommentedClass", wantStart: 9, wantEnd: 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := p.EntityAt(tokens, tt.line)
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.Equal(t, tt.wantName, e.Name)
			assert.Equal(t, tt.wantStart, e.StartLine)
			assert.Equal(t, tt.wantEnd, e.EndLine)
		})
	}

	e, err := p.EntityAt(tokens, 14)
	require.NoError(t, err)
	require.NotNil(t, e.Class)
	assert.Equal(t, "MyCommentedClass", e.Class.Name)

	e, err = p.EntityAt(tokens, 46)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestEntityAt_AlwaysEncloses(t *testing.T) {
	tokens := loadSample(t)
	p := NewEntityParser()

	for line := 1; line <= 47; line++ {
		e, err := p.EntityAt(tokens, line)
		require.NoError(t, err)
		if e == nil {
			continue
		}
		assert.True(t, e.Testable(), "line %d", line)
		assert.True(t, e.Encloses(line), "line %d: %s %d-%d", line, e.Name, e.FirstLine(), e.EndLine)
	}
}

func TestEntities_Idempotent(t *testing.T) {
	tokens := loadSample(t)
	p := NewEntityParser()

	first, err := p.Entities(tokens)
	require.NoError(t, err)
	second, err := p.Entities(tokens)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].FullName(), second[i].FullName())
		assert.Equal(t, first[i].StartLine, second[i].StartLine)
		assert.Equal(t, first[i].EndLine, second[i].EndLine)
		assert.Equal(t, len(first[i].Functions), len(second[i].Functions))
	}
	assert.NotSame(t, first[1], second[1])
}

// A class constant fetch such as Foo::class still reads as a class keyword,
// opening an unnamed class that takes over from the enclosing one.
func TestEntities_ClassConstantOpensUnnamedClass(t *testing.T) {
	tokens := newStream().
		words("class", "C").sp().sym("{").nl().
		sp().words("function", "m").sym("(", ")").sp().sym("{").nl().
		sp().words("return", "Foo").word("::").word("class").sym(";").nl().
		sp().sym("}").nl().
		sp().words("function", "n").sym("(", ")").sp().sym("{", "}").nl().
		sym("}").
		build()

	entities, err := NewEntityParser().Entities(tokens)
	require.NoError(t, err)
	require.Len(t, entities, 3)

	c := entities[0]
	assert.Equal(t, "C", c.Name)
	assert.Equal(t, 0, c.EndLine)
	require.Len(t, c.Functions, 1)
	assert.Equal(t, "m", c.Functions[0].Name)
	assert.Equal(t, 4, c.Functions[0].EndLine)

	unnamed := entities[1]
	assert.Equal(t, domain.KindClass, unnamed.Kind)
	assert.Equal(t, "", unnamed.Name)
	assert.Equal(t, 3, unnamed.StartLine)
	assert.Equal(t, 0, unnamed.EndLine)

	n := entities[2]
	assert.Equal(t, domain.KindFunction, n.Kind)
	assert.Equal(t, "n", n.Name)
	assert.Nil(t, n.Class)
	assert.Equal(t, 5, n.EndLine)
}
