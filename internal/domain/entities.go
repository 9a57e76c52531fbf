package domain

import (
	"strconv"
	"time"
)

type Document struct {
	ID      string
	Path    string
	ModTime time.Time
}

type Stats struct {
	TotalDocs     int     `json:"total_docs"`
	TotalEntities int     `json:"total_entities"`
	TotalTestable int     `json:"total_testable"`
	AvgTermCount  float64 `json:"avg_term_count"`
}

type CommentKind int

const (
	CommentInline CommentKind = iota
	CommentBlock
)

func (k CommentKind) String() string {
	if k == CommentBlock {
		return "block"
	}
	return "inline"
}

// Comment is a doc comment recognized in the token stream. EndLine grows
// while consecutive // lines extend an inline comment.
type Comment struct {
	Kind      CommentKind `json:"kind"`
	StartLine int         `json:"start_line"`
	EndLine   int         `json:"end_line"`
	Text      string      `json:"text,omitempty"`
}

// RangeString describes the comment's lines, one-based for display.
func (c *Comment) RangeString() string {
	if c.StartLine == c.EndLine {
		return "on " + strconv.Itoa(c.StartLine+1)
	}
	return "from " + strconv.Itoa(c.StartLine+1) + " to " + strconv.Itoa(c.EndLine+1)
}

func (c *Comment) String() string {
	if c.Kind == CommentBlock {
		return "Block comment " + c.RangeString()
	}
	return "Inline comment " + c.RangeString()
}

type EntityKind int

const (
	KindUse EntityKind = iota
	KindClass
	KindFunction
)

func (k EntityKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	default:
		return "use"
	}
}

// Entity is a class, function or use statement found in a source file.
// Classes own their methods through Functions. A method's Class is a
// lookup-only back-reference: the class owns the method's lifetime, the
// reference is never serialized and LinkMethods restores it after decoding.
type Entity struct {
	Kind      EntityKind `json:"kind"`
	Name      string     `json:"name"`
	Namespace string     `json:"namespace,omitempty"`
	StartLine int        `json:"start_line"`
	EndLine   int        `json:"end_line,omitempty"`
	Depth     int        `json:"depth,omitempty"`
	Comment   *Comment   `json:"comment,omitempty"`

	Functions []*Entity `json:"functions,omitempty"`
	// Class is the enclosing class of a method, for lookup only. The class
	// owns the method through Functions.
	Class *Entity `json:"-"`
}

func NewUse(namespace string, line int) *Entity {
	return &Entity{Kind: KindUse, Namespace: namespace, StartLine: line, EndLine: line}
}

func NewClass(name, namespace string, line int) *Entity {
	return &Entity{Kind: KindClass, Name: name, Namespace: namespace, StartLine: line}
}

func NewFunction(name, namespace string, line int) *Entity {
	return &Entity{Kind: KindFunction, Name: name, Namespace: namespace, StartLine: line}
}

func (e *Entity) Testable() bool {
	return e.Kind != KindUse
}

func (e *Entity) IsMethod() bool {
	return e.Kind == KindFunction && e.Class != nil
}

func (e *Entity) FullName() string {
	if e.IsMethod() {
		return e.Class.FullName() + "::" + e.Name
	}
	if e.Namespace != "" {
		return e.Namespace + `\` + e.Name
	}
	return e.Name
}

// Identifier correlates diagnostics with an entity across parses.
func (e *Entity) Identifier() string {
	if e.IsMethod() {
		return e.Class.Name + "::" + e.Name
	}
	return e.Name
}

// FirstLine is where the entity's extent begins, including its comment.
func (e *Entity) FirstLine() int {
	if e.Comment != nil {
		return e.Comment.StartLine
	}
	return e.StartLine
}

func (e *Entity) Encloses(line int) bool {
	return line >= e.FirstLine() && line <= e.EndLine
}

// LinkMethods restores the Class back-reference on every method. Decoded
// entities need it since the reference is not part of the encoding.
func LinkMethods(entities []*Entity) {
	for _, e := range entities {
		if e.Kind != KindClass {
			continue
		}
		for _, f := range e.Functions {
			f.Class = e
		}
	}
}

// TestFunctionInfo is the test binding read from an entity's comment.
type TestFunctionInfo struct {
	Entity         *Entity
	FunctionName   string
	DisableAutoRun bool
}

func (i TestFunctionInfo) HasTestFunction() bool {
	return i.FunctionName != ""
}
