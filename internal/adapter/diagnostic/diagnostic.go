// Package diagnostic turns failed test runs into LSP diagnostics.
package diagnostic

import (
	"sort"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"phptdd/internal/domain"
)

const source = "phptdd"

// Set holds the outstanding diagnostics per document, one per entity
// identifier. It is safe for concurrent use.
type Set struct {
	mu    sync.Mutex
	byURI map[string]map[string]protocol.Diagnostic
}

func NewSet() *Set {
	return &Set{byURI: make(map[string]map[string]protocol.Diagnostic)}
}

// Add records a failure for entity, replacing any earlier one with the same
// identifier.
func (s *Set) Add(uri string, entity *domain.Entity, message string) {
	if entity == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	diags := s.byURI[uri]
	if diags == nil {
		diags = make(map[string]protocol.Diagnostic)
		s.byURI[uri] = diags
	}
	diags[entity.Identifier()] = newDiagnostic(entity, message)
}

// Clear drops the diagnostic recorded for identifier.
func (s *Set) Clear(uri, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	diags := s.byURI[uri]
	delete(diags, identifier)
	if len(diags) == 0 {
		delete(s.byURI, uri)
	}
}

func (s *Set) Len(uri string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byURI[uri])
}

// Publish returns the notification payload for uri. Diagnostics are ordered
// by start line. An empty list clears the client's view.
func (s *Set) Publish(uri string) protocol.PublishDiagnosticsParams {
	s.mu.Lock()
	defer s.mu.Unlock()

	diags := make([]protocol.Diagnostic, 0, len(s.byURI[uri]))
	for _, d := range s.byURI[uri] {
		diags = append(diags, d)
	}
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].Range.Start.Line != diags[j].Range.Start.Line {
			return diags[i].Range.Start.Line < diags[j].Range.Start.Line
		}
		return diags[i].Message < diags[j].Message
	})
	return protocol.PublishDiagnosticsParams{URI: uri, Diagnostics: diags}
}

// URIs lists the documents with outstanding diagnostics.
func (s *Set) URIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	uris := make([]string, 0, len(s.byURI))
	for uri := range s.byURI {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func newDiagnostic(entity *domain.Entity, message string) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	src := source
	return protocol.Diagnostic{
		Range:    entityRange(entity),
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: entity.Identifier()},
		Source:   &src,
		Message:  message,
	}
}

// entityRange spans the entity's lines, comment included. Entity lines are
// one-based; LSP positions are zero-based.
func entityRange(entity *domain.Entity) protocol.Range {
	start := zeroBased(entity.FirstLine())
	end := zeroBased(entity.EndLine)
	if end < start {
		end = start
	}
	return protocol.Range{
		Start: protocol.Position{Line: start},
		End:   protocol.Position{Line: end + 1},
	}
}

func zeroBased(line int) protocol.UInteger {
	if line <= 1 {
		return 0
	}
	return protocol.UInteger(line - 1)
}
