package usecase

import (
	"context"

	"phptdd/internal/adapter/analyzer"
	"phptdd/internal/domain"
	"phptdd/internal/port"
)

// LocateUseCase answers entity queries against a single token dump.
type LocateUseCase struct {
	source port.TokenSource
	parser port.EntityParser
}

// NewLocateUseCase creates a new locate use case.
func NewLocateUseCase(source port.TokenSource, parser port.EntityParser) *LocateUseCase {
	return &LocateUseCase{source: source, parser: parser}
}

// Entities returns every entity declared in the dump at path.
func (u *LocateUseCase) Entities(ctx context.Context, path string) ([]*domain.Entity, error) {
	tokens, err := u.source.Tokens(ctx, path)
	if err != nil {
		return nil, err
	}
	return u.parser.Entities(tokens)
}

// TestableEntities returns the classes and functions declared at path.
func (u *LocateUseCase) TestableEntities(ctx context.Context, path string) ([]*domain.Entity, error) {
	tokens, err := u.source.Tokens(ctx, path)
	if err != nil {
		return nil, err
	}
	return u.parser.TestableEntities(tokens)
}

// EntityAt returns the entity enclosing line, or nil.
func (u *LocateUseCase) EntityAt(ctx context.Context, path string, line int) (*domain.Entity, error) {
	tokens, err := u.source.Tokens(ctx, path)
	if err != nil {
		return nil, err
	}
	return u.parser.EntityAt(tokens, line)
}

// CurrentTestFunction returns the test binding of the entity at line, or
// nil when no testable entity encloses it.
func (u *LocateUseCase) CurrentTestFunction(ctx context.Context, path string, line int) (*domain.TestFunctionInfo, error) {
	entity, err := u.EntityAt(ctx, path, line)
	if err != nil || entity == nil || !entity.Testable() {
		return nil, err
	}
	info := analyzer.ReadTestFunction(entity)
	return &info, nil
}

// LineTestFunctions collects the test bindings for the entities enclosing
// each line. Bindings that name an already collected function are dropped.
func (u *LocateUseCase) LineTestFunctions(ctx context.Context, path string, lines []int) ([]domain.TestFunctionInfo, error) {
	tokens, err := u.source.Tokens(ctx, path)
	if err != nil {
		return nil, err
	}

	var results []domain.TestFunctionInfo
	seen := make(map[string]bool)
	for _, line := range lines {
		entity, err := u.parser.EntityAt(tokens, line)
		if err != nil {
			return nil, err
		}
		if entity == nil || !entity.Testable() {
			continue
		}
		info := analyzer.ReadTestFunction(entity)
		if seen[info.FunctionName] {
			continue
		}
		seen[info.FunctionName] = true
		results = append(results, info)
	}
	return results, nil
}
