package port

import (
	"context"

	"phptdd/internal/domain"
)

// TokenSource provides the lexed token stream of a PHP source file.
type TokenSource interface {
	Tokens(ctx context.Context, path string) ([]domain.Token, error)
}

type EntityParser interface {
	Entities(tokens []domain.Token) ([]*domain.Entity, error)

	TestableEntities(tokens []domain.Token) ([]*domain.Entity, error)

	// EntityAt returns nil when no testable entity encloses line.
	EntityAt(tokens []domain.Token, line int) (*domain.Entity, error)
}
