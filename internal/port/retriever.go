package port

import "phptdd/internal/domain"

// EntitySearcher finds indexed entities by name.
type EntitySearcher interface {
	Search(query string, k int) ([]domain.SearchHit, error)
}
