package port

import "phptdd/internal/domain"

// EntityStore persists the entities found in each indexed token dump.
type EntityStore interface {
	PutDoc(doc domain.Document) error

	GetDoc(id string) (domain.Document, error)

	// DeleteDoc removes the document together with its entities and
	// postings.
	DeleteDoc(id string) error

	ListDocs() ([]domain.Document, error)

	PutEntities(docID string, entities []*domain.Entity) error

	// GetEntities returns the stored entities with method back-references
	// restored.
	GetEntities(docID string) ([]*domain.Entity, error)

	GetPostings(term string) ([]domain.Posting, error)

	GetStats() (domain.Stats, error)

	UpdateStats(stats domain.Stats) error

	BatchIndex(files []IndexedFile) error

	Close() error
}

type IndexedFile struct {
	Doc      domain.Document
	Entities []*domain.Entity
	// Postings maps term -> entity identifier -> posting.
	Postings map[string]map[string]domain.Posting
}
