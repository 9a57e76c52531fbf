package memstore

import (
	"fmt"
	"sync"

	"phptdd/internal/domain"
	"phptdd/internal/port"
)

// MemoryStore is an EntityStore kept entirely in memory. Entities are held
// as given; callers must not mutate them after storing.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document
	entities map[string][]*domain.Entity
	docTerms map[string][]string
	postings map[string][]domain.Posting
	stats    domain.Stats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]domain.Document),
		entities: make(map[string][]*domain.Entity),
		docTerms: make(map[string][]string),
		postings: make(map[string][]domain.Posting),
	}
}

func (s *MemoryStore) PutDoc(doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) GetDoc(id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document not found: %s", id)
	}
	return doc, nil
}

func (s *MemoryStore) DeleteDoc(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	delete(s.entities, id)
	s.deletePostings(id)
	return nil
}

func (s *MemoryStore) ListDocs() ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MemoryStore) PutEntities(docID string, entities []*domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[docID] = entities
	return nil
}

func (s *MemoryStore) GetEntities(docID string) ([]*domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities[docID], nil
}

func (s *MemoryStore) GetPostings(term string) ([]domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postings[term], nil
}

func (s *MemoryStore) GetStats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *MemoryStore) UpdateStats(stats domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

func (s *MemoryStore) BatchIndex(files []port.IndexedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, file := range files {
		id := file.Doc.ID
		s.deletePostings(id)
		s.docs[id] = file.Doc
		s.entities[id] = file.Entities

		terms := make([]string, 0, len(file.Postings))
		for term, byIdentifier := range file.Postings {
			terms = append(terms, term)
			for _, p := range byIdentifier {
				s.postings[term] = append(s.postings[term], p)
			}
		}
		s.docTerms[id] = terms
	}

	return nil
}

func (s *MemoryStore) deletePostings(docID string) {
	for _, term := range s.docTerms[docID] {
		filtered := make([]domain.Posting, 0, len(s.postings[term]))
		for _, p := range s.postings[term] {
			if p.DocID != docID {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			delete(s.postings, term)
		} else {
			s.postings[term] = filtered
		}
	}
	delete(s.docTerms, docID)
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ port.EntityStore = (*MemoryStore)(nil)
