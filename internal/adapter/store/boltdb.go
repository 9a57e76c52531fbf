package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"phptdd/internal/domain"
	"phptdd/internal/port"
)

var (
	bucketDocs     = []byte("docs")
	bucketEntities = []byte("entities")
	bucketTerms    = []byte("terms")
	bucketDocTerms = []byte("doc_terms")
	bucketStats    = []byte("stats")
	keyStats       = []byte("corpus_stats")
)

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketDocs, bucketEntities, bucketTerms, bucketDocTerms, bucketStats}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type docMeta struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mod_time"`
}

func encodeDoc(doc domain.Document) ([]byte, error) {
	return json.Marshal(docMeta{Path: doc.Path, ModTime: doc.ModTime.Unix()})
}

func decodeDoc(id string, data []byte) (domain.Document, error) {
	var meta docMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:      id,
		Path:    meta.Path,
		ModTime: time.Unix(meta.ModTime, 0),
	}, nil
}

func (s *BoltStore) PutDoc(doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeDoc(doc)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		var err error
		doc, err = decodeDoc(id, data)
		return err
	})
	return doc, err
}

func (s *BoltStore) DeleteDoc(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deletePostings(tx, id); err != nil {
			return err
		}
		if err := tx.Bucket(bucketEntities).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			doc, err := decodeDoc(string(k), v)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	return docs, err
}

func (s *BoltStore) PutEntities(docID string, entities []*domain.Entity) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(entities)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketEntities).Put([]byte(docID), data)
	})
}

func (s *BoltStore) GetEntities(docID string) ([]*domain.Entity, error) {
	var entities []*domain.Entity
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEntities).Get([]byte(docID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &entities)
	})
	if err != nil {
		return nil, err
	}
	domain.LinkMethods(entities)
	return entities, nil
}

func (s *BoltStore) GetPostings(term string) ([]domain.Posting, error) {
	var postings []domain.Posting
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketTerms).Get([]byte(term))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &postings)
	})
	return postings, err
}

// deletePostings drops every posting recorded for docID.
func deletePostings(tx *bbolt.Tx, docID string) error {
	docTerms := tx.Bucket(bucketDocTerms)
	data := docTerms.Get([]byte(docID))
	if data == nil {
		return nil
	}
	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		return err
	}

	b := tx.Bucket(bucketTerms)
	for _, term := range terms {
		data := b.Get([]byte(term))
		if data == nil {
			continue
		}
		var postings []domain.Posting
		if err := json.Unmarshal(data, &postings); err != nil {
			continue
		}

		filtered := make([]domain.Posting, 0, len(postings))
		for _, p := range postings {
			if p.DocID != docID {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			if err := b.Delete([]byte(term)); err != nil {
				return err
			}
			continue
		}
		data, err := json.Marshal(filtered)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(term), data); err != nil {
			return err
		}
	}
	return docTerms.Delete([]byte(docID))
}

func (s *BoltStore) GetStats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keyStats)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err
}

func (s *BoltStore) UpdateStats(stats domain.Stats) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketStats).Put(keyStats, data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// BatchIndex stores documents, their entities and postings in a single
// transaction, replacing whatever was stored for those documents before.
func (s *BoltStore) BatchIndex(files []port.IndexedFile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		docsBucket := tx.Bucket(bucketDocs)
		entitiesBucket := tx.Bucket(bucketEntities)
		docTermsBucket := tx.Bucket(bucketDocTerms)
		termsBucket := tx.Bucket(bucketTerms)

		allPostings := make(map[string][]domain.Posting)

		for _, file := range files {
			id := []byte(file.Doc.ID)
			if err := deletePostings(tx, file.Doc.ID); err != nil {
				return err
			}

			data, err := encodeDoc(file.Doc)
			if err != nil {
				return err
			}
			if err := docsBucket.Put(id, data); err != nil {
				return err
			}

			data, err = json.Marshal(file.Entities)
			if err != nil {
				return err
			}
			if err := entitiesBucket.Put(id, data); err != nil {
				return err
			}

			terms := make([]string, 0, len(file.Postings))
			for term, byIdentifier := range file.Postings {
				terms = append(terms, term)
				for _, p := range byIdentifier {
					allPostings[term] = append(allPostings[term], p)
				}
			}
			termsData, err := json.Marshal(terms)
			if err != nil {
				return err
			}
			if err := docTermsBucket.Put(id, termsData); err != nil {
				return err
			}
		}

		for term, newPostings := range allPostings {
			var existing []domain.Posting
			if data := termsBucket.Get([]byte(term)); data != nil {
				if err := json.Unmarshal(data, &existing); err != nil {
					return fmt.Errorf("failed to decode postings for %q: %w", term, err)
				}
			}
			existing = append(existing, newPostings...)
			data, err := json.Marshal(existing)
			if err != nil {
				return err
			}
			if err := termsBucket.Put([]byte(term), data); err != nil {
				return err
			}
		}

		return nil
	})
}

var _ port.EntityStore = (*BoltStore)(nil)
