package retriever

import (
	"math"
	"path/filepath"
	"sort"
	"strings"

	"phptdd/internal/domain"
	"phptdd/internal/port"
)

// BM25Retriever ranks indexed entities by how well their names match a query.
type BM25Retriever struct {
	store           port.EntityStore
	tokenizer       port.Tokenizer
	k1              float64
	b               float64
	pathBoostWeight float64
}

func NewBM25Retriever(store port.EntityStore, tokenizer port.Tokenizer, k1, b, pathBoostWeight float64) *BM25Retriever {
	return &BM25Retriever{
		store:           store,
		tokenizer:       tokenizer,
		k1:              k1,
		b:               b,
		pathBoostWeight: pathBoostWeight,
	}
}

type hitKey struct {
	docID      string
	identifier string
}

func (r *BM25Retriever) Search(query string, k int) ([]domain.SearchHit, error) {
	queryTokens := r.tokenizer.Tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	stats, err := r.store.GetStats()
	if err != nil {
		return nil, err
	}
	if stats.TotalTestable == 0 {
		return nil, nil
	}

	queryTokenSet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		queryTokenSet[t] = struct{}{}
	}

	avgDl := stats.AvgTermCount
	if avgDl <= 0 {
		avgDl = 1
	}
	N := float64(stats.TotalTestable)

	scores := make(map[hitKey]float64)
	for term := range queryTokenSet {
		postings, err := r.store.GetPostings(term)
		if err != nil {
			continue
		}

		n := float64(len(postings))
		idf := math.Log((N-n+0.5)/(n+0.5) + 1)

		for _, posting := range postings {
			dl := float64(posting.Terms)
			tf := float64(posting.TF)
			score := idf * (tf * (r.k1 + 1)) / (tf + r.k1*(1-r.b+r.b*dl/avgDl))
			scores[hitKey{posting.DocID, posting.Identifier}] += score
		}
	}

	docs := make(map[string]domain.Document)
	entities := make(map[string][]*domain.Entity)
	docPathBoosts := make(map[string]float64)

	results := make([]domain.SearchHit, 0, len(scores))
	for key, score := range scores {
		doc, ok := docs[key.docID]
		if !ok {
			doc, err = r.store.GetDoc(key.docID)
			if err != nil {
				continue
			}
			docs[key.docID] = doc
			entities[key.docID], err = r.store.GetEntities(key.docID)
			if err != nil {
				continue
			}
		}

		entity := domain.FindByIdentifier(entities[key.docID], key.identifier)
		if entity == nil {
			continue
		}

		finalScore := score
		if r.pathBoostWeight > 0 {
			pathBoost, exists := docPathBoosts[key.docID]
			if !exists {
				pathBoost = calculatePathBoost(doc.Path, queryTokenSet)
				docPathBoosts[key.docID] = pathBoost
			}
			finalScore = score * (1 + pathBoost*r.pathBoostWeight)
		}

		results = append(results, domain.SearchHit{
			Doc:    doc,
			Entity: entity,
			Score:  finalScore,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entity.FullName() < results[j].Entity.FullName()
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}

	return results, nil
}

func calculatePathBoost(path string, queryTokenSet map[string]struct{}) float64 {
	pathTokens := tokenizePath(path)
	if len(pathTokens) == 0 || len(queryTokenSet) == 0 {
		return 0
	}

	matches := 0
	for _, pt := range pathTokens {
		if _, exists := queryTokenSet[pt]; exists {
			matches++
		}
	}

	return float64(matches) / float64(len(queryTokenSet))
}

func tokenizePath(path string) []string {
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")

	var tokens []string
	for _, part := range strings.Split(path, "/") {
		for _, sp := range strings.Split(part, ".") {
			for _, token := range strings.FieldsFunc(sp, func(r rune) bool {
				return r == '_' || r == '-'
			}) {
				token = strings.ToLower(token)
				if len(token) >= 2 {
					tokens = append(tokens, token)
				}
			}
		}
	}
	return tokens
}

// Postings computes the search postings for a document's entities, keyed by
// term and then entity identifier.
func Postings(docID string, entities []*domain.Entity, tokenizer port.Tokenizer) (map[string]map[string]domain.Posting, int) {
	postings := make(map[string]map[string]domain.Posting)
	totalTerms := 0

	for _, e := range domain.Flatten(entities) {
		terms := tokenizer.Tokenize(e.FullName())
		totalTerms += len(terms)

		tf := make(map[string]int)
		for _, term := range terms {
			tf[term]++
		}
		for term, count := range tf {
			if postings[term] == nil {
				postings[term] = make(map[string]domain.Posting)
			}
			postings[term][e.Identifier()] = domain.Posting{
				DocID:      docID,
				Identifier: e.Identifier(),
				TF:         count,
				Terms:      len(terms),
			}
		}
	}

	return postings, totalTerms
}
