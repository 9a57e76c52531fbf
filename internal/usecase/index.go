package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"phptdd/internal/adapter/analyzer"
	"phptdd/internal/adapter/retriever"
	"phptdd/internal/domain"
	"phptdd/internal/port"
)

var log = commonlog.GetLogger("phptdd.usecase")

// IndexUseCase handles workspace indexing.
type IndexUseCase struct {
	store     port.EntityStore
	walker    port.FileWalker
	source    port.TokenSource
	parser    port.EntityParser
	tokenizer port.Tokenizer
	workers   int
}

// NewIndexUseCase creates a new index use case. workers bounds the number
// of dumps parsed at once.
func NewIndexUseCase(
	store port.EntityStore,
	walker port.FileWalker,
	source port.TokenSource,
	parser port.EntityParser,
	tokenizer port.Tokenizer,
	workers int,
) *IndexUseCase {
	if workers < 1 {
		workers = 1
	}
	return &IndexUseCase{
		store:     store,
		walker:    walker,
		source:    source,
		parser:    parser,
		tokenizer: tokenizer,
		workers:   workers,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesIndexed  int
	FilesSkipped  int
	FilesDeleted  int
	EntitiesFound int
	Errors        []string
}

// ProgressFunc is called after each parsed file.
type ProgressFunc func(done, total int)

type parsedFile struct {
	file     port.FileInfo
	entities []*domain.Entity
	ok       bool
}

// Index indexes the token dumps under root. Files whose modification time
// has not advanced are skipped and files that vanished are removed.
func (u *IndexUseCase) Index(ctx context.Context, root string, progress ProgressFunc) (*IndexResult, error) {
	result := &IndexResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.store.ListDocs()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing docs: %w", err)
	}
	existingMap := make(map[string]domain.Document, len(existingDocs))
	for _, doc := range existingDocs {
		existingMap[doc.Path] = doc
	}

	seenPaths := make(map[string]bool, len(files))
	var pending []port.FileInfo
	var unchanged []domain.Document
	for _, file := range files {
		seenPaths[file.Path] = true
		if existing, ok := existingMap[file.Path]; ok && existing.ModTime.Unix() >= file.ModTime {
			result.FilesSkipped++
			unchanged = append(unchanged, existing)
			continue
		}
		pending = append(pending, file)
	}

	for path, doc := range existingMap {
		if seenPaths[path] {
			continue
		}
		if err := u.store.DeleteDoc(doc.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
			continue
		}
		log.Debugf("removed %s", path)
		result.FilesDeleted++
	}

	parsed, err := u.parseAll(ctx, pending, result, progress)
	if err != nil {
		return nil, err
	}

	batch := make([]port.IndexedFile, 0, len(parsed))
	var stats domain.Stats
	for _, p := range parsed {
		if !p.ok {
			continue
		}
		doc := domain.Document{
			ID:      generateDocID(p.file.Path),
			Path:    p.file.Path,
			ModTime: time.Unix(p.file.ModTime, 0),
		}
		postings, terms := retriever.Postings(doc.ID, p.entities, u.tokenizer)
		batch = append(batch, port.IndexedFile{Doc: doc, Entities: p.entities, Postings: postings})
		u.count(&stats, p.entities, terms)
		result.FilesIndexed++
	}
	if err := u.store.BatchIndex(batch); err != nil {
		return nil, fmt.Errorf("failed to store index: %w", err)
	}

	for _, doc := range unchanged {
		entities, err := u.store.GetEntities(doc.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to load %s: %v", doc.Path, err))
			continue
		}
		_, terms := retriever.Postings(doc.ID, entities, u.tokenizer)
		u.count(&stats, entities, terms)
	}

	stats.TotalDocs = result.FilesIndexed + result.FilesSkipped
	if stats.TotalTestable > 0 {
		stats.AvgTermCount /= float64(stats.TotalTestable)
	}
	if err := u.store.UpdateStats(stats); err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	result.EntitiesFound = stats.TotalEntities
	return result, nil
}

// parseAll decodes and parses files concurrently. Per-file failures are
// recorded in result; only cancellation aborts the run.
func (u *IndexUseCase) parseAll(ctx context.Context, files []port.FileInfo, result *IndexResult, progress ProgressFunc) ([]parsedFile, error) {
	parsed := make([]parsedFile, len(files))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for i, file := range files {
		g.Go(func() error {
			entities, err := u.parseFile(gctx, file.Path)

			mu.Lock()
			defer mu.Unlock()
			done++
			if progress != nil {
				progress(done, len(files))
			}

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s: %v", file.Path, err))
				return nil
			}
			parsed[i] = parsedFile{file: file, entities: entities, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

func (u *IndexUseCase) parseFile(ctx context.Context, path string) ([]*domain.Entity, error) {
	tokens, err := u.source.Tokens(ctx, path)
	if err != nil {
		return nil, err
	}
	entities, err := u.parser.Entities(tokens)
	if errors.Is(err, analyzer.ErrEmptyStream) {
		log.Debugf("no tokens in %s", path)
		return nil, nil
	}
	return entities, err
}

// count accumulates entity totals. AvgTermCount holds the running term sum
// until Index divides it.
func (u *IndexUseCase) count(stats *domain.Stats, entities []*domain.Entity, terms int) {
	for _, e := range entities {
		stats.TotalEntities++
		if e.Kind == domain.KindClass {
			stats.TotalEntities += len(e.Functions)
		}
	}
	stats.TotalTestable += len(domain.Flatten(entities))
	stats.AvgTermCount += float64(terms)
}

// generateDocID creates a unique ID for a document based on its path.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
