//go:build js && wasm

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"syscall/js"
	"time"

	"phptdd/internal/adapter/analyzer"
	"phptdd/internal/adapter/memstore"
	"phptdd/internal/adapter/retriever"
	"phptdd/internal/adapter/tokendump"
	"phptdd/internal/domain"
	"phptdd/internal/port"
)

var (
	store     *memstore.MemoryStore
	parser    *analyzer.EntityParser
	tokenizer *analyzer.Tokenizer
	bm25      *retriever.BM25Retriever
)

func init() {
	store = memstore.NewMemoryStore()
	parser = analyzer.NewEntityParser()
	tokenizer = analyzer.NewTokenizer()
	bm25 = retriever.NewBM25Retriever(store, tokenizer, 1.2, 0.75, 0.3)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("phptddEntities", js.FuncOf(entities))
	js.Global().Set("phptddEntityAt", js.FuncOf(entityAt))
	js.Global().Set("phptddIndex", js.FuncOf(indexDump))
	js.Global().Set("phptddSearch", js.FuncOf(search))
	js.Global().Set("phptddClear", js.FuncOf(clearIndex))

	<-c
}

// entities(dumpJSON) lists the entities declared in a token dump.
func entities(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: phptddEntities(dumpJSON)")
	}
	tokens, err := tokendump.DecodeBytes([]byte(args[0].String()))
	if err != nil {
		return makeError("decode failed: " + err.Error())
	}
	found, err := parser.Entities(tokens)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(map[string]interface{}{
		"entities": found,
	})
}

// entityAt(dumpJSON, line) returns the testable entity enclosing line.
func entityAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: phptddEntityAt(dumpJSON, line)")
	}
	tokens, err := tokendump.DecodeBytes([]byte(args[0].String()))
	if err != nil {
		return makeError("decode failed: " + err.Error())
	}
	entity, err := parser.EntityAt(tokens, args[1].Int())
	if err != nil {
		return makeError(err.Error())
	}
	if entity == nil {
		return makeResult(map[string]interface{}{"entity": nil})
	}

	info := analyzer.ReadTestFunction(entity)
	return makeResult(map[string]interface{}{
		"entity":         entity,
		"identifier":     entity.Identifier(),
		"fullName":       entity.FullName(),
		"testFunction":   info.FunctionName,
		"disableAutoRun": info.DisableAutoRun,
	})
}

// indexDump(filename, dumpJSON) adds a dump to the in-memory search index.
func indexDump(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: phptddIndex(filename, dumpJSON)")
	}
	filename := args[0].String()

	tokens, err := tokendump.DecodeBytes([]byte(args[1].String()))
	if err != nil {
		return makeError("decode failed: " + err.Error())
	}
	found, err := parser.Entities(tokens)
	if err != nil {
		return makeError(err.Error())
	}

	doc := domain.Document{
		ID:      generateDocID(filename),
		Path:    filename,
		ModTime: time.Now(),
	}
	postings, _ := retriever.Postings(doc.ID, found, tokenizer)
	if err := store.BatchIndex([]port.IndexedFile{{Doc: doc, Entities: found, Postings: postings}}); err != nil {
		return makeError("indexing failed: " + err.Error())
	}
	if err := updateStats(); err != nil {
		return makeError("indexing failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"success":  true,
		"entities": len(domain.Flatten(found)),
		"filename": filename,
	})
}

func search(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: phptddSearch(query, [topK])")
	}
	query := args[0].String()
	topK := 10
	if len(args) > 1 {
		topK = args[1].Int()
	}

	hits, err := bm25.Search(query, topK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(hits))
	for _, h := range hits {
		output = append(output, map[string]interface{}{
			"path":      h.Doc.Path,
			"name":      h.Entity.FullName(),
			"kind":      h.Entity.Kind.String(),
			"startLine": h.Entity.StartLine,
			"endLine":   h.Entity.EndLine,
			"score":     h.Score,
		})
	}
	return makeResult(map[string]interface{}{
		"results": output,
		"query":   query,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	store = memstore.NewMemoryStore()
	bm25 = retriever.NewBM25Retriever(store, tokenizer, 1.2, 0.75, 0.3)
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

// updateStats recomputes the corpus statistics over every stored dump.
func updateStats() error {
	docs, err := store.ListDocs()
	if err != nil {
		return err
	}
	stats := domain.Stats{TotalDocs: len(docs)}
	terms := 0
	for _, doc := range docs {
		stored, err := store.GetEntities(doc.ID)
		if err != nil {
			return err
		}
		flat := domain.Flatten(stored)
		stats.TotalTestable += len(flat)
		stats.TotalEntities += len(flat)
		for _, e := range stored {
			if !e.Testable() {
				stats.TotalEntities++
			}
		}
		_, n := retriever.Postings(doc.ID, stored, tokenizer)
		terms += n
	}
	if stats.TotalTestable > 0 {
		stats.AvgTermCount = float64(terms) / float64(stats.TotalTestable)
	}
	return store.UpdateStats(stats)
}

func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
