package tokendump

import (
	"context"
	"fmt"
	"os"

	"phptdd/internal/domain"
)

// Cache stores decoded streams by dump content.
type Cache interface {
	Get(data []byte) ([]domain.Token, bool)
	Add(data []byte, tokens []domain.Token)
}

// FileSource reads token dumps from disk, decoding each distinct dump once
// when a cache is configured.
type FileSource struct {
	cache Cache
}

func NewFileSource(cache Cache) *FileSource {
	return &FileSource{cache: cache}
}

func (s *FileSource) Tokens(ctx context.Context, path string) ([]domain.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token dump: %w", err)
	}

	if s.cache != nil {
		if tokens, ok := s.cache.Get(data); ok {
			return tokens, nil
		}
	}

	tokens, err := DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if s.cache != nil {
		s.cache.Add(data, tokens)
	}
	return tokens, nil
}
