package cache

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"phptdd/internal/domain"
)

const defaultSize = 64

// TokenCache keeps recently decoded token streams, keyed by the content of
// the dump they were decoded from.
type TokenCache struct {
	entries *lru.Cache[string, []domain.Token]
}

func NewTokenCache(size int) (*TokenCache, error) {
	if size <= 0 {
		size = defaultSize
	}
	entries, err := lru.New[string, []domain.Token](size)
	if err != nil {
		return nil, err
	}
	return &TokenCache{entries: entries}, nil
}

func cacheKey(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *TokenCache) Get(data []byte) ([]domain.Token, bool) {
	return c.entries.Get(cacheKey(data))
}

func (c *TokenCache) Add(data []byte, tokens []domain.Token) {
	c.entries.Add(cacheKey(data), tokens)
}

func (c *TokenCache) Len() int {
	return c.entries.Len()
}

func (c *TokenCache) Purge() {
	c.entries.Purge()
}
