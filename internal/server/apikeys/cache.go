package apikeys

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the cache when no size is configured.
const DefaultCacheSize = 4096

// Cache maps API keys to client identities. It is safe for concurrent use.
// Keys are compared exactly, so lookups are case-sensitive.
type Cache struct {
	entries *lru.Cache[string, ClientIdentity]
}

// NewCache creates a cache holding at most size entries. A non-positive
// size selects DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, ClientIdentity](size)
	if err != nil {
		return nil, fmt.Errorf("create api key cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the identity cached under the exact apiKey.
func (c *Cache) Get(apiKey string) (ClientIdentity, bool) {
	return c.entries.Get(apiKey)
}

// Add stores id under apiKey, overwriting any previous entry.
func (c *Cache) Add(apiKey string, id ClientIdentity) {
	c.entries.Add(apiKey, id)
}

// Len reports the number of cached keys.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}
