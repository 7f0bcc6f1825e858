package expr

import (
	"sync"

	u "github.com/araddon/gou"
	"github.com/dchest/siphash"
	"github.com/golang/groupcache/lru"
)

const (
	// siphash keys, fixed so fingerprints are stable across processes
	cacheK0 = 0x5ce1f117e2ca7e00
	cacheK1 = 0x0a11ce5b0b5ca1ed
)

// HashKey is the siphash of a filter text.
func HashKey(text string) uint64 {
	return siphash.Hash(cacheK0, cacheK1, []byte(text))
}

// Cache holds parsed Expressions keyed by the hash of their text, filters
// arriving repeatedly on requests are parsed once.  When full the least
// recently used entry is evicted.  Parse errors are not cached.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// NewCache creates a cache holding at most size expressions.
func NewCache(size int) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{lru: lru.New(size)}
}

// Len is the number of cached expressions
func (m *Cache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *Cache) lookup(key uint64) (*Expression, bool) {
	m.mu.Lock()
	v, ok := m.lru.Get(key)
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	return v.(*Expression), true
}

// Parse returns the cached Expression for text, parsing and caching it on
// a miss.
func (m *Cache) Parse(text string) (*Expression, error) {
	key := HashKey(text)
	if ex, ok := m.lookup(key); ok {
		if ex.Text == text {
			return ex, nil
		}
		// hash collision, do not replace the cached entry
		u.Warnf("expr cache collision key=%d %q vs %q", key, ex.Text, text)
		return Parse(text)
	}

	ex, err := Parse(text)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.lru.Add(key, ex)
	m.mu.Unlock()
	return ex, nil
}
