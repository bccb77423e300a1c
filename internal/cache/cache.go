// Package cache holds the process-local caches: permanent assets, parsed
// uploads and rendered artifacts.
package cache

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/coocood/freecache"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"

	"github.com/verte-zerg/sportsposter/internal/loader"
	"github.com/verte-zerg/sportsposter/internal/model"
)

const (
	megabyte = 1024 * 1024

	// DefaultTTL bounds how long a parsed upload or rendered artifact lives.
	DefaultTTL = 30 * time.Minute
	// DefaultParseEntries bounds the number of parsed uploads kept.
	DefaultParseEntries = 32
	// DefaultArtifactBytes is the freecache segment size for rendered files.
	DefaultArtifactBytes = 64 * megabyte
)

// Assets is a permanent key/value store for immutable process-lifetime
// resources. Entries are never evicted.
type Assets[K comparable, V any] struct {
	mu     sync.Mutex
	values map[K]V
}

// NewAssets returns an empty asset store.
func NewAssets[K comparable, V any]() *Assets[K, V] {
	return &Assets[K, V]{values: make(map[K]V)}
}

// GetOrLoad returns the cached value for key, calling load once on a miss.
// A failed load is not cached.
func (a *Assets[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v, ok := a.values[key]; ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	a.values[key] = v
	return v, nil
}

// Len returns the number of stored assets.
func (a *Assets[K, V]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.values)
}

// ParseCache keeps parsed uploads keyed by content digest.
type ParseCache struct {
	lru *expirable.LRU[string, *loader.Table]
}

// NewParseCache builds a cache bounded by size entries and ttl.
func NewParseCache(size int, ttl time.Duration) *ParseCache {
	if size <= 0 {
		size = DefaultParseEntries
	}
	return &ParseCache{lru: expirable.NewLRU[string, *loader.Table](size, nil, ttl)}
}

// Parse returns the cached table for content or parses and stores it.
// Parse errors are not cached.
func (c *ParseCache) Parse(content []byte) (*loader.Table, error) {
	digest := loader.Digest(content)
	if table, ok := c.lru.Get(digest); ok {
		log.Tracef("parse cache hit for %s", digest)
		return table, nil
	}
	table, err := loader.Parse(content)
	if err != nil {
		return nil, err
	}
	c.lru.Add(digest, table)
	return table, nil
}

// Get looks up a parsed table by digest.
func (c *ParseCache) Get(digest string) (*loader.Table, bool) {
	return c.lru.Get(digest)
}

// Len returns the number of live entries.
func (c *ParseCache) Len() int {
	return c.lru.Len()
}

// Artifacts stores rendered poster bytes. freecache rejects entries larger
// than 1/1024 of its size, so artifacts are split into chunks.
type Artifacts struct {
	cache     *freecache.Cache
	expireSec int
	chunkSize int
}

// NewArtifacts allocates a byte cache of sizeBytes with the given ttl.
func NewArtifacts(sizeBytes int, ttl time.Duration) *Artifacts {
	if sizeBytes <= 0 {
		sizeBytes = DefaultArtifactBytes
	}
	return &Artifacts{
		cache:     freecache.NewCache(sizeBytes),
		expireSec: int(ttl / time.Second),
		chunkSize: max(sizeBytes/1024-256, 128),
	}
}

// ArtifactKey identifies one rendered file.
func ArtifactKey(digest string, scope model.Scope, format string) string {
	return fmt.Sprintf("%s::%s::%s", digest, scope.Label(), format)
}

func chunkKey(key string, i int) []byte {
	return []byte(key + "#" + strconv.Itoa(i))
}

// Get returns the stored bytes for key. A partially evicted artifact is a miss.
func (a *Artifacts) Get(key string) ([]byte, bool) {
	head, err := a.cache.Get([]byte(key))
	if err != nil || len(head) != 8 {
		return nil, false
	}
	n := int(binary.BigEndian.Uint32(head[:4]))
	size := int(binary.BigEndian.Uint32(head[4:]))
	data := make([]byte, 0, size)
	for i := 0; i < n; i++ {
		chunk, err := a.cache.Get(chunkKey(key, i))
		if err != nil {
			return nil, false
		}
		data = append(data, chunk...)
	}
	if len(data) != size {
		return nil, false
	}
	return data, true
}

// Set stores data under key.
func (a *Artifacts) Set(key string, data []byte) error {
	n := 0
	for off := 0; off < len(data); off += a.chunkSize {
		end := min(off+a.chunkSize, len(data))
		if err := a.cache.Set(chunkKey(key, n), data[off:end], a.expireSec); err != nil {
			return fmt.Errorf("cache artifact %s chunk %d: %w", key, n, err)
		}
		n++
	}
	head := make([]byte, 8)
	binary.BigEndian.PutUint32(head[:4], uint32(n))
	binary.BigEndian.PutUint32(head[4:], uint32(len(data)))
	if err := a.cache.Set([]byte(key), head, a.expireSec); err != nil {
		return fmt.Errorf("cache artifact %s: %w", key, err)
	}
	return nil
}

// Entries returns the number of stored freecache entries, chunks included.
func (a *Artifacts) Entries() int64 {
	return a.cache.EntryCount()
}
