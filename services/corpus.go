package services

import (
	"sync"

	"pdfchat/models"
)

// CorpusCache keeps the full chunk set in memory so the keyword retriever
// can score it lexically. It is shared by ingestion (add), deletion (evict)
// and keyword retrieval (snapshot), hence the lock.
type CorpusCache struct {
	mu     sync.RWMutex
	chunks []models.Chunk
}

// NewCorpusCache returns an empty cache.
func NewCorpusCache() *CorpusCache {
	return &CorpusCache{}
}

// Add appends freshly ingested chunks.
func (c *CorpusCache) Add(chunks []models.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks = append(c.chunks, chunks...)
}

// EvictBySourceKey drops every chunk belonging to one stored document and
// returns how many were dropped.
func (c *CorpusCache) EvictBySourceKey(sourceKey string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.chunks[:0]
	evicted := 0
	for _, ch := range c.chunks {
		if ch.SourceKey == sourceKey {
			evicted++
			continue
		}
		kept = append(kept, ch)
	}
	c.chunks = kept
	return evicted
}

// Clear empties the cache.
func (c *CorpusCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks = nil
}

// Snapshot returns a copy of the current chunk set.
func (c *CorpusCache) Snapshot() []models.Chunk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Chunk, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// Len reports the number of cached chunks.
func (c *CorpusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chunks)
}
