package tagger

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"memoryshare/models"
)

// cacheItem holds cached suggestions with an expiration time
type cacheItem struct {
	suggestions []models.TagSuggestion
	expiration  time.Time
}

// CachedTagger wraps another tagger with a TTL cache so repeated requests
// for the same draft text skip the classifier
type CachedTagger struct {
	inner Tagger
	ttl   time.Duration

	mu    sync.RWMutex
	items map[string]*cacheItem
}

// NewCachedTagger wraps inner with a cache whose entries live ttlMinutes
func NewCachedTagger(inner Tagger, ttlMinutes int) *CachedTagger {
	c := &CachedTagger{
		inner: inner,
		ttl:   time.Duration(ttlMinutes) * time.Minute,
		items: make(map[string]*cacheItem),
	}

	// Start cleanup goroutine
	go c.cleanupLoop()

	return c
}

// SuggestTags returns cached suggestions when available, otherwise delegates
func (c *CachedTagger) SuggestTags(ctx context.Context, title, description string, topK int) ([]models.TagSuggestion, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	key := cacheKey(title, description, topK)

	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if exists && time.Now().Before(item.expiration) {
		return item.suggestions, nil
	}

	suggestions, err := c.inner.SuggestTags(ctx, title, description, topK)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[key] = &cacheItem{
		suggestions: suggestions,
		expiration:  time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	return suggestions, nil
}

// Size returns the number of cached entries
func (c *CachedTagger) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// cleanupLoop periodically removes expired entries
func (c *CachedTagger) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *CachedTagger) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}

func cacheKey(title, description string, topK int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", title, description, topK)))
	return fmt.Sprintf("%x", hash[:16])
}
