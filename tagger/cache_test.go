package tagger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"memoryshare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTagger struct {
	mu          sync.Mutex
	calls       int
	suggestions []models.TagSuggestion
	err         error
}

func (c *countingTagger) SuggestTags(ctx context.Context, title, description string, topK int) ([]models.TagSuggestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.suggestions, c.err
}

func TestCachedTaggerServesRepeatsFromCache(t *testing.T) {
	inner := &countingTagger{suggestions: []models.TagSuggestion{{Tag: "Beach"}}}
	cached := NewCachedTagger(inner, 60)

	ctx := context.Background()
	first, err := cached.SuggestTags(ctx, "Beach Day", "", 5)
	require.NoError(t, err)

	second, err := cached.SuggestTags(ctx, "Beach Day", "", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cached.Size())
}

func TestCachedTaggerKeysOnInputAndTopK(t *testing.T) {
	inner := &countingTagger{suggestions: []models.TagSuggestion{{Tag: "Beach"}}}
	cached := NewCachedTagger(inner, 60)

	ctx := context.Background()
	cached.SuggestTags(ctx, "Beach Day", "", 5)
	cached.SuggestTags(ctx, "Beach Day", "sunset", 5)
	cached.SuggestTags(ctx, "Beach Day", "", 3)

	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 3, cached.Size())
}

func TestCachedTaggerDoesNotCacheErrors(t *testing.T) {
	inner := &countingTagger{err: errors.New("down")}
	cached := NewCachedTagger(inner, 60)

	ctx := context.Background()
	_, err := cached.SuggestTags(ctx, "Beach Day", "", 5)
	require.Error(t, err)
	_, err = cached.SuggestTags(ctx, "Beach Day", "", 5)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.Size())
}

func TestCachedTaggerExpiresEntries(t *testing.T) {
	inner := &countingTagger{suggestions: []models.TagSuggestion{{Tag: "Beach"}}}
	cached := NewCachedTagger(inner, 60)

	ctx := context.Background()
	_, err := cached.SuggestTags(ctx, "Beach Day", "", 5)
	require.NoError(t, err)

	// Force the entry past its expiration
	cached.mu.Lock()
	for _, item := range cached.items {
		item.expiration = time.Now().Add(-time.Minute)
	}
	cached.mu.Unlock()

	_, err = cached.SuggestTags(ctx, "Beach Day", "", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	cached.cleanup()
	assert.Equal(t, 1, cached.Size())
}
