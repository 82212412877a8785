package tagger

import (
	"context"
	"errors"

	"memoryshare/config"
	"memoryshare/models"
)

// DefaultTopK is the number of suggestions requested when the caller passes 0
const DefaultTopK = 5

// ErrEmptyInput is returned when neither title nor description is provided
var ErrEmptyInput = errors.New("title or description is required for tag suggestions")

// Tagger suggests tags for a memory from its title and description
type Tagger interface {
	SuggestTags(ctx context.Context, title, description string, topK int) ([]models.TagSuggestion, error)
}

// PredictRequest is the JSON body sent to the classifier service
type PredictRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TopK        int    `json:"top_k"`
}

// New creates the tagger selected by the configuration, wrapped in a
// suggestion cache. Returns nil when tag suggestions are disabled.
func New(cfg config.TaggerConfig) Tagger {
	var base Tagger

	switch cfg.Provider {
	case "http":
		base = NewHTTPTagger(cfg.URL)
	case "openai":
		base = NewOpenAITagger(cfg.APIKey, cfg.URL, cfg.Model)
	default:
		return nil
	}

	if cfg.CacheTTLMins > 0 {
		return NewCachedTagger(base, cfg.CacheTTLMins)
	}
	return base
}
