package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"memoryshare/models"
)

// HTTPTagger calls an external classifier service over HTTP
type HTTPTagger struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTagger creates a tagger for the classifier at baseURL
func NewHTTPTagger(baseURL string) *HTTPTagger {
	return &HTTPTagger{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SuggestTags requests predictions from the classifier service
func (t *HTTPTagger) SuggestTags(ctx context.Context, title, description string, topK int) ([]models.TagSuggestion, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(description) == "" {
		return nil, ErrEmptyInput
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	body, err := json.Marshal(PredictRequest{
		Title:       title,
		Description: description,
		TopK:        topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/predict-tags/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tag service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tag service returned status %d", resp.StatusCode)
	}

	var suggestions []models.TagSuggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestions); err != nil {
		return nil, fmt.Errorf("failed to decode tag service response: %w", err)
	}

	// Drop entries the service returned without a tag value
	valid := suggestions[:0]
	for _, s := range suggestions {
		if strings.TrimSpace(s.Tag) != "" {
			valid = append(valid, s)
		}
	}

	return valid, nil
}
