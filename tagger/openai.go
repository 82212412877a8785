package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"memoryshare/models"

	"github.com/sashabaranov/go-openai"
)

const tagSystemPrompt = `You are a photo-memory tag classifier. Given the title and description of a
photo memory, respond with the most fitting short descriptive tags such as
"Birthday", "Outdoor", "Family", "Travel", "Beach".`

// tagListSchema constrains the model output to a JSON tag list
var tagListSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"tags": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"tag": {
						"type": "string",
						"description": "A short descriptive label, capitalized, one or two words"
					},
					"score": {
						"type": "number",
						"minimum": 0,
						"maximum": 1,
						"description": "Confidence score between 0 and 1"
					}
				},
				"required": ["tag", "score"],
				"additionalProperties": false
			}
		}
	},
	"required": ["tags"],
	"additionalProperties": false
}`)

// OpenAITagger suggests tags through an OpenAI-compatible chat completion API
type OpenAITagger struct {
	client *openai.Client
	model  string
}

// NewOpenAITagger creates a tagger backed by an OpenAI-compatible endpoint.
// baseURL may be empty to use the default API host.
func NewOpenAITagger(apiKey, baseURL, model string) *OpenAITagger {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAITagger{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// SuggestTags asks the model for topK tag predictions
func (t *OpenAITagger) SuggestTags(ctx context.Context, title, description string, topK int) ([]models.TagSuggestion, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(description) == "" {
		return nil, ErrEmptyInput
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	userMessage := fmt.Sprintf("Title: %s\nDescription: %s\nReturn at most %d tags.", title, description, topK)

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: tagSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMessage,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "tag_list",
				Schema: tagListSchema,
				Strict: true,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	var parsed struct {
		Tags []models.TagSuggestion `json:"tags"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	suggestions := parsed.Tags
	if len(suggestions) > topK {
		suggestions = suggestions[:topK]
	}

	return suggestions, nil
}
