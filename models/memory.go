package models

import "time"

// Memory represents a persisted photo memory
type Memory struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UploadDate  time.Time `json:"upload_date"`
	Tags        []string  `json:"tags"`
	Media       *Media    `json:"media,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Media describes the stored photo backing a memory
type Media struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
}

// TagSuggestion is a single prediction returned by the tag classifier
type TagSuggestion struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score,omitempty"`
}

// UploadResponse is the JSON body returned by the add-media endpoint
type UploadResponse struct {
	Media  string  `json:"media"`
	Memory *Memory `json:"memory,omitempty"`
}
