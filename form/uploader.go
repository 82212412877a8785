package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"memoryshare/models"
)

// Submission is the packaged draft sent to the upload endpoint
type Submission struct {
	Title       string
	Description string
	UploadDate  time.Time
	Tags        []string
	TagsInput   string // space-joined tags
	File        *Attachment
}

// Uploader posts a submission to the application's upload endpoint
type Uploader interface {
	Upload(ctx context.Context, sub Submission) (*models.UploadResponse, error)
}

// HTTPUploader posts multipart submissions to the backend add-media endpoint.
// The client carries a cookie jar so backend session cookies are included.
type HTTPUploader struct {
	backendBase string
	client      *http.Client
}

// NewHTTPUploader creates an uploader for the backend at backendBase
func NewHTTPUploader(backendBase string) *HTTPUploader {
	jar, _ := cookiejar.New(nil)
	return &HTTPUploader{
		backendBase: strings.TrimRight(backendBase, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
			Jar:     jar,
		},
	}
}

// Upload builds the multipart payload and posts it to the upload endpoint
func (u *HTTPUploader) Upload(ctx context.Context, sub Submission) (*models.UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("text", sub.Title); err != nil {
		return nil, fmt.Errorf("failed to write title field: %w", err)
	}
	if err := writer.WriteField("description", sub.Description); err != nil {
		return nil, fmt.Errorf("failed to write description field: %w", err)
	}
	for _, tag := range sub.Tags {
		if err := writer.WriteField("tags", tag); err != nil {
			return nil, fmt.Errorf("failed to write tags field: %w", err)
		}
	}
	if err := writer.WriteField("tags_input", sub.TagsInput); err != nil {
		return nil, fmt.Errorf("failed to write tags_input field: %w", err)
	}
	if !sub.UploadDate.IsZero() {
		if err := writer.WriteField("upload_date", sub.UploadDate.Format(time.RFC3339)); err != nil {
			return nil, fmt.Errorf("failed to write upload_date field: %w", err)
		}
	}
	if sub.File != nil {
		part, err := writer.CreateFormFile("files", sub.File.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := part.Write(sub.File.Data); err != nil {
			return nil, fmt.Errorf("failed to write file data: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.backendBase+"/add-media", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("upload endpoint returned status %d", resp.StatusCode)
	}

	var uploadResp models.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return &uploadResp, nil
}
