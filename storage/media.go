package storage

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"memoryshare/models"
	"memoryshare/utils"

	"github.com/google/uuid"
)

// MediaStore manages uploaded photo blobs on disk
type MediaStore struct {
	baseDir       string
	imageMaxWidth uint
	mu            sync.RWMutex
}

// NewMediaStore creates a new media store rooted at baseDir
func NewMediaStore(baseDir string, imageMaxWidth uint) (*MediaStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %v", err)
	}

	return &MediaStore{
		baseDir:       baseDir,
		imageMaxWidth: imageMaxWidth,
	}, nil
}

// Save stores an uploaded blob and returns its media descriptor.
// Photos wider than the configured maximum are downscaled before writing.
func (s *MediaStore) Save(originalName string, data []byte) (*models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contentType := sniffContentType(originalName, data)

	if utils.IsImage(contentType) {
		optimized, err := utils.OptimizeImage(data, s.imageMaxWidth)
		if err != nil {
			// Keep the original bytes if the image cannot be decoded
			utils.Log.Warn("Image optimization failed for %s: %v", originalName, err)
		} else {
			data = optimized
		}
	}

	filename := uuid.New().String() + sanitizeExt(originalName)
	filePath := filepath.Join(s.baseDir, filename)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write media file: %w", err)
	}

	return &models.Media{
		Filename:     filename,
		OriginalName: filepath.Base(originalName),
		ContentType:  contentType,
		Size:         int64(len(data)),
	}, nil
}

// Path returns the on-disk path for a stored media file
func (s *MediaStore) Path(filename string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Reject anything that could escape the media directory
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid media filename")
	}

	filePath := filepath.Join(s.baseDir, filename)
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("media file not found: %w", err)
	}
	return filePath, nil
}

// Delete removes a stored media file
func (s *MediaStore) Delete(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filename == "" || filename != filepath.Base(filename) {
		return fmt.Errorf("invalid media filename")
	}

	if err := os.Remove(filepath.Join(s.baseDir, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

// sniffContentType determines the content type from the file data,
// falling back to the extension for types http.DetectContentType misses
func sniffContentType(filename string, data []byte) string {
	detected := http.DetectContentType(data)
	if detected != "application/octet-stream" {
		return detected
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// sanitizeExt returns a safe lowercase extension for the stored filename
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
