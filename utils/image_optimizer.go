package utils

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/nfnt/resize"
)

// IsImage checks if the content type is a supported image format
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/jpeg") ||
		strings.HasPrefix(contentType, "image/png")
}

// OptimizeImage downscales an uploaded photo that exceeds maxWidth.
// Unsupported or undecodable data is returned unchanged.
func OptimizeImage(data []byte, maxWidth uint) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if maxWidth == 0 || uint(bounds.Dx()) <= maxWidth {
		return data, nil // No resize needed
	}

	// Lanczos3 keeps photo quality at the cost of CPU
	m := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, m, &jpeg.Options{Quality: 85})
	case "png":
		err = png.Encode(&buf, m)
	default:
		// gif and friends decode fine but we only re-encode jpeg/png
		return data, nil
	}

	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
