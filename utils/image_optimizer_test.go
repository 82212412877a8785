package utils

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/jpeg"))
	assert.True(t, IsImage("image/png"))
	assert.False(t, IsImage("image/gif"))
	assert.False(t, IsImage("application/pdf"))
}

func TestOptimizeImageDownscales(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 200, 100))))

	out, err := OptimizeImage(buf.Bytes(), 50)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestOptimizeImageKeepsSmallImages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 10))))

	out, err := OptimizeImage(buf.Bytes(), 50)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out)
}

func TestOptimizeImageRejectsGarbage(t *testing.T) {
	_, err := OptimizeImage([]byte("not an image"), 50)
	assert.Error(t, err)
}
