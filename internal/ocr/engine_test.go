package ocr

import (
	"image"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"

	"pdf-annotator/pkg/geometry"
)

func TestCollectWordsScalesAndFilters(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(20, 40, 120, 80), Word: "Hello", Confidence: 91},
		{Box: image.Rect(130, 40, 200, 80), Word: "  ", Confidence: 95},
		{Box: image.Rect(210, 40, 260, 80), Word: "~", Confidence: 12},
	}
	words := collectWords(boxes, 2, 30)
	assert.Equal(t, []Word{{Text: "Hello", Box: geometry.NewRect(10, 20, 50, 20), Confidence: 91}}, words)
}

func TestCollectWordsEmpty(t *testing.T) {
	assert.Empty(t, collectWords(nil, 1, 30))
}
