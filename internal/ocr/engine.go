// Package ocr recognizes words on image pages so that scanned and comic
// pages get a text overlay for snapping highlights.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"pdf-annotator/internal/raster"
	"pdf-annotator/pkg/geometry"
)

// minHeight is the height small images are upscaled to before recognition.
const minHeight = 150

// Word is one recognized word with its box in source image pixels.
type Word struct {
	Text       string
	Box        geometry.Rect
	Confidence float64
}

// Engine wraps a Tesseract client. A client is not safe for concurrent use,
// so recognition is serialized.
type Engine struct {
	mu            sync.Mutex
	client        *gosseract.Client
	minConfidence float64
}

// NewEngine creates an engine for the given Tesseract language, e.g. "eng".
func NewEngine(language string) (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	return &Engine{client: client, minConfidence: 30}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Words finds the words of img. Boxes are in img pixel coordinates with the
// origin at img.Bounds().Min.
func (e *Engine) Words(ctx context.Context, img image.Image) ([]Word, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("empty image")
	}

	mat := raster.ToMat(img)
	defer mat.Close()
	processed, scale := preprocess(mat)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}
	return collectWords(boxes, scale, e.minConfidence), nil
}

func collectWords(boxes []gosseract.BoundingBox, scale, minConfidence float64) []Word {
	var words []Word
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" || box.Confidence < minConfidence {
			continue
		}
		words = append(words, Word{
			Text: text,
			Box: geometry.NewRect(
				float64(box.Box.Min.X)/scale,
				float64(box.Box.Min.Y)/scale,
				float64(box.Box.Dx())/scale,
				float64(box.Box.Dy())/scale,
			),
			Confidence: box.Confidence,
		})
	}
	return words
}

// preprocess prepares a BGR page for recognition and returns the scale
// applied to it.
func preprocess(src gocv.Mat) (gocv.Mat, float64) {
	scale := 1.0
	scaled := gocv.NewMat()
	if h := src.Rows(); h < minHeight {
		scale = float64(minHeight) / float64(h)
		gocv.Resize(src, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		src.CopyTo(&scaled)
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)
	scaled.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()
	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	enhanced.Close()

	// Tesseract wants dark text on a light background.
	if white := gocv.CountNonZero(binary); float64(white) < 0.5*float64(binary.Rows()*binary.Cols()) {
		gocv.BitwiseNot(binary, &binary)
	}
	return binary, scale
}
