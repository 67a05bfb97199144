// Package raster provides image decoding, page layers and compositing.
package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pdf-annotator/pkg/geometry"
)

const dataURLPrefix = "data:"

// Decode decodes an image in any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Load decodes the image at path.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// LoadSource decodes an image annotation source: a data URL or a file path.
func LoadSource(src string) (image.Image, error) {
	if !strings.HasPrefix(src, dataURLPrefix) {
		return Load(src)
	}
	data, err := decodeDataURL(src)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

func decodeDataURL(src string) ([]byte, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data url")
	}
	meta, payload := src[len(dataURLPrefix):comma], src[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data url: %w", err)
	}
	return data, nil
}

// PNGDataURL encodes img as a base64 PNG data URL, the form in which
// captured signatures and pasted images are stored on annotations.
func PNGDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return dataURLPrefix + "image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return file.Close()
}

// SizeOf returns the pixel size of img.
func SizeOf(img image.Image) geometry.Size {
	b := img.Bounds()
	return geometry.NewSize(float64(b.Dx()), float64(b.Dy()))
}

// Cache keeps decoded image annotation sources. Sources are immutable, so an
// entry never goes stale.
type Cache struct {
	mu     sync.Mutex
	images map[string]image.Image
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{images: make(map[string]image.Image)}
}

// Get returns the decoded image for src, decoding it on first use.
func (c *Cache) Get(src string) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.images[src]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := LoadSource(src)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.images[src] = img
	c.mu.Unlock()
	return img, nil
}

// Put stores an already decoded image under src.
func (c *Cache) Put(src string, img image.Image) {
	c.mu.Lock()
	c.images[src] = img
	c.mu.Unlock()
}
