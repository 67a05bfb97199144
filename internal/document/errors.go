package document

import (
	"errors"
	"fmt"
)

var (
	// ErrMetadataUnavailable means the document carries no readable info
	// dictionary. Callers show "N/A" instead.
	ErrMetadataUnavailable = errors.New("metadata unavailable")

	// ErrNoImages means an archive held no displayable images.
	ErrNoImages = errors.New("No images found in the archive.")

	// ErrPageRange is returned for page numbers outside [1, NumPages].
	ErrPageRange = errors.New("page out of range")
)

// LoadError reports a document that could not be opened.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ArchiveError reports a comic archive that could not be extracted.
type ArchiveError struct {
	Source string
	Err    error
}

func (e *ArchiveError) Error() string {
	if errors.Is(e.Err, ErrNoImages) {
		return ErrNoImages.Error()
	}
	return fmt.Sprintf("failed to extract %s: %v", e.Source, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// ExportError reports a page that failed during export.
type ExportError struct {
	Page int
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to export page %d: %v", e.Page, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
