// Package archive extracts comic book archives (CBZ/ZIP and CBR/RAR) into an
// entry tree and picks out their page images.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/nwaples/rardecode"

	"pdf-annotator/internal/document"
)

// Format is an archive container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatRar
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar:
		return "rar"
	default:
		return "unknown"
	}
}

var (
	zipMagic = []byte("PK\x03\x04")
	rarMagic = []byte("Rar!\x1a\x07")

	imagePattern = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp)$`)
)

// ErrUnsupported is returned for data that is neither ZIP nor RAR.
var ErrUnsupported = errors.New("unsupported archive format")

// Node is a file or directory in an extracted archive.
type Node struct {
	Name     string
	IsFile   bool
	Data     []byte
	Children map[string]*Node
}

func newDir(name string) *Node {
	return &Node{Name: name, Children: make(map[string]*Node)}
}

// add places a file at the slash-separated path p, creating directories.
func (n *Node) add(p string, data []byte) {
	parts := strings.Split(strings.Trim(path.Clean("/"+filepath.ToSlash(p)), "/"), "/")
	dir := n
	for _, part := range parts[:len(parts)-1] {
		child, ok := dir.Children[part]
		if !ok || child.IsFile {
			child = newDir(part)
			dir.Children[part] = child
		}
		dir = child
	}
	leaf := parts[len(parts)-1]
	dir.Children[leaf] = &Node{Name: leaf, IsFile: true, Data: data}
}

// Detect sniffs the container format from the leading bytes.
func Detect(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatZip
	case bytes.HasPrefix(head, rarMagic):
		return FormatRar
	}
	return FormatUnknown
}

// IsComicPath reports whether name has a comic archive extension.
func IsComicPath(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cbz", ".cbr":
		return true
	}
	return false
}

// Open reads the archive at p. The format is sniffed from the content, so
// CBR files that are really ZIPs open too.
func Open(p string) (*Node, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &document.ArchiveError{Source: p, Err: err}
	}
	root, err := Read(filepath.Base(p), data)
	if err != nil {
		return nil, &document.ArchiveError{Source: p, Err: err}
	}
	return root, nil
}

// Read builds the entry tree of an in-memory archive.
func Read(name string, data []byte) (*Node, error) {
	switch Detect(data) {
	case FormatZip:
		return readZip(name, data)
	case FormatRar:
		return readRar(name, data)
	}
	return nil, ErrUnsupported
}

func readZip(name string, data []byte) (*Node, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	root := newDir(name)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		root.add(f.Name, body)
	}
	return root, nil
}

func readRar(name string, data []byte) (*Node, error) {
	rr, err := rardecode.NewReader(bytes.NewReader(data), "")
	if err != nil {
		return nil, fmt.Errorf("open rar: %w", err)
	}
	root := newDir(name)
	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return root, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read rar entry: %w", err)
		}
		if hdr.IsDir {
			continue
		}
		body, err := io.ReadAll(rr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		root.add(hdr.Name, body)
	}
}

// Entry is an image file found in the tree.
type Entry struct {
	FullPath string
	Data     []byte
}

// Images returns the image files under root in natural, case-insensitive
// order of their full paths. An archive without images is an error.
func Images(root *Node) ([]Entry, error) {
	var out []Entry
	var walk func(n *Node, prefix string)
	walk = func(n *Node, prefix string) {
		for name, child := range n.Children {
			full := name
			if prefix != "" {
				full = prefix + "/" + name
			}
			if child.IsFile {
				if imagePattern.MatchString(name) {
					out = append(out, Entry{FullPath: full, Data: child.Data})
				}
				continue
			}
			walk(child, full)
		}
	}
	walk(root, "")

	if len(out) == 0 {
		return nil, &document.ArchiveError{Source: root.Name, Err: document.ErrNoImages}
	}
	sort.Slice(out, func(i, j int) bool { return NaturalLess(out[i].FullPath, out[j].FullPath) })
	return out, nil
}

// Sources converts entries to document image sources.
func Sources(entries []Entry) []document.ImageSource {
	out := make([]document.ImageSource, len(entries))
	for i, e := range entries {
		out[i] = document.ImageSource{Name: e.FullPath, Data: e.Data}
	}
	return out
}
