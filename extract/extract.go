// Package extract converts corpus files into plain text. Each supported
// format has one extractor; callers go through Text, which dispatches on the
// file extension.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the file types the sync pipeline picks up.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".pdf":      true,
	".docx":     true,
}

// Extractor turns one file into raw text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	pdf Extractor
}

// NewRegistry builds the default extractor set. The PDF extractor shells out
// to pdftotext; pass a custom runner for tests.
func NewRegistry(runner CommandRunner) *Registry {
	if runner == nil {
		runner = &execRunner{}
	}
	return &Registry{
		pdf: &pdfExtractor{runner: runner},
	}
}

// Text extracts the plain-text content of path.
func (r *Registry) Text(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	case ".docx":
		return extractDocx(path)
	case ".pdf":
		return r.pdf.Extract(ctx, path)
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}

// Supported reports whether path has an extractable extension.
func Supported(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}
