// Package filesystem reads corpus documents off the local disk.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
)

var supportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadDirectory walks root recursively and returns one document per
// supported file. Unsupported extensions are skipped silently.
func (r *Reader) ReadDirectory(ctx context.Context, root string) ([]domain.Document, error) {
	var docs []domain.Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		doc, err := readFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", root, err)
	}
	return docs, nil
}

// ReadFiles loads the given paths without extension filtering. A
// missing file fails the whole call.
func (r *Reader) ReadFiles(ctx context.Context, paths []string) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := readFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func readFile(path string) (domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read file %s: %w", path, err)
	}
	return domain.Document{
		Text: string(raw),
		Metadata: domain.DocumentMetadata{
			FilePath: path,
			FileName: filepath.Base(path),
		},
	}, nil
}
