// Package knowledgebase stores uploaded source files in a local folder.
package knowledgebase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure Folder implements the interface.
var _ driven.KnowledgeBase = (*Folder)(nil)

// Folder is a flat directory of PDF files.
type Folder struct {
	dir string
	ext string
}

// NewFolder creates a knowledge base rooted at dir. The directory is
// created on demand.
func NewFolder(dir string) *Folder {
	return &Folder{dir: dir, ext: ".pdf"}
}

// Dir returns the folder location.
func (f *Folder) Dir() string {
	return f.dir
}

// List returns the sorted base names of PDF files directly inside the folder.
// A missing folder holds no files.
func (f *Folder) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, domain.Storage("list knowledge base", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if f.Accepts(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Accepts reports whether name has an ingestible extension and is not hidden.
func (f *Folder) Accepts(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), f.ext)
}

// Save writes r to name through a temporary file and renames it into place,
// so loaders never observe a partial upload.
func (f *Folder) Save(_ context.Context, name string, r io.Reader) error {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return domain.Validation(fmt.Sprintf("invalid file name %q", name))
	}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("create knowledge base: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, f.Path(name)); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}

	logger.Debug("Saved %s (%d bytes)", name, n)
	return nil
}

// Path returns the location of name inside the folder.
func (f *Folder) Path(name string) string {
	return filepath.Join(f.dir, name)
}
