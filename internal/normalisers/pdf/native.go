package pdf

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure NativeLoader implements the interface.
var _ driven.DocumentLoader = (*NativeLoader)(nil)

// NativeLoader reads PDFs in-process. It needs no external tools but copes
// less well with complex layouts than pdftotext.
type NativeLoader struct{}

// NewNative creates the pure Go loader.
func NewNative() *NativeLoader {
	return &NativeLoader{}
}

// Name returns the loader name.
func (l *NativeLoader) Name() string {
	return "native"
}

// Load extracts the pages of the PDF at path. Malformed files that make the
// parser panic are reported as errors.
func (l *NativeLoader) Load(ctx context.Context, path string) (docs []domain.Document, err error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("read %s: malformed pdf: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	docs = make([]domain.Document, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read %s page %d: %w", path, i, err)
		}
		docs = append(docs, domain.Document{
			Source:  path,
			Page:    i - 1,
			Content: text,
		})
	}

	logger.Debug("native pdf: %s -> %d pages", path, len(docs))
	return docs, nil
}
