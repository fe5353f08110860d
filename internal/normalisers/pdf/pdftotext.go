package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

const pdfToolName = "pdftotext"

// pageBreak separates pages in pdftotext output.
const pageBreak = "\f"

// ErrPDFToolNotFound is returned when pdftotext is not on PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CheckAvailable reports whether pdftotext can be executed.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdfToolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to get pdftotext.
func InstallInstructions() string {
	return `pdftotext is provided by poppler:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils
Alternatively set loader.kind = "native" to use the built-in reader.`
}

// Loader extracts text with pdftotext, one document per page.
type Loader struct {
	runner CommandRunner
}

// NewPDFToText creates a loader that runs the pdftotext binary.
func NewPDFToText() *Loader {
	return &Loader{runner: execRunner{}}
}

// NewWithRunner creates a loader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Loader {
	return &Loader{runner: runner}
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return pdfToolName
}

// Load extracts the pages of the PDF at path.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	out, err := l.runner.Run(ctx, pdfToolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("pdftotext failed on %s: %s", path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("pdftotext failed on %s: %w", path, err)
	}

	docs := splitPages(path, string(out))
	logger.Debug("pdftotext: %s -> %d pages", path, len(docs))
	return docs, nil
}

// splitPages turns form-feed separated output into page documents.
// pdftotext terminates every page, including the last, with a form feed.
func splitPages(path, text string) []domain.Document {
	pages := strings.Split(text, pageBreak)
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}

	docs := make([]domain.Document, 0, len(pages))
	for i, p := range pages {
		docs = append(docs, domain.Document{
			Source:  path,
			Page:    i,
			Content: strings.TrimRight(p, " \n\r\t"),
		})
	}
	return docs
}
