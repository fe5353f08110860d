package pdf

import (
	"fmt"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// New returns the loader for kind. Auto prefers pdftotext and falls back to
// the native reader when the binary is missing.
func New(kind domain.LoaderKind) (driven.DocumentLoader, error) {
	return newWithCheck(kind, CheckAvailable)
}

func newWithCheck(kind domain.LoaderKind, check func() error) (driven.DocumentLoader, error) {
	switch kind {
	case domain.LoaderPDFToText:
		if err := check(); err != nil {
			return nil, fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
		return NewPDFToText(), nil
	case domain.LoaderNative:
		return NewNative(), nil
	case domain.LoaderAuto, "":
		if err := check(); err != nil {
			logger.Debug("pdftotext unavailable, using native PDF reader")
			return NewNative(), nil
		}
		return NewPDFToText(), nil
	default:
		return nil, fmt.Errorf("%w: unknown loader %q", domain.ErrInvalidInput, kind)
	}
}
