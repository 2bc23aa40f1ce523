package signature

import (
	"context"
	"fmt"
	"log/slog"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// SignResult summarizes one signing pass
type SignResult struct {
	OutputPath  string        `json:"output_path"`
	Matches     []AnchorMatch `json:"matches"`
	Placements  []Placement   `json:"placements"`
	PagesSigned int           `json:"pages_signed"`
}

// Signer locates anchors and stamps the signature image at each one
type Signer struct {
	locator *Locator
	placer  *Placer
	image   string
	logger  *slog.Logger
}

// NewSigner creates a signer embedding imagePath
func NewSigner(locator *Locator, placer *Placer, imagePath string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{locator: locator, placer: placer, image: imagePath, logger: logger}
}

// Sign writes a signed copy of inPath to outPath. A document without any
// anchor is copied unchanged.
func (s *Signer) Sign(ctx context.Context, inPath, outPath string) (*SignResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := s.locator.LocateFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to locate signature anchors: %w", err)
	}

	if len(matches) > 0 && s.image == "" {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "signature image is not configured").
			WithFile(inPath)
	}

	placements, err := s.placer.Place(inPath, outPath, s.image, matches)
	if err != nil {
		return nil, err
	}

	pages := make(map[int]bool)
	for _, m := range matches {
		pages[m.PageIndex] = true
	}

	s.logger.Info("signature.sign.complete", "input", inPath, "output", outPath,
		"matches", len(matches), "pages", len(pages))

	return &SignResult{
		OutputPath:  outPath,
		Matches:     matches,
		Placements:  placements,
		PagesSigned: len(pages),
	}, nil
}
