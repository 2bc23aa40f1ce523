package signature

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for DecodeConfig
	_ "image/png"
	"log/slog"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// Geometry is the fixed size of an embedded signature and its vertical
// offset from the anchor's bottom edge.
type Geometry struct {
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	VerticalAdjustment float64 `json:"vertical_adjustment"`
}

// DefaultGeometry returns a 150x50 box with no adjustment
func DefaultGeometry() Geometry {
	return Geometry{Width: 150, Height: 50}
}

// Placement is the rectangle a signature image is fitted into
type Placement struct {
	PageIndex int    `json:"page_index"`
	Phrase    string `json:"phrase"`
	Rect      Rect   `json:"rect"`
}

// PlacementFor centres a Width x Height box vertically on the anchor's
// bottom edge, left-aligned with the anchor.
func PlacementFor(m AnchorMatch, g Geometry) Placement {
	top := m.Box.Y1 - g.Height/2 + g.VerticalAdjustment
	return Placement{
		PageIndex: m.PageIndex,
		Phrase:    m.Phrase,
		Rect: Rect{
			X0: m.Box.X0,
			Y0: top,
			X1: m.Box.X0 + g.Width,
			Y1: top + g.Height,
		},
	}
}

// Placer stamps a signature image at each placement and saves the result
type Placer struct {
	geometry Geometry
	logger   *slog.Logger
}

// NewPlacer creates a placer. Non-positive dimensions fall back to the
// defaults.
func NewPlacer(g Geometry, logger *slog.Logger) *Placer {
	def := DefaultGeometry()
	if g.Width <= 0 {
		g.Width = def.Width
	}
	if g.Height <= 0 {
		g.Height = def.Height
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Placer{geometry: g, logger: logger}
}

// Geometry returns the placer's effective geometry
func (p *Placer) Geometry() Geometry {
	return p.geometry
}

// Place embeds imagePath at every match and writes the document to
// outPath once, after all stamps are applied. With no matches the document
// is written unchanged. It returns the placements made.
func (p *Placer) Place(inPath, outPath, imagePath string, matches []AnchorMatch) ([]Placement, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	placements := make([]Placement, 0, len(matches))
	if len(matches) > 0 {
		stamps, err := p.buildStamps(ctx, imagePath, matches, &placements)
		if err != nil {
			return nil, err
		}
		if err := pdfcpu.AddWatermarksSliceMap(ctx, stamps); err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeImageEmbed, "failed to stamp signature image", err).
				WithFile(inPath)
		}
	}

	// output failures are returned as-is
	if err := api.WriteContextFile(ctx, outPath); err != nil {
		return nil, err
	}

	p.logger.Debug("signature.place.saved", "output", outPath, "placements", len(placements))
	return placements, nil
}

func (p *Placer) buildStamps(ctx *model.Context, imagePath string, matches []AnchorMatch, placements *[]Placement) (map[int][]*model.Watermark, error) {
	iw, ih, err := imageSize(imagePath)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeImageEmbed, "failed to read signature image", err).
			WithContext(imagePath)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	stamps := make(map[int][]*model.Watermark)
	for _, m := range matches {
		pageNr := m.PageIndex + 1
		if m.PageIndex < 0 || m.PageIndex >= len(dims) {
			return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeImageEmbed, "anchor page out of range").
				WithPage(pageNr)
		}

		placement := PlacementFor(m, p.geometry)
		wm, err := stampFor(imagePath, placement.Rect, iw, ih, dims[m.PageIndex].Height)
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeImageEmbed, "failed to prepare signature stamp", err).
				WithPage(pageNr)
		}

		stamps[pageNr] = append(stamps[pageNr], wm)
		*placements = append(*placements, placement)
		p.logger.Debug("signature.place.stamp", "page", pageNr, "phrase", m.Phrase,
			"x0", placement.Rect.X0, "y0", placement.Rect.Y0)
	}
	return stamps, nil
}

// stampFor fits the image inside r keeping its aspect ratio, centres it and
// converts the position to pdfcpu's bottom-left origin.
func stampFor(imagePath string, r Rect, iw, ih, pageHeight float64) (*model.Watermark, error) {
	scale := math.Min(r.Width()/iw, r.Height()/ih)
	w, h := iw*scale, ih*scale
	left := r.X0 + (r.Width()-w)/2
	top := r.Y0 + (r.Height()-h)/2

	desc := fmt.Sprintf("scale:%.6f abs, pos:bl, rot:0, op:1", scale)
	wm, err := pdfcpu.ParseImageWatermarkDetails(imagePath, desc, true, types.POINTS)
	if err != nil {
		return nil, err
	}
	wm.Dx = left
	wm.Dy = pageHeight - (top + h)
	return wm, nil
}

func imageSize(path string) (float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("unsupported image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, errors.New("image has no pixels")
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}
