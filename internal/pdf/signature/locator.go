package signature

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// DefaultAnchorPhrases are searched in this priority order
var DefaultAnchorPhrases = []string{"Signature", "Sign Here", "Authorized Signatory"}

// Default page size (US Letter) used when pdfcpu cannot report dimensions
const (
	DefaultPageWidth  = 612.0
	DefaultPageHeight = 792.0
)

// Rect is an axis-aligned box in top-left page space: Y grows downward,
// Y0 is the top edge and Y1 the bottom edge.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width of the box
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height of the box
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

func (r Rect) union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// AnchorMatch is one literal occurrence of an anchor phrase
type AnchorMatch struct {
	PageIndex int    `json:"page_index"` // 0-based
	Phrase    string `json:"phrase"`
	Box       Rect   `json:"box"`
}

// Locator finds anchor phrases in the text layout of each page
type Locator struct {
	phrases []string
	logger  *slog.Logger
}

// NewLocator creates a locator for phrases. An empty list selects
// DefaultAnchorPhrases.
func NewLocator(phrases []string, logger *slog.Logger) *Locator {
	if len(phrases) == 0 {
		phrases = DefaultAnchorPhrases
	}
	if logger == nil {
		logger = slog.Default()
	}
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &Locator{phrases: cleaned, logger: logger}
}

// Phrases returns the phrases in search order
func (l *Locator) Phrases() []string {
	out := make([]string, len(l.phrases))
	copy(out, l.phrases)
	return out
}

// LocateFile searches every page of the document at path. Matches are
// ordered by page, then phrase, then position on the page.
func (l *Locator) LocateFile(path string) ([]AnchorMatch, error) {
	dims, err := api.PageDimsFile(path)
	if err != nil {
		l.logger.Debug("signature.page_dims.unavailable", "file", path, "error", err)
		dims = nil
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var matches []AnchorMatch
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		pageIndex := i - 1
		height := DefaultPageHeight
		if pageIndex < len(dims) && dims[pageIndex].Height > 0 {
			height = dims[pageIndex].Height
		}

		texts, err := pageTexts(reader, i)
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidInput, "failed to read page text", err).
				WithFile(path).WithPage(i)
		}

		found := l.FindInPage(pageIndex, height, texts)
		if len(found) == 0 {
			l.logger.Info("signature.page.no_anchor", "page", i)
			continue
		}
		l.logger.Debug("signature.page.anchors", "page", i, "matches", len(found))
		matches = append(matches, found...)
	}
	return matches, nil
}

// pageTexts returns the positioned glyph runs of page i (1-based). The
// text decoder panics on some malformed content streams.
func pageTexts(reader *pdf.Reader, i int) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content stream could not be decoded: %v", r)
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return nil, nil
	}
	return page.Content().Text, nil
}

// FindInPage runs the phrase search over one page's glyph runs. Glyph
// coordinates are PDF user space (bottom-left origin); the returned boxes
// are in top-left space for a page of the given height.
func (l *Locator) FindInPage(pageIndex int, pageHeight float64, texts []pdf.Text) []AnchorMatch {
	lines := buildLines(texts)

	var matches []AnchorMatch
	for _, phrase := range l.phrases {
		for _, ln := range lines {
			for _, span := range ln.find(phrase) {
				matches = append(matches, AnchorMatch{
					PageIndex: pageIndex,
					Phrase:    phrase,
					Box:       ln.box(span[0], span[1], pageHeight),
				})
			}
		}
	}
	return matches
}

// line is a run of glyphs sharing a baseline, in reading order, with
// owner mapping each byte of text to the glyph that produced it (-1 for
// inferred word gaps).
type line struct {
	glyphs   []pdf.Text
	text     string
	owner    []int
	baseline float64
}

func (ln *line) find(phrase string) [][2]int {
	var spans [][2]int
	start := 0
	for {
		idx := strings.Index(ln.text[start:], phrase)
		if idx < 0 {
			return spans
		}
		begin := start + idx
		end := begin + len(phrase)
		spans = append(spans, [2]int{begin, end})
		start = end
	}
}

func (ln *line) box(begin, end int, pageHeight float64) Rect {
	var box Rect
	seen := false
	for i := begin; i < end; i++ {
		g := ln.owner[i]
		if g < 0 {
			continue
		}
		b := glyphBox(ln.glyphs[g], pageHeight)
		if !seen {
			box, seen = b, true
			continue
		}
		box = box.union(b)
	}
	return box
}

func glyphBox(t pdf.Text, pageHeight float64) Rect {
	size := t.FontSize
	if size <= 0 {
		size = 12
	}
	return Rect{
		X0: t.X,
		Y0: pageHeight - (t.Y + size),
		X1: t.X + t.W,
		Y1: pageHeight - t.Y,
	}
}

// buildLines groups glyph runs into lines ordered top to bottom, each line
// ordered left to right.
func buildLines(texts []pdf.Text) []*line {
	glyphs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			glyphs = append(glyphs, t)
		}
	}
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].Y > glyphs[j].Y
	})

	var lines []*line
	for _, g := range glyphs {
		if n := len(lines); n > 0 && sameLine(lines[n-1].baseline, g) {
			lines[n-1].glyphs = append(lines[n-1].glyphs, g)
			continue
		}
		lines = append(lines, &line{glyphs: []pdf.Text{g}, baseline: g.Y})
	}

	for _, ln := range lines {
		sort.SliceStable(ln.glyphs, func(i, j int) bool {
			return ln.glyphs[i].X < ln.glyphs[j].X
		})
		ln.assemble()
	}
	return lines
}

func sameLine(baseline float64, g pdf.Text) bool {
	tolerance := g.FontSize * 0.3
	if tolerance < 1 {
		tolerance = 1
	}
	return math.Abs(baseline-g.Y) <= tolerance
}

// assemble concatenates the glyphs, inserting a space where the horizontal
// gap between neighbours looks like a word break.
func (ln *line) assemble() {
	var b strings.Builder
	ln.owner = ln.owner[:0]
	for i, g := range ln.glyphs {
		if i > 0 {
			prev := ln.glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > wordGap(g) && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
				b.WriteByte(' ')
				ln.owner = append(ln.owner, -1)
			}
		}
		b.WriteString(g.S)
		for range len(g.S) {
			ln.owner = append(ln.owner, i)
		}
	}
	ln.text = b.String()
}

func wordGap(g pdf.Text) float64 {
	size := g.FontSize
	if size <= 0 {
		size = 12
	}
	return size * 0.2
}
