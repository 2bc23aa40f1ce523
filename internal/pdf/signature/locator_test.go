package signature

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/pdftest"
)

// glyphs lays s out as one glyph per character, 6pt apart, dropping spaces
// the way the text decoder does.
func glyphs(s string, x, y, size float64) []pdf.Text {
	var out []pdf.Text
	advance := size * pdftest.GlyphWidth / 1000
	for _, ch := range s {
		if ch != ' ' {
			out = append(out, pdf.Text{Font: "Helvetica", FontSize: size, X: x, Y: y, W: advance, S: string(ch)})
		}
		x += advance
	}
	return out
}

func TestFindInPage_SingleOccurrence(t *testing.T) {
	l := NewLocator(nil, nil)

	matches := l.FindInPage(0, 792, glyphs("Please Sign Here", 72, 700, 12))

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "Sign Here", m.Phrase)
	assert.Equal(t, 0, m.PageIndex)
	assert.InDelta(t, 114, m.Box.X0, 0.001)
	assert.InDelta(t, 168, m.Box.X1, 0.001)
	assert.InDelta(t, 80, m.Box.Y0, 0.001)
	assert.InDelta(t, 92, m.Box.Y1, 0.001)
}

func TestFindInPage_NoAnchors(t *testing.T) {
	l := NewLocator(nil, nil)
	assert.Empty(t, l.FindInPage(0, 792, glyphs("Terms and conditions", 72, 700, 12)))
	assert.Empty(t, l.FindInPage(0, 792, nil))
}

func TestFindInPage_CaseSensitive(t *testing.T) {
	l := NewLocator(nil, nil)
	assert.Empty(t, l.FindInPage(0, 792, glyphs("SIGNATURE sign here", 72, 700, 12)))
}

func TestFindInPage_Ordering(t *testing.T) {
	l := NewLocator(nil, nil)

	var texts []pdf.Text
	// listed bottom line first to check that layout order wins
	texts = append(texts, glyphs("Sign Here", 72, 100, 12)...)
	texts = append(texts, glyphs("Signature Signature", 72, 600, 12)...)
	texts = append(texts, glyphs("Authorized Signatory", 72, 300, 12)...)
	texts = append(texts, glyphs("Sign Here", 300, 600, 12)...)

	matches := l.FindInPage(2, 792, texts)

	var got []string
	for _, m := range matches {
		got = append(got, m.Phrase)
		assert.Equal(t, 2, m.PageIndex)
	}
	assert.Equal(t, []string{
		"Signature", "Signature",
		"Sign Here", "Sign Here",
		"Authorized Signatory",
	}, got)

	// occurrences of one phrase: top to bottom, then left to right
	assert.Less(t, matches[0].Box.X0, matches[1].Box.X0)
	assert.Less(t, matches[2].Box.Y0, matches[3].Box.Y0)
}

func TestFindInPage_CustomPhrases(t *testing.T) {
	l := NewLocator([]string{"Firma", ""}, nil)
	assert.Equal(t, []string{"Firma"}, l.Phrases())

	matches := l.FindInPage(0, 792, glyphs("Firma del cliente", 50, 500, 10))
	require.Len(t, matches, 1)
	assert.InDelta(t, 50, matches[0].Box.X0, 0.001)
}

func TestFindInPage_UnsortedGlyphsOnOneLine(t *testing.T) {
	l := NewLocator(nil, nil)
	texts := glyphs("Signature", 72, 700, 12)
	// reverse the run; reading order comes from X
	for i, j := 0, len(texts)-1; i < j; i, j = i+1, j-1 {
		texts[i], texts[j] = texts[j], texts[i]
	}
	require.Len(t, l.FindInPage(0, 792, texts), 1)
}

func TestLocateFile(t *testing.T) {
	path := pdftest.WriteFile(t, "contract.pdf", pdftest.TextDocument(
		pdftest.TextLine{X: 72, Y: 700, Size: 12, Text: "Agreement"},
		pdftest.TextLine{X: 72, Y: 200, Size: 12, Text: "Please Sign Here"},
	))

	matches, err := NewLocator(nil, nil).LocateFile(path)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Sign Here", matches[0].Phrase)
	assert.InDelta(t, 114, matches[0].Box.X0, 0.5)
	assert.InDelta(t, 792-200, matches[0].Box.Y1, 0.5)
}

func TestLocateFile_MissingFile(t *testing.T) {
	_, err := NewLocator(nil, nil).LocateFile("/nonexistent/contract.pdf")
	assert.Error(t, err)
}
