package signature

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/pdftest"
)

func TestSigner_Sign(t *testing.T) {
	in := pdftest.WriteFile(t, "contract.pdf", pdftest.TextDocument(
		pdftest.TextLine{X: 72, Y: 200, Size: 12, Text: "Signature"},
	))
	out := filepath.Join(t.TempDir(), "signed.pdf")
	signer := NewSigner(NewLocator(nil, nil), NewPlacer(DefaultGeometry(), nil), pdftest.WritePNG(t, 30, 10), nil)

	result, err := signer.Sign(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, out, result.OutputPath)
	assert.Len(t, result.Matches, 1)
	assert.Len(t, result.Placements, 1)
	assert.Equal(t, 1, result.PagesSigned)
}

func TestSigner_MissingImageWithAnchors(t *testing.T) {
	in := pdftest.WriteFile(t, "contract.pdf", pdftest.TextDocument(
		pdftest.TextLine{X: 72, Y: 200, Size: 12, Text: "Signature"},
	))
	signer := NewSigner(NewLocator(nil, nil), NewPlacer(DefaultGeometry(), nil), "", nil)

	_, err := signer.Sign(context.Background(), in, filepath.Join(t.TempDir(), "o.pdf"))
	assert.True(t, errors.Is(err, pdferrors.ErrInvalidInput))
}

func TestSigner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	signer := NewSigner(NewLocator(nil, nil), NewPlacer(DefaultGeometry(), nil), "", nil)
	_, err := signer.Sign(ctx, "in.pdf", "out.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

// pageContent returns the decoded content of page pageNr (1-based)
func pageContent(t *testing.T, path string, pageNr int) string {
	t.Helper()
	ctx, err := api.ReadContextFile(path)
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())

	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	require.NoError(t, err)
	content, err := ctx.PageContent(pageDict, pageNr)
	require.NoError(t, err)
	return string(content)
}

func TestSigner_MultiPage(t *testing.T) {
	in := pdftest.WriteFile(t, "contract.pdf", pdftest.TextPages(
		[]pdftest.TextLine{
			{X: 72, Y: 700, Size: 12, Text: "Authorized Signatory"},
			{X: 72, Y: 300, Size: 12, Text: "Signature"},
		},
		[]pdftest.TextLine{
			{X: 72, Y: 700, Size: 12, Text: "Payment schedule"},
		},
		[]pdftest.TextLine{
			{X: 72, Y: 200, Size: 12, Text: "Please Sign Here"},
		},
	))
	out := filepath.Join(t.TempDir(), "signed.pdf")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	signer := NewSigner(NewLocator(nil, logger), NewPlacer(DefaultGeometry(), logger), pdftest.WritePNG(t, 30, 10), logger)

	result, err := signer.Sign(context.Background(), in, out)
	require.NoError(t, err)

	type hit struct {
		Page   int
		Phrase string
	}
	var got []hit
	for _, m := range result.Matches {
		got = append(got, hit{m.PageIndex, m.Phrase})
	}
	assert.Equal(t, []hit{
		{0, "Signature"},
		{0, "Authorized Signatory"},
		{2, "Sign Here"},
	}, got)
	assert.Len(t, result.Placements, 3)
	assert.Equal(t, 2, result.PagesSigned)

	assert.Contains(t, logs.String(), "msg=signature.page.no_anchor page=2")

	assert.Contains(t, pageContent(t, out, 1), "/Watermark")
	assert.NotContains(t, pageContent(t, out, 2), "/Watermark")
	assert.Contains(t, pageContent(t, out, 2), "Payment schedule")
	assert.Contains(t, pageContent(t, out, 3), "/Watermark")
}
