// Package pdftest writes small hand-built PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Build serializes objects as a classic-xref PDF. objects[i] becomes object
// number i+1; object 1 must be the document catalog.
func Build(objects ...string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.7\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

// Catalog returns a catalog object with an optional extra entry, e.g.
// "/AcroForm 4 0 R". Pages are expected at object 2.
func Catalog(extra string) string {
	return fmt.Sprintf("<< /Type /Catalog /Pages 2 0 R %s >>", extra)
}

// SinglePage returns the page tree (object 2) and one letter-size page
// (object 3) with optional extra page entries.
func SinglePage(extra string) (pages, page string) {
	pages = "<< /Type /Pages /Kids [3 0 R] /Count 1 >>"
	page = "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> " + extra + " >>"
	return pages, page
}

// Stream returns a stream object holding content
func Stream(content string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
}

// TextLine is a single line of Helvetica text placed at X, Y (PDF space)
type TextLine struct {
	X, Y float64
	Size float64
	Text string
}

// GlyphWidth is the advance of every character of the test font in
// thousandths of the font size.
const GlyphWidth = 500

// TextDocument builds a one-page letter-size document with the given text
// lines. Every glyph of the embedded metrics is GlyphWidth wide.
func TextDocument(lines ...TextLine) []byte {
	return TextPages(lines)
}

// TextPages builds a letter-size document with one page per entry of pages.
// All pages share the GlyphWidth test font.
func TextPages(pages ...[]TextLine) []byte {
	widths := strings.TrimSpace(strings.Repeat(fmt.Sprintf("%d ", GlyphWidth), 126-32+1))
	font := fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding "+
		"/FirstChar 32 /LastChar 126 /Widths [%s] >>", widths)

	kids := make([]string, len(pages))
	objects := make([]string, 0, 3+2*len(pages))
	objects = append(objects, Catalog(""), "", font)
	for i, lines := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i
		kids[i] = fmt.Sprintf("%d 0 R", pageObj)

		var content strings.Builder
		for _, l := range lines {
			fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", l.Size, l.X, l.Y, escape(l.Text))
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentObj),
			Stream(content.String()),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))
	return Build(objects...)
}

// FormXObject returns a form XObject stream with the given bounding box,
// e.g. "0 0 200 20", usable as a widget appearance.
func FormXObject(bbox, content string) string {
	return fmt.Sprintf("<< /Type /XObject /Subtype /Form /BBox [%s] /Length %d >>\nstream\n%s\nendstream",
		bbox, len(content), content)
}

// Helvetica is a standard 14 font dictionary
const Helvetica = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

// TextFieldForm builds a one-page form with a single empty text field
// named name whose widget sits at [100 600 300 620]. The AcroForm carries
// a default appearance and a Helvetica resource, so it can be filled.
func TextFieldForm(name string) []byte {
	pages, page := SinglePage("/Annots [5 0 R]")
	return Build(
		Catalog("/AcroForm 4 0 R"),
		pages,
		page,
		"<< /Fields [5 0 R] /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv 6 0 R >> >> >>",
		fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Rect [100 600 300 620] /P 3 0 R /F 4 "+
			"/DA (/Helv 12 Tf 0 g) >>", escape(name)),
		Helvetica,
	)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// WriteFile writes data into a temp dir owned by t and returns the path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WritePNG writes a solid w x h PNG and returns its path.
func WritePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return WriteFile(t, "signature.png", buf.Bytes())
}
