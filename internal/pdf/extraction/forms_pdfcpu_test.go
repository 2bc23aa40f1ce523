package extraction

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/pdftest"
)

func formPDF(acroForm string, fields ...string) []byte {
	pages, page := pdftest.SinglePage("")
	objects := []string{pdftest.Catalog("/AcroForm 4 0 R"), pages, page, acroForm}
	return pdftest.Build(append(objects, fields...)...)
}

func TestExtractor_NoAcroForm(t *testing.T) {
	pages, page := pdftest.SinglePage("")
	data := pdftest.Build(pdftest.Catalog(""), pages, page)

	_, err := NewExtractor(nil).ExtractFieldsFromReader(bytes.NewReader(data))

	require.Error(t, err)
	assert.True(t, errors.Is(err, pdferrors.ErrNoForm))
	assert.Equal(t, pdferrors.ErrorTypeNoForm, pdferrors.TypeOf(err))
}

func TestExtractor_NoFields(t *testing.T) {
	tests := []struct {
		name     string
		acroForm string
	}{
		{"missing Fields entry", "<< /DA (/Helv 0 Tf 0 g) >>"},
		{"empty Fields array", "<< /Fields [] >>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(nil).ExtractFieldsFromReader(bytes.NewReader(formPDF(tt.acroForm)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, pdferrors.ErrNoFields))
			assert.False(t, errors.Is(err, pdferrors.ErrNoForm))
		})
	}
}

func TestExtractor_HierarchicalFields(t *testing.T) {
	data := formPDF(
		"<< /Fields [5 0 R 8 0 R] >>",
		"<< /T (applicant) /Kids [6 0 R 7 0 R] >>",
		"<< /T (first) /FT /Tx /MaxLen 20 /DV (Jane) /Ff 2 /Parent 5 0 R >>",
		"<< /T (last) /FT /Tx /Ff 0 /Parent 5 0 R >>",
		"<< /T (country) /FT /Ch /Opt [(US) [(CA) (Canada)]] /Ff 4096 >>",
	)

	fields, err := NewExtractor(nil).ExtractFieldsFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	want := []FieldDescriptor{
		{Name: Ptr("applicant")},
		{
			Name:         Ptr("first"),
			Type:         Ptr("Tx"),
			MaxLength:    Ptr(20),
			DefaultValue: Ptr("Jane"),
			Flags:        &FieldFlagSet{FlagRequired},
		},
		{Name: Ptr("last"), Type: Ptr("Tx"), Flags: &FieldFlagSet{}},
		{
			Name:    Ptr("country"),
			Type:    Ptr("Ch"),
			Flags:   &FieldFlagSet{FlagPassword},
			Options: &[]string{"US", "Canada"},
		},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("extracted fields mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractor_LegacyQuirk(t *testing.T) {
	data := formPDF(
		"<< /Fields [5 0 R] >>",
		"<< /T (agree) /FT /Btn /Ff 0 >>",
	)

	fields, err := NewExtractor(nil, WithLegacyFlagQuirk()).ExtractFieldsFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Nil(t, fields[0].Flags)
}

func TestExtractor_FromFileAnnotatesPath(t *testing.T) {
	pages, page := pdftest.SinglePage("")
	path := pdftest.WriteFile(t, "plain.pdf", pdftest.Build(pdftest.Catalog(""), pages, page))

	_, err := NewExtractor(nil).ExtractFieldsFromFile(path)

	var pe *pdferrors.PDFError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.FilePath)
}

func TestExtractor_MissingFile(t *testing.T) {
	_, err := NewExtractor(nil).ExtractFieldsFromFile("/nonexistent/form.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open PDF file")
}
