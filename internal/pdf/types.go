package pdf

import (
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/fill"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/signature"
)

// Output file name prefixes
const (
	FilledPrefix = "filled_"
	SignedPrefix = "signed_"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// ExtractFieldsRequest represents a request to list a form's fields
type ExtractFieldsRequest struct {
	Path string `json:"path"`
}

// AutofillRequest represents a request to fill and flatten a form.
// OutputPath defaults to filled_<name> in the output directory.
type AutofillRequest struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path,omitempty"`
	Context    string `json:"context,omitempty"`
}

// SignRequest represents a request to stamp the signature image.
// OutputPath defaults to signed_<name> in the output directory.
type SignRequest struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path,omitempty"`
}

// ProcessRequest represents a fill-then-sign run for one document
type ProcessRequest struct {
	Path    string `json:"path"`
	Context string `json:"context,omitempty"`
}

// ProcessDirectoryRequest represents a fill-then-sign run for every PDF
// in a directory
type ProcessDirectoryRequest struct {
	Directory string `json:"directory,omitempty"`
	Context   string `json:"context,omitempty"`
}

// Response Types

// ExtractFieldsResult lists the descriptors of a form in pre-order
type ExtractFieldsResult struct {
	Path   string                       `json:"path"`
	Fields []extraction.FieldDescriptor `json:"fields"`
	Count  int                          `json:"count"`
}

// AutofillResult represents a filled and flattened document
type AutofillResult struct {
	Path       string         `json:"path"`
	OutputPath string         `json:"output_path"`
	FieldCount int            `json:"field_count"`
	Values     map[string]any `json:"values"`
	Filled     []string       `json:"filled"`
	Unmatched  []string       `json:"unmatched,omitempty"`
	Skipped    []string       `json:"skipped,omitempty"`
}

// SignResult represents a signed document
type SignResult struct {
	Path        string                  `json:"path"`
	OutputPath  string                  `json:"output_path"`
	Anchors     []signature.AnchorMatch `json:"anchors"`
	Placements  []signature.Placement   `json:"placements"`
	PagesSigned int                     `json:"pages_signed"`
}

// ProcessResult represents one document taken through the pipeline
type ProcessResult struct {
	Path       string          `json:"path"`
	FilledPath string          `json:"filled_path"`
	SignedPath string          `json:"signed_path"`
	Autofill   *AutofillResult `json:"autofill"`
	Sign       *SignResult     `json:"sign"`
}

// ProcessDirectoryResult lists the documents processed before completion
// or the first failure
type ProcessDirectoryResult struct {
	Directory string          `json:"directory"`
	Found     int             `json:"found"`
	Processed []ProcessResult `json:"processed"`
}

func newAutofillResult(path, out string, fieldCount int, values map[string]any, r *fill.Result) *AutofillResult {
	return &AutofillResult{
		Path:       path,
		OutputPath: out,
		FieldCount: fieldCount,
		Values:     values,
		Filled:     r.Filled,
		Unmatched:  r.Unmatched,
		Skipped:    r.Skipped,
	}
}
