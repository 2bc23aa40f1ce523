package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// Validator checks that a path names a readable PDF within size limits
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile returns an InvalidInput error describing why filePath
// cannot be processed.
func (v *Validator) ValidateFile(filePath string) error {
	if err := v.validatePDFFile(filePath); err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidInput, "invalid input document", err).
			WithFile(filePath)
	}
	return nil
}

// validatePDFFile performs detailed validation on a PDF file
func (v *Validator) validatePDFFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return err
	}

	// Try to open the PDF to validate it's a valid PDF file
	f, _, err := pdf.Open(filePath)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	return v.validatePDFFile(filePath) == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
