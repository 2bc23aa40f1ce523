package llm

import "context"

// GenerateRequest carries the extracted field descriptors and optional
// free-text context about the document.
type GenerateRequest struct {
	FieldsJSON     []byte // indented JSON array of field descriptors
	AdditionalText string
	SourceFile     string // for logging only
}

// ValueGenerator produces a field name to scalar value mapping for a form.
// Implementations return *errors.PDFError values of the value-generation
// family on failure.
type ValueGenerator interface {
	GenerateValues(ctx context.Context, req GenerateRequest) (map[string]any, error)
}

// GeneratorFunc adapts a function to ValueGenerator
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (map[string]any, error)

// GenerateValues calls f
func (f GeneratorFunc) GenerateValues(ctx context.Context, req GenerateRequest) (map[string]any, error) {
	return f(ctx, req)
}
