package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// FieldValuesSchema describes a generated value map: a JSON object whose
// values are scalars.
func FieldValuesSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type": []string{"string", "number", "integer", "boolean", "null"},
		},
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ParseFieldValues strips code fences from a model reply and decodes it as
// a field value map. Anything that is not a JSON object of scalars is a
// MalformedResponse error carrying the reply.
func ParseFieldValues(content string) (map[string]any, error) {
	cleaned := StripCodeFences(content)

	if err := ValidateJSONAgainstSchema(FieldValuesSchema(), []byte(cleaned)); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeMalformedResponse,
			"model reply is not a JSON object of field values", err).
			WithResponse(0, content)
	}

	var values map[string]any
	if err := json.Unmarshal([]byte(cleaned), &values); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeMalformedResponse,
			"failed to decode field values", err).
			WithResponse(0, content)
	}
	return values, nil
}
