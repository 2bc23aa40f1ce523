package extraction

import "encoding/json"

// FieldDescriptor describes one terminal or non-terminal form field.
// Nil pointers mean the attribute was absent on the source node and are
// omitted from the JSON export.
type FieldDescriptor struct {
	Name         *string       `json:"name,omitempty"`
	Type         *string       `json:"type,omitempty"`
	MaxLength    *int          `json:"max_length,omitempty"`
	DefaultValue *string       `json:"default_value,omitempty"`
	Flags        *FieldFlagSet `json:"field_flags,omitempty"`
	Options      *[]string     `json:"options,omitempty"`
}

// FieldName returns the name or "" when the field is unnamed
func (d FieldDescriptor) FieldName() string {
	if d.Name == nil {
		return ""
	}
	return *d.Name
}

// FieldNames returns the names of all named descriptors in order.
func FieldNames(fields []FieldDescriptor) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Name != nil {
			names = append(names, *f.Name)
		}
	}
	return names
}

// MarshalFields renders descriptors as the indented JSON array handed to the
// value generator. An empty list renders as [].
func MarshalFields(fields []FieldDescriptor) ([]byte, error) {
	if fields == nil {
		fields = []FieldDescriptor{}
	}
	return json.MarshalIndent(fields, "", "  ")
}
