package fill

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

const exportedForm = `{
  "header": {"source": "in.pdf"},
  "forms": [
    {
      "textfield": [
        {"pages": [1], "id": "10", "name": "applicant.first", "value": ""},
        {"pages": [1], "id": "11", "name": "Email", "value": ""}
      ],
      "checkbox": [
        {"pages": [1], "id": "12", "name": "Agree", "value": false}
      ],
      "radiobuttongroup": [
        {"pages": [1], "id": "13", "name": "Plan", "options": ["Basic", "Pro"], "value": ""}
      ],
      "combobox": [
        {"pages": [1], "id": "14", "name": "Country", "options": ["US", "CA"], "value": ""}
      ],
      "listbox": [
        {"pages": [1], "id": "15", "name": "Topics", "options": ["a", "b", "c"], "values": []}
      ]
    }
  ]
}`

func decodeForm(t *testing.T) map[string]any {
	t.Helper()
	var form map[string]any
	require.NoError(t, json.Unmarshal([]byte(exportedForm), &form))
	return form
}

func fieldByName(t *testing.T, form map[string]any, kind, name string) map[string]any {
	t.Helper()
	for _, g := range form["forms"].([]any) {
		for _, f := range g.(map[string]any)[kind].([]any) {
			field := f.(map[string]any)
			if field["name"] == name {
				return field
			}
		}
	}
	t.Fatalf("field %s/%s not found", kind, name)
	return nil
}

func TestApplyValues(t *testing.T) {
	form := decodeForm(t)

	result := ApplyValues(form, map[string]any{
		"first":   "Jane",
		"Email":   "jane@example.com",
		"Agree":   "Yes",
		"Plan":    "pro",
		"Country": "CA",
		"Topics":  "a, c",
		"Missing": "x",
	}, nil)

	assert.Equal(t, "Jane", fieldByName(t, form, "textfield", "applicant.first")["value"])
	assert.Equal(t, "jane@example.com", fieldByName(t, form, "textfield", "Email")["value"])
	assert.Equal(t, true, fieldByName(t, form, "checkbox", "Agree")["value"])
	assert.Equal(t, "Pro", fieldByName(t, form, "radiobuttongroup", "Plan")["value"])
	assert.Equal(t, "CA", fieldByName(t, form, "combobox", "Country")["value"])
	assert.Equal(t, []string{"a", "c"}, fieldByName(t, form, "listbox", "Topics")["values"])

	assert.Equal(t, []string{"Agree", "Country", "Email", "Plan", "Topics", "first"}, result.Filled)
	assert.Equal(t, []string{"Missing"}, result.Unmatched)
	assert.Empty(t, result.Skipped)
}

func TestApplyValues_MatchByID(t *testing.T) {
	form := decodeForm(t)
	result := ApplyValues(form, map[string]any{"11": "by-id@example.com"}, nil)

	assert.Equal(t, "by-id@example.com", fieldByName(t, form, "textfield", "Email")["value"])
	assert.Equal(t, []string{"11"}, result.Filled)
}

func TestApplyValues_SkipsNullAndInvalidOption(t *testing.T) {
	form := decodeForm(t)
	result := ApplyValues(form, map[string]any{
		"Email": nil,
		"Plan":  "Enterprise",
	}, nil)

	assert.Equal(t, "", fieldByName(t, form, "textfield", "Email")["value"])
	assert.Equal(t, "", fieldByName(t, form, "radiobuttongroup", "Plan")["value"])
	assert.Equal(t, []string{"Email", "Plan"}, result.Skipped)
	assert.Empty(t, result.Filled)
}

func TestSetValue_RejectedOptionNamesField(t *testing.T) {
	form := decodeForm(t)
	plan := fieldByName(t, form, "radiobuttongroup", "Plan")

	err := setValue("radiobuttongroup", plan, "Enterprise")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdferrors.ErrInvalidInput))

	var pe *pdferrors.PDFError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Plan", pe.FieldName)
	assert.Contains(t, err.Error(), "field=Plan")
	assert.Contains(t, err.Error(), `"Enterprise"`)
}

func TestApplyValues_ScalarsAreStringified(t *testing.T) {
	form := decodeForm(t)
	ApplyValues(form, map[string]any{"Email": float64(42), "first": true}, nil)

	assert.Equal(t, "42", fieldByName(t, form, "textfield", "Email")["value"])
	assert.Equal(t, "true", fieldByName(t, form, "textfield", "applicant.first")["value"])
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"yes", true},
		{"On", true},
		{"X", true},
		{"1", true},
		{"no", false},
		{"", false},
		{float64(1), true},
		{float64(0), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truthy(tt.in), "truthy(%v)", tt.in)
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "3.5", Stringify(3.5))
	assert.Equal(t, "abc", Stringify("abc"))
	assert.Equal(t, "false", Stringify(false))
	assert.Equal(t, "12", Stringify(json.Number("12")))
	assert.Equal(t, "", Stringify(nil))
}
