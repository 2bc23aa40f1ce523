package llm

import (
	"strings"
)

const (
	promptWithContext = "You are provided with a list of PDF form fields with their names, types, and parameters in JSON format, " +
		"as well as additional text related to the PDF content. " +
		"Please generate a JSON object with data to populate each field appropriately based on the provided text. " +
		"If the text doesn't contain information for certain fields, make up reasonable data for them. " +
		"Do not leave any field empty and do not write N/A. " +
		"Ensure the keys in your JSON match the 'name' values from the provided data. " +
		"Consider parameters like maximum length, default values, and options when generating the data.\n\n" +
		"Please output only the JSON object without any code formatting, code fences, or additional text.\n\n"

	promptWithoutContext = "You are provided with a list of PDF form fields with their names, types, and parameters in JSON format. " +
		"Please generate a JSON object with sample data to populate each field appropriately based on its type and parameters. " +
		"Do not leave any field empty and do not write N/A. " +
		"Ensure the keys in your JSON match the 'name' values from the provided data. " +
		"Consider parameters like maximum length, default values, and options when generating the sample data.\n\n" +
		"Please output only the JSON object without any code formatting, code fences, or additional text.\n\n"
)

// BuildPrompt renders the single user message sent to the model. Blank
// additional text selects the variant without document context.
func BuildPrompt(req GenerateRequest) string {
	var b strings.Builder
	extra := strings.TrimSpace(req.AdditionalText)
	if extra != "" {
		b.WriteString(promptWithContext)
	} else {
		b.WriteString(promptWithoutContext)
	}
	b.WriteString("Field Data:\n")
	b.Write(req.FieldsJSON)
	if extra != "" {
		b.WriteString("\n\nAdditional Text:\n")
		b.WriteString(req.AdditionalText)
	}
	return b.String()
}
