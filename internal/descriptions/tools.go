package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Form Tools
	PDFExtractFieldsDescription = `List the interactive form fields of a PDF as JSON descriptors.

**When to use:** Before filling a form, to see which fields exist and what they accept.

**Why it's useful:** Flattens the field hierarchy in document order and reports name, type, max length, default value, decoded flags and choice options for every field.

**Examples:**
• Inspect an application: "List the fields of rental-application.pdf"
• Check constraints: "Which fields in tax-form.pdf are Required or have a MaxLen?"

**Common workflows:**
1. Manual filling: pdf_extract_fields → decide values → pdf_autofill with context
2. Debugging: pdf_extract_fields → compare with filled output → adjust context

**Best practices:** Fields with kids are listed before their children; absent attributes are omitted rather than null.`

	PDFAutofillDescription = `Fill a PDF form with generated values and flatten it.

**When to use:** A form needs to be completed from free-text information about the applicant.

**Why it's useful:** Extracts the field descriptors, asks the language model for one value per field, writes the values into the form and flattens it so the result is no longer editable.

**Examples:**
• Fill from notes: "Fill lease.pdf using: Jane Doe, 12 Oak St, moving in March 1st"
• Placeholder fill: "Fill survey.pdf with plausible values" (no context)

**Common workflows:**
1. Fill only: pdf_autofill → review filled_<name>.pdf
2. Fill then sign: pdf_autofill → pdf_sign on the filled output (or use pdf_process)

**Best practices:** Give as much context as you have; values the model invents are not checked for correctness. Output defaults to filled_<name>.pdf in the output directory.`

	PDFSignDescription = `Stamp the signature image next to every signature anchor in a PDF.

**When to use:** A document has lines such as "Signature" or "Please Sign Here" that need a signature.

**Why it's useful:** Finds every occurrence of the configured anchor phrases on every page and places the signature image in a fixed-size box starting at the phrase.

**Examples:**
• Sign a contract: "Sign filled_contract.pdf"
• Check anchors: "Sign offer.pdf and tell me which pages were signed"

**Common workflows:**
1. After filling: pdf_autofill → pdf_sign
2. Standalone: pdf_sign on a document that is already complete

**Best practices:** Pages without any anchor are reported and left unchanged. Output defaults to signed_<name>.pdf in the output directory.`

	PDFProcessDescription = `Fill and sign one PDF in a single step.

**When to use:** The complete pipeline should run for one document.

**Why it's useful:** Produces filled_<name>.pdf and signed_filled_<name>.pdf in the output directory with one call.

**Examples:**
• One-shot: "Process application.pdf with context: John Smith, born 1980-02-03"

**Common workflows:**
1. pdf_process → deliver signed_filled_<name>.pdf

**Best practices:** Use pdf_extract_fields first if you want to tailor the context to the form.`

	PDFProcessDirectoryDescription = `Fill and sign every PDF in a directory.

**When to use:** A folder of downloaded forms should all be completed with the same context.

**Why it's useful:** Runs pdf_process for each input PDF in name order, skipping files earlier runs produced.

**Examples:**
• Batch: "Process all forms in the downloads directory using my profile text"

**Common workflows:**
1. Drop forms in the input directory → pdf_process_directory → collect signed_filled_* files

**Best practices:** The run stops at the first failing document; the result lists the documents completed before it.`

	// Utility Tools
	PDFServerInfoDescription = `Get server status, configuration and the documents waiting to be processed.

**When to use:** Starting work with the server, or checking why a tool cannot find files.

**Why it's useful:** Shows the input and output directories, size limits, signature settings, whether value generation is available, and the available tools.

**Examples:**
• System check: "Is the server ready to autofill forms?"
• Troubleshooting: "Which directory is the server reading forms from?"

**Common workflows:**
1. Session startup: pdf_server_info → pick a document → pdf_process

**Best practices:** Run at the start of a session.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_extract_fields":    PDFExtractFieldsDescription,
	"pdf_autofill":          PDFAutofillDescription,
	"pdf_sign":              PDFSignDescription,
	"pdf_process":           PDFProcessDescription,
	"pdf_process_directory": PDFProcessDirectoryDescription,
	"pdf_server_info":       PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
