// Package fill writes generated values into a form and flattens it.
//
// Values are applied through pdfcpu's JSON form description: the form is
// exported, matching fields are updated and the result is imported with
// FillFormFile. The filled form is then flattened: widget appearances are
// drawn into the page content and the AcroForm is removed.
package fill

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// Result reports which names of the value map were applied
type Result struct {
	OutputPath string   `json:"output_path"`
	Filled     []string `json:"filled"`
	Unmatched  []string `json:"unmatched,omitempty"`
	Skipped    []string `json:"skipped,omitempty"`
}

// Filler fills and flattens AcroForm documents
type Filler struct {
	logger *slog.Logger
	conf   *model.Configuration
}

// NewFiller creates a filler
func NewFiller(logger *slog.Logger) *Filler {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Filler{logger: logger, conf: conf}
}

// Fill writes inPath with values applied and the form flattened to outPath.
func (f *Filler) Fill(inPath, outPath string, values map[string]any) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "pdf-fill-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	exported := filepath.Join(tmpDir, "form.json")
	if err := api.ExportFormFile(inPath, exported, f.conf); err != nil {
		return nil, fmt.Errorf("failed to export form: %w", err)
	}

	raw, err := os.ReadFile(exported)
	if err != nil {
		return nil, fmt.Errorf("failed to read exported form: %w", err)
	}

	var form map[string]any
	if err := json.Unmarshal(raw, &form); err != nil {
		return nil, fmt.Errorf("failed to parse exported form: %w", err)
	}

	result := ApplyValues(form, values, f.logger)
	result.OutputPath = outPath

	filledJSON := filepath.Join(tmpDir, "filled.json")
	data, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form values: %w", err)
	}
	if err := os.WriteFile(filledJSON, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write form values: %w", err)
	}

	filledPDF := filepath.Join(tmpDir, "filled.pdf")
	if err := api.FillFormFile(inPath, filledJSON, filledPDF, f.conf); err != nil {
		return nil, fmt.Errorf("failed to fill form: %w", err)
	}

	if err := f.flattenFile(filledPDF, outPath); err != nil {
		return nil, err
	}

	f.logger.Info("fill.complete", "input", inPath, "output", outPath,
		"filled", len(result.Filled), "unmatched", len(result.Unmatched))
	return result, nil
}

// flattenFile flattens inPath into outPath. When the appearances cannot be
// drawn the fields are locked read-only instead.
func (f *Filler) flattenFile(inPath, outPath string) error {
	drawn, err := f.flatten(inPath, outPath)
	if err == nil {
		f.logger.Debug("fill.flatten.complete", "output", outPath, "appearances", drawn)
		return nil
	}

	f.logger.Warn("fill.flatten.fallback", "input", inPath, "error", err)
	if err := api.LockFormFieldsFile(inPath, outPath, nil, f.conf); err != nil {
		return fmt.Errorf("failed to lock form fields: %w", err)
	}
	return nil
}

func (f *Filler) flatten(inPath, outPath string) (int, error) {
	file, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open filled form: %w", err)
	}
	defer file.Close()

	ctx, err := api.ReadValidateAndOptimize(file, f.conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read filled form: %w", err)
	}

	drawn, err := Flatten(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to flatten form: %w", err)
	}

	if err := api.WriteContextFile(ctx, outPath); err != nil {
		return 0, fmt.Errorf("failed to write flattened form: %w", err)
	}
	return drawn, nil
}

// ApplyValues sets values on a decoded pdfcpu form description in place.
// Fields are matched by fully qualified name, by id, or by the last
// component of the qualified name.
func ApplyValues(form map[string]any, values map[string]any, logger *slog.Logger) *Result {
	if logger == nil {
		logger = slog.Default()
	}
	result := &Result{}
	used := make(map[string]bool)

	forms, _ := form["forms"].([]any)
	for _, entry := range forms {
		group, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for kind, list := range group {
			fields, ok := list.([]any)
			if !ok {
				continue
			}
			for _, item := range fields {
				field, ok := item.(map[string]any)
				if !ok {
					continue
				}
				key, value, found := lookup(field, values)
				if !found {
					continue
				}
				used[key] = true
				if value == nil {
					result.Skipped = append(result.Skipped, key)
					continue
				}
				if err := setValue(kind, field, value); err != nil {
					logger.Warn("fill.value.skipped", "field", key, "kind", kind, "error", err)
					result.Skipped = append(result.Skipped, key)
					continue
				}
				result.Filled = append(result.Filled, key)
			}
		}
	}

	for name := range values {
		if !used[name] {
			logger.Warn("fill.value.unmatched", "field", name)
			result.Unmatched = append(result.Unmatched, name)
		}
	}

	sort.Strings(result.Filled)
	sort.Strings(result.Unmatched)
	sort.Strings(result.Skipped)
	return result
}

func lookup(field map[string]any, values map[string]any) (string, any, bool) {
	name, _ := field["name"].(string)
	id, _ := field["id"].(string)

	for _, key := range []string{name, id, lastComponent(name)} {
		if key == "" {
			continue
		}
		if v, ok := values[key]; ok {
			return key, v, true
		}
	}
	return "", nil, false
}

func lastComponent(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return ""
}

func setValue(kind string, field map[string]any, value any) error {
	switch kind {
	case "checkbox":
		field["value"] = truthy(value)
	case "listbox":
		field["values"] = listValues(value)
	case "radiobuttongroup", "combobox":
		s := Stringify(value)
		if kind == "combobox" && field["editable"] == true {
			field["value"] = s
			return nil
		}
		opt, err := matchOption(field, s)
		if err != nil {
			return err
		}
		field["value"] = opt
	default:
		field["value"] = Stringify(value)
	}
	return nil
}

func matchOption(field map[string]any, s string) (string, error) {
	opts, _ := field["options"].([]any)
	if len(opts) == 0 {
		return s, nil
	}
	for _, o := range opts {
		if opt, ok := o.(string); ok && opt == s {
			return opt, nil
		}
	}
	for _, o := range opts {
		if opt, ok := o.(string); ok && strings.EqualFold(opt, s) {
			return opt, nil
		}
	}
	name, _ := field["name"].(string)
	return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "value is not one of the field options").
		WithField(name).
		WithContext(strconv.Quote(s))
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		switch strings.ToLower(strings.TrimSpace(Stringify(v))) {
		case "yes", "true", "on", "1", "x", "checked":
			return true
		}
		return false
	}
}

func listValues(value any) []string {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item != nil {
				out = append(out, Stringify(item))
			}
		}
		return out
	case []string:
		return v
	default:
		out := []string{}
		for _, part := range strings.Split(Stringify(v), ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
}

// Stringify renders a scalar JSON value as field text
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
