package extraction

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// Extractor reads AcroForm field metadata using the pdfcpu library
type Extractor struct {
	logger   *slog.Logger
	walkOpts []WalkOption
}

// NewExtractor creates a new form field extractor
func NewExtractor(logger *slog.Logger, opts ...WalkOption) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		logger:   logger,
		walkOpts: append([]WalkOption{WithWalkLogger(logger)}, opts...),
	}
}

// ExtractFieldsFromFile opens filePath read-only and extracts its form fields
func (e *Extractor) ExtractFieldsFromFile(filePath string) ([]FieldDescriptor, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	fields, err := e.ExtractFieldsFromReader(file)
	var pe *pdferrors.PDFError
	if errors.As(err, &pe) {
		pe.WithFile(filePath)
	}
	return fields, err
}

// ExtractFieldsFromReader extracts form fields from an io.ReadSeeker
func (e *Extractor) ExtractFieldsFromReader(reader io.ReadSeeker) ([]FieldDescriptor, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(reader, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return e.ExtractFieldsFromContext(ctx)
}

// ExtractFieldsFromContext walks the AcroForm of an already parsed document.
// It fails with ErrNoForm when the catalog has no AcroForm and with
// ErrNoFields when the Fields array is missing or empty.
func (e *Extractor) ExtractFieldsFromContext(ctx *model.Context) ([]FieldDescriptor, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeNoForm, "no AcroForm found in the PDF")
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		e.logger.Debug("extraction.acroform.unresolvable", "error", err)
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeNoForm, "AcroForm entry is not a dictionary")
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeNoFields, "no form fields found in the PDF")
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeNoFields, "Fields entry is not an array", err)
	}

	roots := nodesFromArray(ctx, fieldsArray)
	if len(roots) == 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeNoFields, "no form fields found in the PDF")
	}

	fields := WalkFields(roots, e.walkOpts...)
	e.logger.Debug("extraction.fields.extracted", "roots", len(roots), "fields", len(fields))
	return fields, nil
}

// pdfcpuNode adapts a field dictionary to FieldNode
type pdfcpuNode struct {
	ctx   *model.Context
	dict  types.Dict
	objNr int
	isRef bool
}

func nodesFromArray(ctx *model.Context, arr types.Array) []FieldNode {
	nodes := make([]FieldNode, 0, len(arr))
	for _, obj := range arr {
		node := &pdfcpuNode{ctx: ctx}
		if ref, ok := obj.(types.IndirectRef); ok {
			node.objNr = ref.ObjectNumber.Value()
			node.isRef = true
		}
		dict, err := ctx.DereferenceDict(obj)
		if err != nil || dict == nil {
			// not a field dictionary, nothing to describe
			continue
		}
		node.dict = dict
		nodes = append(nodes, node)
	}
	return nodes
}

func (n *pdfcpuNode) ObjectNumber() (int, bool) {
	return n.objNr, n.isRef
}

func (n *pdfcpuNode) Name() (string, bool) {
	obj, found := n.dict.Find("T")
	if !found {
		return "", false
	}
	return n.text(obj)
}

func (n *pdfcpuNode) Type() (string, bool) {
	obj, found := n.dict.Find("FT")
	if !found {
		return "", false
	}
	name, err := n.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return "", false
	}
	return string(name), true
}

func (n *pdfcpuNode) MaxLength() (int, bool) {
	obj, found := n.dict.Find("MaxLen")
	if !found {
		return 0, false
	}
	if i, err := n.ctx.DereferenceInteger(obj); err == nil && i != nil {
		return i.Value(), true
	}
	if f, err := n.ctx.DereferenceNumber(obj); err == nil {
		return int(f), true
	}
	return 0, false
}

func (n *pdfcpuNode) DefaultValue() (string, bool) {
	obj, found := n.dict.Find("DV")
	if !found {
		return "", false
	}
	return n.text(obj)
}

func (n *pdfcpuNode) Flags() (int64, bool) {
	obj, found := n.dict.Find("Ff")
	if !found {
		return 0, false
	}
	i, err := n.ctx.DereferenceInteger(obj)
	if err != nil || i == nil {
		return 0, false
	}
	return int64(i.Value()), true
}

func (n *pdfcpuNode) Options() ([]string, bool) {
	obj, found := n.dict.Find("Opt")
	if !found {
		return nil, false
	}
	arr, err := n.ctx.DereferenceArray(obj)
	if err != nil {
		return nil, false
	}

	options := make([]string, 0, len(arr))
	for _, opt := range arr {
		// Options are text strings or [export display] pairs
		if pair, err := n.ctx.DereferenceArray(opt); err == nil && pair != nil {
			if len(pair) >= 2 {
				if display, ok := n.text(pair[1]); ok {
					options = append(options, display)
				}
			} else if len(pair) == 1 {
				if v, ok := n.text(pair[0]); ok {
					options = append(options, v)
				}
			}
			continue
		}
		if v, ok := n.text(opt); ok {
			options = append(options, v)
		}
	}
	return options, true
}

func (n *pdfcpuNode) Kids() ([]FieldNode, bool) {
	obj, found := n.dict.Find("Kids")
	if !found {
		return nil, false
	}
	arr, err := n.ctx.DereferenceArray(obj)
	if err != nil {
		return nil, false
	}
	return nodesFromArray(n.ctx, arr), true
}

// text renders a string-ish PDF object the way a field value is displayed.
func (n *pdfcpuNode) text(obj types.Object) (string, bool) {
	resolved, err := n.ctx.Dereference(obj)
	if err != nil || resolved == nil {
		return "", false
	}

	switch v := resolved.(type) {
	case types.StringLiteral, types.HexLiteral:
		s, err := n.ctx.DereferenceStringOrHexLiteral(v, model.V10, nil)
		if err != nil {
			return "", false
		}
		return s, true
	case types.Name:
		return v.Value(), true
	case types.Integer:
		return strconv.Itoa(v.Value()), true
	case types.Float:
		return strconv.FormatFloat(v.Value(), 'f', -1, 64), true
	case types.Boolean:
		return strconv.FormatBool(v.Value()), true
	case types.Array:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := n.text(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), true
	default:
		return resolved.String(), true
	}
}
