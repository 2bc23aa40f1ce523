package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-autofill/internal/llm"
	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/fill"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf/signature"
)

// FormFiller writes values into a form and flattens it
type FormFiller interface {
	Fill(inPath, outPath string, values map[string]any) (*fill.Result, error)
}

// DocumentSigner stamps the signature image at every anchor
type DocumentSigner interface {
	Sign(ctx context.Context, inPath, outPath string) (*signature.SignResult, error)
}

// Options configures a Service
type Options struct {
	MaxFileSize     int64
	InputDirectory  string
	OutputDirectory string // defaults to InputDirectory

	SignatureImage  string
	AnchorPhrases   []string
	Geometry        signature.Geometry
	LegacyFlagQuirk bool
}

// Option overrides a Service collaborator
type Option func(*Service)

// WithGenerator sets the value generator used by Autofill
func WithGenerator(g llm.ValueGenerator) Option {
	return func(s *Service) { s.generator = g }
}

// WithFiller replaces the pdfcpu form filler
func WithFiller(f FormFiller) Option {
	return func(s *Service) { s.filler = f }
}

// WithSigner replaces the anchor signer
func WithSigner(sg DocumentSigner) Option {
	return func(s *Service) { s.signer = sg }
}

// WithLogger sets the service logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service runs the extract, generate, fill and sign pipeline
type Service struct {
	opts          Options
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
	extractor     *extraction.Extractor
	generator     llm.ValueGenerator
	filler        FormFiller
	signer        DocumentSigner
	logger        *slog.Logger
}

// NewService creates a new PDF service with all components
func NewService(cfg Options, opts ...Option) (*Service, error) {
	if err := validateOptions(cfg); err != nil {
		return nil, err
	}
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = cfg.InputDirectory
	}

	pathValidator, err := security.NewPathValidator(cfg.InputDirectory, cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	s := &Service{
		opts:          cfg,
		validator:     NewValidator(cfg.MaxFileSize),
		search:        NewSearch(cfg.MaxFileSize),
		pathValidator: pathValidator,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	var walkOpts []extraction.WalkOption
	if cfg.LegacyFlagQuirk {
		walkOpts = append(walkOpts, extraction.WithLegacyFlagQuirk())
	}
	s.extractor = extraction.NewExtractor(s.logger, walkOpts...)

	if s.filler == nil {
		s.filler = fill.NewFiller(s.logger)
	}
	if s.signer == nil {
		s.signer = signature.NewSigner(
			signature.NewLocator(cfg.AnchorPhrases, s.logger),
			signature.NewPlacer(cfg.Geometry, s.logger),
			cfg.SignatureImage,
			s.logger,
		)
	}
	return s, nil
}

func validateOptions(cfg Options) error {
	if cfg.MaxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}
	if cfg.MaxFileSize > 1024*1024*1024 {
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}
	return nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.opts.MaxFileSize
}


// InputDirectory returns the configured input directory
func (s *Service) InputDirectory() string {
	return s.pathValidator.GetConfiguredDirectory()
}

// OutputDirectory returns the directory outputs are written to by default
func (s *Service) OutputDirectory() string {
	return s.opts.OutputDirectory
}

// HasGenerator reports whether Autofill can generate values
func (s *Service) HasGenerator() bool {
	return s.generator != nil
}

// ExtractFields lists the form fields of a document in pre-order
func (s *Service) ExtractFields(req ExtractFieldsRequest) (*ExtractFieldsResult, error) {
	path, err := s.inputPath(req.Path)
	if err != nil {
		return nil, err
	}

	fields, err := s.extractor.ExtractFieldsFromFile(path)
	if err != nil {
		return nil, err
	}
	return &ExtractFieldsResult{Path: path, Fields: fields, Count: len(fields)}, nil
}

// Autofill extracts the fields, asks the generator for values and writes a
// filled, flattened copy.
func (s *Service) Autofill(ctx context.Context, req AutofillRequest) (*AutofillResult, error) {
	path, err := s.inputPath(req.Path)
	if err != nil {
		return nil, err
	}
	out, err := s.outputPath(req.OutputPath, path, FilledPrefix)
	if err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeMissingCredential,
			"value generation is not configured", "set OPENAI_API_KEY").WithFile(path)
	}

	fields, err := s.extractor.ExtractFieldsFromFile(path)
	if err != nil {
		return nil, err
	}
	fieldsJSON, err := extraction.MarshalFields(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode field descriptors: %w", err)
	}

	s.logger.Info("pipeline.autofill.generate", "file", path, "fields", len(fields))
	values, err := s.generator.GenerateValues(ctx, llm.GenerateRequest{
		FieldsJSON:     fieldsJSON,
		AdditionalText: req.Context,
		SourceFile:     path,
	})
	if err != nil {
		return nil, annotate(err, path)
	}

	result, err := s.filler.Fill(path, out, values)
	if err != nil {
		return nil, fmt.Errorf("failed to fill %s: %w", filepath.Base(path), err)
	}

	return newAutofillResult(path, out, len(fields), values, result), nil
}

// Sign stamps the signature image next to every anchor phrase
func (s *Service) Sign(ctx context.Context, req SignRequest) (*SignResult, error) {
	path, err := s.inputPath(req.Path)
	if err != nil {
		return nil, err
	}
	out, err := s.outputPath(req.OutputPath, path, SignedPrefix)
	if err != nil {
		return nil, err
	}

	res, err := s.signer.Sign(ctx, path, out)
	if err != nil {
		return nil, annotate(err, path)
	}
	return &SignResult{
		Path:        path,
		OutputPath:  res.OutputPath,
		Anchors:     res.Matches,
		Placements:  res.Placements,
		PagesSigned: res.PagesSigned,
	}, nil
}

// Process fills a document into filled_<name> and signs that into
// signed_filled_<name>, both in the output directory.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	filled, err := s.Autofill(ctx, AutofillRequest{Path: req.Path, Context: req.Context})
	if err != nil {
		return nil, err
	}

	signedPath := filepath.Join(filepath.Dir(filled.OutputPath), SignedPrefix+filepath.Base(filled.OutputPath))
	signed, err := s.Sign(ctx, SignRequest{Path: filled.OutputPath, OutputPath: signedPath})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pipeline.process.complete", "file", filled.Path, "signed", signed.OutputPath,
		"anchors", len(signed.Anchors))
	return &ProcessResult{
		Path:       filled.Path,
		FilledPath: filled.OutputPath,
		SignedPath: signed.OutputPath,
		Autofill:   filled,
		Sign:       signed,
	}, nil
}

// ProcessDirectory runs Process for every input PDF in the directory, in
// name order. The first failure stops the run and is returned together
// with the documents completed so far.
func (s *Service) ProcessDirectory(ctx context.Context, req ProcessDirectoryRequest) (*ProcessDirectoryResult, error) {
	dir := req.Directory
	if dir == "" {
		dir = s.InputDirectory()
	}
	if err := s.pathValidator.ValidateDirectory(dir); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	files, err := s.search.FindInputs(dir)
	if err != nil {
		return nil, err
	}

	result := &ProcessDirectoryResult{Directory: dir, Found: len(files), Processed: []ProcessResult{}}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.logger.Info("pipeline.directory.file", "file", f.Path)
		res, err := s.Process(ctx, ProcessRequest{Path: f.Path, Context: req.Context})
		if err != nil {
			return result, fmt.Errorf("processing %s: %w", f.Name, err)
		}
		result.Processed = append(result.Processed, *res)
	}
	return result, nil
}

func (s *Service) inputPath(path string) (string, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.validator.ValidateFile(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// outputPath resolves an explicit output path or derives <prefix><name>
// in the output directory.
func (s *Service) outputPath(explicit, input, prefix string) (string, error) {
	out := explicit
	if out == "" {
		out = filepath.Join(s.opts.OutputDirectory, prefix+filepath.Base(input))
	} else if !filepath.IsAbs(out) {
		out = filepath.Join(s.opts.OutputDirectory, out)
	}
	if !strings.HasSuffix(strings.ToLower(out), ".pdf") {
		return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "output path must end in .pdf").
			WithFile(out)
	}
	if err := s.pathValidator.ValidatePath(out); err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if filepath.Clean(out) == filepath.Clean(input) {
		return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "output path must differ from the input").
			WithFile(out)
	}
	return out, nil
}

// annotate adds the document path to pipeline errors that lack one
func annotate(err error, path string) error {
	var pe *pdferrors.PDFError
	if errors.As(err, &pe) && pe.FilePath == "" {
		pe.WithFile(path)
	}
	return err
}
