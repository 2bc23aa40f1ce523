package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel values for errors.Is checks. Every PDFError unwraps to the
// sentinel of its Type.
var (
	ErrNoForm             = stderrors.New("no AcroForm found in document")
	ErrNoFields           = stderrors.New("no form fields found in document")
	ErrValueGeneration    = stderrors.New("value generation failed")
	ErrServiceUnavailable = stderrors.New("value generation service unavailable")
	ErrMalformedResponse  = stderrors.New("malformed value generation response")
	ErrMissingCredential  = stderrors.New("missing credential")
	ErrImageEmbed         = stderrors.New("signature image embedding failed")
	ErrInvalidInput       = stderrors.New("invalid input")
)

// PDFError is a pipeline error with enough context to diagnose the failing
// document, page, field or HTTP exchange without inspecting internals.
type PDFError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	PageNumber int       `json:"page_number,omitempty"`
	FieldName  string    `json:"field_name,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Payload    string    `json:"payload,omitempty"`
	Timestamp  time.Time `json:"timestamp"`

	cause error
}

// ErrorType categorizes pipeline failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeNoForm
	ErrorTypeNoFields
	ErrorTypeValueGeneration
	ErrorTypeServiceUnavailable
	ErrorTypeMalformedResponse
	ErrorTypeMissingCredential
	ErrorTypeImageEmbed
	ErrorTypeInvalidInput
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNoForm:
		return "NO_FORM"
	case ErrorTypeNoFields:
		return "NO_FIELDS"
	case ErrorTypeValueGeneration:
		return "VALUE_GENERATION"
	case ErrorTypeServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case ErrorTypeMalformedResponse:
		return "MALFORMED_RESPONSE"
	case ErrorTypeMissingCredential:
		return "MISSING_CREDENTIAL"
	case ErrorTypeImageEmbed:
		return "IMAGE_EMBED"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	default:
		return "UNKNOWN"
	}
}

// Sentinel returns the errors.Is target for the type, nil for ErrorTypeUnknown.
func (et ErrorType) Sentinel() error {
	switch et {
	case ErrorTypeNoForm:
		return ErrNoForm
	case ErrorTypeNoFields:
		return ErrNoFields
	case ErrorTypeValueGeneration:
		return ErrValueGeneration
	case ErrorTypeServiceUnavailable:
		return ErrServiceUnavailable
	case ErrorTypeMalformedResponse:
		return ErrMalformedResponse
	case ErrorTypeMissingCredential:
		return ErrMissingCredential
	case ErrorTypeImageEmbed:
		return ErrImageEmbed
	case ErrorTypeInvalidInput:
		return ErrInvalidInput
	default:
		return nil
	}
}

// IsValueGeneration reports whether the type belongs to the value-generation
// family (ServiceUnavailable and MalformedResponse are both kinds of it).
func (et ErrorType) IsValueGeneration() bool {
	return et == ErrorTypeValueGeneration || et == ErrorTypeServiceUnavailable || et == ErrorTypeMalformedResponse
}

// Error implements the error interface
func (e *PDFError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type.String(), e.Message)

	var details []string
	if e.FilePath != "" {
		details = append(details, "file="+e.FilePath)
	}
	if e.PageNumber > 0 {
		details = append(details, fmt.Sprintf("page=%d", e.PageNumber))
	}
	if e.FieldName != "" {
		details = append(details, "field="+e.FieldName)
	}
	if e.StatusCode != 0 {
		details = append(details, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
	}
	if e.Context != "" {
		fmt.Fprintf(&b, ": %s", e.Context)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Unwrap exposes both the type sentinel and the underlying cause.
func (e *PDFError) Unwrap() []error {
	errs := make([]error, 0, 3)
	if s := e.Type.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	// Service and response failures are also value-generation failures.
	if e.Type != ErrorTypeValueGeneration && e.Type.IsValueGeneration() {
		errs = append(errs, ErrValueGeneration)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps err as a PDFError of the given type, keeping it in the
// Unwrap chain.
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	e := NewPDFError(errorType, message)
	e.cause = err
	return e
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds a 1-based page number to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// WithField names the form field involved
func (e *PDFError) WithField(name string) *PDFError {
	e.FieldName = name
	return e
}

// WithResponse records the HTTP status and the offending payload
func (e *PDFError) WithResponse(statusCode int, payload string) *PDFError {
	e.StatusCode = statusCode
	e.Payload = payload
	return e
}

// TypeOf returns the ErrorType of the first PDFError in err's chain.
func TypeOf(err error) ErrorType {
	var pe *PDFError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}
