package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeLookup     ErrorType = "lookup"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// CheatsheetError is a structured error type with context.
type CheatsheetError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *CheatsheetError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	switch {
	case e.FilePath != "" && e.Line > 0:
		parts = append(parts, fmt.Sprintf("%s:%d", e.FilePath, e.Line))
	case e.FilePath != "":
		parts = append(parts, e.FilePath)
	case e.Line > 0:
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CheatsheetError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CheatsheetError with the same type and code.
// This lets callers match on the sentinels below with errors.Is.
func (e *CheatsheetError) Is(target error) bool {
	var t *CheatsheetError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *CheatsheetError) WithContext(key string, value interface{}) *CheatsheetError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *CheatsheetError) WithLocation(filePath string, line int) *CheatsheetError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithComponent adds component context.
func (e *CheatsheetError) WithComponent(component string) *CheatsheetError {
	e.Component = component

	return e
}

// Common error codes.
const (
	ErrCodeMalformedDocument = "ERR_MALFORMED_DOCUMENT"
	ErrCodeUnsupportedFormat = "ERR_UNSUPPORTED_FORMAT"
	ErrCodeTopicNotFound     = "ERR_TOPIC_NOT_FOUND"
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeIO                = "ERR_IO"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeInvalidPath       = "ERR_INVALID_PATH"
	ErrCodeInvalidQuery      = "ERR_INVALID_QUERY"
	ErrCodeInternalError     = "ERR_INTERNAL"
)

// Sentinels for errors.Is. Only Type and Code take part in the comparison.
var (
	ErrMalformedDocument = &CheatsheetError{Type: ErrorTypeValidation, Code: ErrCodeMalformedDocument}
	ErrUnsupportedFormat = &CheatsheetError{Type: ErrorTypeRender, Code: ErrCodeUnsupportedFormat}
	ErrTopicNotFound     = &CheatsheetError{Type: ErrorTypeLookup, Code: ErrCodeTopicNotFound}
)

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *CheatsheetError {
	return &CheatsheetError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *CheatsheetError {
	return &CheatsheetError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewRenderError creates a render error.
func NewRenderError(code, message string, cause error) *CheatsheetError {
	return &CheatsheetError{
		Type:        ErrorTypeRender,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *CheatsheetError {
	return &CheatsheetError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *CheatsheetError {
	return &CheatsheetError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Helper functions for common errors

// MalformedDocument reports input that cannot be parsed into sections and
// entries. line is 1-based.
func MalformedDocument(line int, reason string) *CheatsheetError {
	err := NewValidationError(ErrCodeMalformedDocument, "malformed document: "+reason)
	err.Line = line

	return err
}

// UnsupportedFormat reports an unrecognised render target.
func UnsupportedFormat(format string) *CheatsheetError {
	return NewRenderError(
		ErrCodeUnsupportedFormat,
		fmt.Sprintf("unsupported format %q", format),
		nil,
	)
}

// TopicNotFound reports a topic lookup with no matching section.
func TopicNotFound(name string) *CheatsheetError {
	return &CheatsheetError{
		Type:        ErrorTypeLookup,
		Code:        ErrCodeTopicNotFound,
		Message:     fmt.Sprintf("topic not found: %q", name),
		Recoverable: true,
	}
}

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path string) *CheatsheetError {
	return NewValidationError(ErrCodeInvalidPath, "invalid path: "+path)
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ce *CheatsheetError
	if errors.As(err, &ce) {
		return ce.Recoverable
	}

	return false
}

// IsMalformedDocument reports whether err is a malformed document error.
func IsMalformedDocument(err error) bool {
	return errors.Is(err, ErrMalformedDocument)
}

// IsUnsupportedFormat reports whether err is an unsupported format error.
func IsUnsupportedFormat(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}

// IsTopicNotFound reports whether err is a topic lookup miss.
func IsTopicNotFound(err error) bool {
	return errors.Is(err, ErrTopicNotFound)
}

// LineOf returns the source line attached to err, or 0.
func LineOf(err error) int {
	var ce *CheatsheetError
	if errors.As(err, &ce) {
		return ce.Line
	}

	return 0
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level that matches its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ce *CheatsheetError
	if !errors.As(err, &ce) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch ce.Type {
	case ErrorTypeValidation, ErrorTypeLookup, ErrorTypeRender:
		h.logger.Warn(ctx, err, "Request could not be completed",
			"type", ce.Type,
			"code", ce.Code,
			"file", ce.FilePath,
			"line", ce.Line)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", ce.Type,
			"code", ce.Code,
			"component", ce.Component)
	}
}
