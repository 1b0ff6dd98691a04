package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a CheatsheetError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *CheatsheetError {
	if err == nil {
		return nil
	}

	var ce *CheatsheetError
	if errors.As(err, &ce) {
		return &CheatsheetError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ce,
			Context:     ce.Context,
			Component:   ce.Component,
			FilePath:    ce.FilePath,
			Line:        ce.Line,
			Recoverable: ce.Recoverable,
		}
	}

	return &CheatsheetError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeLookup,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *CheatsheetError {
	wrapped := Wrap(err, ErrorTypeIO, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}
	return wrapped
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *CheatsheetError {
	wrapped := Wrap(err, ErrorTypeConfig, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}
	return wrapped
}

// WithFile attaches a file path to err without changing its type.
// Non-CheatsheetError values are wrapped as internal errors.
func WithFile(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var ce *CheatsheetError
	if errors.As(err, &ce) {
		return ce.WithLocation(filePath, ce.Line)
	}

	return &CheatsheetError{
		Type:     ErrorTypeInternal,
		Code:     ErrCodeInternalError,
		Message:  err.Error(),
		Cause:    err,
		FilePath: filePath,
	}
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var ce *CheatsheetError
	if errors.As(err, &ce) {
		return ce.Error()
	}

	return err.Error()
}

// GetErrorContext extracts context information from a CheatsheetError
func GetErrorContext(err error) map[string]interface{} {
	var ce *CheatsheetError
	if errors.As(err, &ce) {
		context := make(map[string]interface{})
		for k, v := range ce.Context {
			context[k] = v
		}
		if ce.Component != "" {
			context["component"] = ce.Component
		}
		if ce.FilePath != "" {
			context["file"] = ce.FilePath
		}
		if ce.Line > 0 {
			context["line"] = ce.Line
		}
		context["type"] = string(ce.Type)
		context["code"] = ce.Code
		context["recoverable"] = ce.Recoverable
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// CombineErrors combines multiple errors into a single error with context
func CombineErrors(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	if len(nonNil) == 1 {
		return nonNil[0]
	}

	messages := make([]string, 0, len(nonNil))
	for _, err := range nonNil {
		messages = append(messages, err.Error())
	}

	return &CheatsheetError{
		Type:    ErrorTypeInternal,
		Code:    "ERR_MULTIPLE_ERRORS",
		Message: fmt.Sprintf("multiple errors occurred: %d errors", len(nonNil)),
		Context: map[string]interface{}{
			"error_count": len(nonNil),
			"errors":      messages,
		},
	}
}
