// Package errors defines the structured error type shared by the loader,
// renderer, CLI and preview server, plus a small collector that keeps the
// most recent document problems for display.
package errors

import (
	"errors"
	"sync"
	"time"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Problem is one recorded failure, flattened for display.
type Problem struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	File      string        `json:"file,omitempty"`
	Line      int           `json:"line,omitempty"`
	Severity  ErrorSeverity `json:"-"`
	Timestamp time.Time     `json:"timestamp"`
}

// ErrorCollector keeps the problems seen since the last Clear.
type ErrorCollector struct {
	problems []Problem
	mutex    sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		problems: make([]Problem, 0),
	}
}

// AddError records err. Nil errors are ignored.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}

	p := Problem{
		Message:   err.Error(),
		Severity:  ErrorSeverityError,
		Timestamp: time.Now(),
	}

	var ce *CheatsheetError
	if errors.As(err, &ce) {
		p.Code = ce.Code
		p.Message = ce.Message
		p.File = ce.FilePath
		p.Line = ce.Line
		if ce.Recoverable {
			p.Severity = ErrorSeverityWarning
		}
	}

	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.problems = append(ec.problems, p)
}

// Problems returns a copy of the recorded problems.
func (ec *ErrorCollector) Problems() []Problem {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]Problem, len(ec.problems))
	copy(result, ec.problems)
	return result
}

// HasErrors returns true if there are any problems
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.problems) > 0
}

// Clear clears all problems
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.problems = ec.problems[:0]
}
