// Package errors provides structured error handling for apimtpl
package errors

import (
	"errors"
	"runtime"

	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents tool configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents document discovery and file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeStructural represents malformed input and contract violations
	ErrorTypeStructural ErrorType = "structural"
	// ErrorTypeReferential represents dangling product/API or subscription/product references
	ErrorTypeReferential ErrorType = "referential"
	// ErrorTypePlaceholder represents macros that could not be resolved
	ErrorTypePlaceholder ErrorType = "placeholder"
	// ErrorTypeScope represents macros used outside the scope that defines them
	ErrorTypeScope ErrorType = "scope"
	// ErrorTypeNamingPattern represents names, display names or paths rejected by a configured pattern
	ErrorTypeNamingPattern ErrorType = "naming_pattern"
	// ErrorTypeMergeConflict represents documents whose shapes cannot be combined
	ErrorTypeMergeConflict ErrorType = "merge_conflict"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface. The type is not part of the message;
// violations are joined verbatim into stage errors.
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: stringpool.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the outermost structured error in the chain is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// HasType reports whether err, or any violation aggregated inside it, is of
// the given type.
func HasType(err error, errType ErrorType) bool {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		for _, v := range stageErr.Violations() {
			if HasType(v, errType) {
				return true
			}
		}
		return false
	}
	return IsType(err, errType)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
