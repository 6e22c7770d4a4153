package errors

import (
	"fmt"
)

// DocsError is the structured error type for appledocs-mcp.
// It provides rich context for error handling, logging, and user presentation.
type DocsError struct {
	// Code is the unique error code (e.g., "ERR_202_INDEX_CORRUPT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *DocsError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DocsError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with DocsError.
func (e *DocsError) Is(target error) bool {
	if t, ok := target.(*DocsError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *DocsError) WithDetail(key, value string) *DocsError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *DocsError) WithSuggestion(suggestion string) *DocsError {
	e.Suggestion = suggestion
	return e
}

// New creates a new DocsError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *DocsError {
	return &DocsError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a DocsError from an existing error.
// The error's message becomes the DocsError message.
// Returns nil if err is nil.
func Wrap(code string, err error) *DocsError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// StorageError creates an index/disk-related error.
func StorageError(message string, cause error) *DocsError {
	return New(ErrCodeIndexWrite, message, cause)
}

// NetworkError creates a fetch-related error.
func NetworkError(message string, cause error) *DocsError {
	return New(ErrCodeFetchServer, message, cause)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *DocsError {
	return New(ErrCodeInvalidDocument, message, cause)
}

// IsRetryable reports whether the error (or any error in its chain)
// is a retryable DocsError.
func IsRetryable(err error) bool {
	for err != nil {
		if de, ok := err.(*DocsError); ok {
			return de.Retryable
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsFatal reports whether the error carries fatal severity.
func IsFatal(err error) bool {
	for err != nil {
		if de, ok := err.(*DocsError); ok {
			return de.Severity == SeverityFatal
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
