package errors

import (
	"fmt"
	"strings"
)

// Error is the structured error type for docdex.
// It carries a stable code for programmatic matching, a human-readable
// message, and optional key-value details.
type Error struct {
	// Code is the unique error code (e.g., "ERR_201_CACHE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Cache, Embedding, Index, ...).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error values.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// Category and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// CacheUnavailable creates a cache storage error.
func CacheUnavailable(message string, cause error) *Error {
	return New(ErrCodeCacheUnavailable, message, cause)
}

// EmbeddingFailure creates an embedding error carrying the identifiers of the
// documents whose encode call failed.
func EmbeddingFailure(docIDs []string, cause error) *Error {
	e := New(ErrCodeEmbeddingFailure, "external embedding call failed", cause)
	if len(docIDs) > 0 {
		e.WithDetail("documents", strings.Join(docIDs, ","))
	}
	return e
}

// DimensionMismatch creates a vector dimension disagreement error.
func DimensionMismatch(expected, got int) *Error {
	return New(ErrCodeDimensionMismatch,
		fmt.Sprintf("dimension mismatch: expected %d, got %d", expected, got), nil)
}

// CorruptIndex creates an error for missing, unreadable, or mutually
// inconsistent persisted index artifacts.
func CorruptIndex(message string, cause error) *Error {
	return New(ErrCodeCorruptIndex, message, cause)
}

// ServiceNotReady creates the retryable error reported before any index has
// been built or loaded.
func ServiceNotReady() *Error {
	return New(ErrCodeServiceNotReady, "no index built or loaded yet", nil)
}

// FailedDocuments returns the document IDs attached to an embedding failure,
// or nil when the error carries none.
func (e *Error) FailedDocuments() []string {
	if e.Details == nil || e.Details["documents"] == "" {
		return nil
	}
	return strings.Split(e.Details["documents"], ",")
}
