package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a structurally unparseable search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidDocument signals a corpus record that failed validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrCorpusNotLoaded signals that no corpus source is configured.
	ErrCorpusNotLoaded = errors.New("corpus not loaded")

	// ErrEmbeddingProviderError signals an embedding provider failure or malformed output.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingTimeout signals an embedding call that exceeded its deadline.
	ErrEmbeddingTimeout = errors.New("embedding timeout")
	// ErrEmbedderNotConfigured signals that no embedding provider was wired.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
)

// ValidationError describes why a single corpus record was rejected.
type ValidationError struct {
	RawID  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidDocument.Error(), e.RawID, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDocument }

// NewValidationError creates a document validation error.
func NewValidationError(rawID, reason string) error {
	return &ValidationError{RawID: rawID, Reason: reason}
}
