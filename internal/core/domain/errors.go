package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error leaving a core service wraps exactly one of the
// first five so front ends can map it to a response without inspecting
// messages.
var (
	// ErrValidation indicates bad or missing request input.
	// It is user-correctable and maps to a 400-class response.
	ErrValidation = errors.New("validation error")

	// ErrNotReady indicates the vector index has not been initialised yet.
	// Callers should retry once a first ingestion has completed.
	ErrNotReady = errors.New("index not ready")

	// ErrStorage indicates the ledger or the index could not be read or written.
	ErrStorage = errors.New("storage error")

	// ErrUpstream indicates a loader, embedding or generation failure.
	// Details are logged, never returned to remote callers.
	ErrUpstream = errors.New("upstream error")

	// ErrTimeout indicates a dispatched task exceeded the request timeout.
	ErrTimeout = errors.New("request timed out")
)

// Supporting errors.
var (
	// ErrInvalidInput indicates malformed configuration or arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the caller exceeded its request budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the generation service is not reachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not reachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// Validation returns an ErrValidation carrying a user-facing message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Storage wraps err as an ErrStorage for the named operation.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Upstream wraps err as an ErrUpstream for the named operation.
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// ValidationMessage extracts the user-facing part of a validation error.
// It returns an empty string for errors of any other kind.
func ValidationMessage(err error) string {
	if !errors.Is(err, ErrValidation) {
		return ""
	}
	prefix := ErrValidation.Error() + ": "
	msg := err.Error()
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
