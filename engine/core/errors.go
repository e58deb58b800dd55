package core

import (
	"errors"
	"fmt"
)

// Error kinds shared across the engine. Handlers and callers match on these
// with errors.Is; the concrete error types below carry context for logs.
var (
	// ErrInvalidConfig marks bad or missing tunables (overlap >= size,
	// dimension mismatch, unknown metric). Fatal at startup or ingestion
	// time, never coerced.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput marks caller errors such as top_k <= 0 or an empty
	// query string.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing document or chunk.
	ErrNotFound = errors.New("not found")
)

// ExtractKind classifies extraction failures.
type ExtractKind string

const (
	ExtractUnsupportedFormat ExtractKind = "unsupported_format"
	ExtractCorruptInput      ExtractKind = "corrupt_input"
)

// ExtractError reports a per-file extraction failure. It never aborts a batch
// upload; callers report it alongside the other files' results.
type ExtractError struct {
	Kind     ExtractKind
	Filename string
	Err      error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Filename, e.Kind, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Filename, e.Kind)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// NewExtractError builds a typed extraction failure.
func NewExtractError(kind ExtractKind, filename string, err error) *ExtractError {
	return &ExtractError{Kind: kind, Filename: filename, Err: err}
}

// EmbedError reports an embedding failure with enough context to retry the
// affected document.
type EmbedError struct {
	Model string
	Err   error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embedder %q: %v", e.Model, e.Err)
}

func (e *EmbedError) Unwrap() error { return e.Err }

// DimensionMismatchError is both a configuration and an embedding fault: the
// vector produced or supplied does not match the deployed dimension.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch (got %d want %d)", e.Got, e.Want)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// StoreError wraps a storage failure and records whether a retry could
// succeed. Constraint violations are integrity faults; connectivity and
// serialization faults are transient.
type StoreError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *StoreError) Error() string {
	if e.Transient {
		return fmt.Sprintf("store %s (transient): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// SynthesisKind classifies LLM synthesis failures.
type SynthesisKind string

const (
	SynthesisUnavailable SynthesisKind = "unavailable"
	SynthesisRateLimited SynthesisKind = "rate_limited"
	SynthesisMalformed   SynthesisKind = "malformed_response"
)

// SynthesisError reports a failed answer synthesis. RAG callers degrade to
// returning the retrieved sources with an explicit marker instead of failing
// the whole query.
type SynthesisError struct {
	Kind SynthesisKind
	Err  error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("synthesis %s", e.Kind)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// IsTransientStore reports whether err is a retryable storage failure.
func IsTransientStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Transient
}
