package model

import (
	"fmt"
	"strings"
)

// EmptyInputError reports an operation that requires at least one row.
type EmptyInputError struct {
	Op string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: empty input", e.Op)
}

// SchemaError reports a row violating the data contract.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation on %q: %s", e.Field, e.Reason)
}

// DimensionMismatchError reports a feature vector whose width disagrees with
// the model. This is the loud symptom of a stale or mismatched transform;
// scoring must never proceed past it.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("feature width mismatch: model expects %d, got %d", e.Want, e.Got)
}

// ConfigurationError reports missing required settings. Fatal before any
// external call is made.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

// ExternalCallError wraps a failure from a collaborator boundary. Retryable
// distinguishes read-only lookups (safe to retry with backoff) from mutations
// (never blindly retried; preconditions must be re-checked first).
type ExternalCallError struct {
	Collaborator string
	Op           string
	Err          error
	Retryable    bool
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }

// NarrativeGenerationError is the escalated failure of the generative-text
// step. Unlike evidence lookups it is never absorbed: the caller publishes a
// degraded-mode failure alert instead of the enriched one.
type NarrativeGenerationError struct {
	Err error
}

func (e *NarrativeGenerationError) Error() string {
	return fmt.Sprintf("narrative generation failed: %v", e.Err)
}

func (e *NarrativeGenerationError) Unwrap() error { return e.Err }
