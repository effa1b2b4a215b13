package contract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidState    = errors.New("session does not accept this operation")
	ErrStaleInterrupt  = errors.New("interrupt token is stale or unknown")
	ErrUpstreamTimeout = errors.New("upstream call timed out")
	ErrRoutingLoop     = errors.New("agent handoff limit exceeded")
	ErrBackend         = errors.New("backend request failed")
)

// ValidationError lists the offending input fields of a tool call.
// Matches ErrValidation under errors.Is.
type ValidationError struct {
	Tool   string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for tool=%s: invalid fields [%s]", e.Tool, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// BackendError carries the upstream commerce API failure text verbatim.
// Callers must not rewrite Message: it is shown to the end user as-is,
// notably for duplicate-email customer creation conflicts.
// Matches ErrBackend under errors.Is.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
