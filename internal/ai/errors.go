package ai

import (
	"context"
	"errors"
	"fmt"
)

// Reason classifies why a structured generation failed
type Reason string

const (
	ReasonTransport       Reason = "transport"
	ReasonTimeout         Reason = "timeout"
	ReasonSchemaViolation Reason = "schema_violation"
	ReasonInvalidRequest  Reason = "invalid_request"
)

// GenerationError is returned for every failed structured generation call
type GenerationError struct {
	Provider AIProvider
	Schema   string
	Reason   Reason
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation via %s failed (%s): %v", e.Schema, e.Provider, e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// AsGenerationError extracts a GenerationError from err's chain
func AsGenerationError(err error) (*GenerationError, bool) {
	var gerr *GenerationError
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

// classifyCallError maps a provider call failure to a Reason
func classifyCallError(ctx context.Context, err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonTransport
}
