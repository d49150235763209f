package gateway

import "fmt"

// ModelError indicates the underlying model call itself failed: transport
// errors, quota errors, or an empty response.
type ModelError struct {
	Message string
	Cause   error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("model call failed: %s", e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// SchemaViolation indicates the model responded but its output could not
// be coerced into the expected structural contract.
type SchemaViolation struct {
	Message string
	Cause   error
}

func (e *SchemaViolation) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model output violates schema: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("model output violates schema: %s", e.Message)
}

func (e *SchemaViolation) Unwrap() error {
	return e.Cause
}
