// Package errors provides lightweight, low-level error wrapping for
// operations inside the PSUR pipeline components (store, recorder,
// analytics kernels). It is deliberately simpler than internal/errors,
// which carries the run's user-facing error taxonomy.
package errors

import "fmt"

// OperationError describes a failed operation with enough context to
// trace it back to a component and resource without parsing a string.
type OperationError struct {
	Operation string
	Component string
	Resource  string
	Cause     error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("failed to %s", e.Operation)
	if e.Component != "" {
		msg += fmt.Sprintf(", component: %s", e.Component)
	}
	if e.Resource != "" {
		msg += fmt.Sprintf(", resource: %s", e.Resource)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(", cause: %s", e.Cause)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// Op returns an OperationError for the given operation and cause.
func Op(operation string, cause error) *OperationError {
	return &OperationError{Operation: operation, Cause: cause}
}

// WithComponent attaches a component name in place and returns the receiver.
func (e *OperationError) WithComponent(component string) *OperationError {
	e.Component = component
	return e
}

// WithResource attaches a resource name in place and returns the receiver.
func (e *OperationError) WithResource(resource string) *OperationError {
	e.Resource = resource
	return e
}
