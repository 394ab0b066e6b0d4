// Package errors defines the run-level error taxonomy described in the
// error handling design: SlotMissing, ChainCorrupt, ValidationFinding,
// UnknownTaskType and ExternalFailure. Every task-facing error in the
// pipeline is one of these kinds so the runtime can decide whether a
// failure is fatal to the run.
package errors

import (
	"fmt"
)

// ErrorType enumerates the error kinds a task result may carry.
type ErrorType string

const (
	ErrorTypeSlotMissing       ErrorType = "slot_missing"
	ErrorTypeChainCorrupt      ErrorType = "chain_corrupt"
	ErrorTypeValidationFinding ErrorType = "validation_finding"
	ErrorTypeUnknownTaskType   ErrorType = "unknown_task_type"
	ErrorTypeExternalFailure   ErrorType = "external_failure"
)

// AppError is the pipeline's structured error value. It is never used to
// carry validation findings (those are data, per spec, not exceptions) but
// wraps every other taxonomy kind that can abort a task.
type AppError struct {
	Type    ErrorType
	Message string
	Details string
	Cause   error
}

func New(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message}
}

func Wrap(cause error, t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, Cause: cause}
}

func Wrapf(cause error, t ErrorType, format string, args ...any) *AppError {
	return Wrap(cause, t, fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Details != "" {
		msg += fmt.Sprintf(" (%s)", e.Details)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %s", e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetailsf(format string, args ...any) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

// SlotMissing reports a store access on an (kind,id) pair that was never set.
func SlotMissing(kind, id string) *AppError {
	return New(ErrorTypeSlotMissing, "store slot missing").
		WithDetailsf("kind=%s id=%s", kind, id)
}

// ChainCorrupt wraps the list of chain validation errors produced by
// the recorder's validateChain(), used only at VERIFY_TRACE_CHAIN.
func ChainCorrupt(chainErrors []string) *AppError {
	return New(ErrorTypeChainCorrupt, "decision trace chain failed validation").
		WithDetailsf("%d error(s): %v", len(chainErrors), chainErrors)
}

// UnknownTaskType reports a task type absent from the DAG's dependency table.
func UnknownTaskType(taskType string) *AppError {
	return New(ErrorTypeUnknownTaskType, "unknown task type").WithDetails(taskType)
}

// ExternalFailure wraps an error surfaced by an external collaborator
// (loader, LLM, renderer, zip packager).
func ExternalFailure(collaborator string, cause error) *AppError {
	return Wrapf(cause, ErrorTypeExternalFailure, "external collaborator %q failed", collaborator)
}
