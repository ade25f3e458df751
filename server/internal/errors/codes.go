package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for conversation processing.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeLLMUnavailable indicates the LLM service call failed.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeMalformedOutput indicates the LLM returned unparseable output.
	ErrCodeMalformedOutput ErrorCode = "MALFORMED_OUTPUT"
	// ErrCodeStoreFailure indicates the conversation store could not persist.
	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"
	// ErrCodeTurnFailed indicates the orchestrator recovered from an unexpected failure.
	ErrCodeTurnFailed ErrorCode = "TURN_FAILED"
)

// TurnError represents a structured error for turn processing.
type TurnError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *TurnError) Unwrap() error {
	return e.Cause
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *TurnError {
	return &TurnError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *TurnError {
	return &TurnError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if turnErr, ok := err.(*TurnError); ok {
		return turnErr.Code == code
	}
	return false
}
