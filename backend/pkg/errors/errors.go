package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeStore represents memory-store (Supermemory) errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeMode represents mode resolution/storage errors
	ErrorTypeMode ErrorType = "mode"
	// ErrorTypeLLM represents LLM call errors
	ErrorTypeLLM ErrorType = "llm"
	// ErrorTypeParse represents date/entity parse errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// errType is promoted into every wrapper that embeds BaseError, so type
// checks see the wrapper's category without unwrapping past it
func (e *BaseError) errType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Store errors

// ErrStoreRequestFailed is returned when every endpoint strategy against the
// memory store failed. Callers treat this as a degraded read/write, never as
// a user-visible failure.
type ErrStoreRequestFailed struct {
	*BaseError
	Operation  string
	StatusCode int
}

func NewStoreRequestFailed(operation string, statusCode int, err error) *ErrStoreRequestFailed {
	return &ErrStoreRequestFailed{
		BaseError:  NewBaseError(ErrorTypeStore, fmt.Sprintf("store request failed: %s", operation), err),
		Operation:  operation,
		StatusCode: statusCode,
	}
}

// ErrStoreBadResponse is returned when a store response cannot be normalized
type ErrStoreBadResponse struct {
	*BaseError
	Operation string
}

func NewStoreBadResponse(operation string, err error) *ErrStoreBadResponse {
	return &ErrStoreBadResponse{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("unrecognized store response: %s", operation), err),
		Operation: operation,
	}
}

// Mode errors

// ErrModeNotFound is returned when a custom mode does not exist
type ErrModeNotFound struct {
	*BaseError
	UserID string
	Key    string
}

func NewModeNotFound(userID, key string) *ErrModeNotFound {
	return &ErrModeNotFound{
		BaseError: NewBaseError(ErrorTypeMode, fmt.Sprintf("mode not found: %s", key), nil),
		UserID:    userID,
		Key:       key,
	}
}

// ErrModeKeyTaken is returned when creating a custom mode with a key the
// user already owns
type ErrModeKeyTaken struct {
	*BaseError
	UserID string
	Key    string
}

func NewModeKeyTaken(userID, key string) *ErrModeKeyTaken {
	return &ErrModeKeyTaken{
		BaseError: NewBaseError(ErrorTypeMode, fmt.Sprintf("mode key already exists: %s", key), nil),
		UserID:    userID,
		Key:       key,
	}
}

// LLM errors

// ErrLLMFailed is returned when the LLM request fails after retries
type ErrLLMFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewLLMFailed(model string, attempts int, err error) *ErrLLMFailed {
	return &ErrLLMFailed{
		BaseError: NewBaseError(ErrorTypeLLM, fmt.Sprintf("LLM request failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// ErrLLMNoResponse is returned when the LLM returns no choices
var ErrLLMNoResponse = NewBaseError(ErrorTypeLLM, "no response from LLM", nil)

// Context errors

// ErrContextTimeout is returned when a per-call timeout elapses
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ errType() ErrorType }); ok {
			return typed.errType() == errType
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	// Transient store failures get exactly one fallback attempt
	if IsErrorType(err, ErrorTypeStore) {
		return true
	}
	if IsErrorType(err, ErrorTypeLLM) {
		return true
	}
	return false
}
