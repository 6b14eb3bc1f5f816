package errx

import (
	"errors"
	"fmt"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// PostgresErrorMessage describes Postgres related failures.
	PostgresErrorMessage = "postgres operation failed"
	// PostgresNotFoundMessage describes a missing row.
	PostgresNotFoundMessage = "postgres row not found"
)

// Sentinels for the failure classes the engines branch on. Wrap them with
// fmt.Errorf("%w: ...") so errors.Is keeps working through the chain.
var (
	// ErrProvider marks a single completion-provider attempt that failed
	// (transport, timeout, or unusable output). Recovered by fallback.
	ErrProvider = errors.New("completion provider failed")
	// ErrExtractionUnavailable marks the whole provider chain as exhausted
	// for this call. Engines degrade to a direct-ask reply.
	ErrExtractionUnavailable = errors.New("extraction unavailable")
	// ErrSchemaValidation marks provider output that could not be parsed
	// into the registration schema. Treated the same as an empty delta.
	ErrSchemaValidation = errors.New("schema validation failed")
	// ErrStateStore marks a persistence failure. Fatal for the current turn:
	// no completion may be claimed after it.
	ErrStateStore = errors.New("state store failure")
	// ErrLoopLimit marks the collection attempt ceiling. Not a failure in the
	// usual sense, only a forced terminal transition; logged, never surfaced.
	ErrLoopLimit = errors.New("collection attempt ceiling reached")
)

// Error wraps an underlying error with an HTTP-ish status and safe message.
type Error struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}

// StatusOf extracts the status from an Error chain, or 0 when absent.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
