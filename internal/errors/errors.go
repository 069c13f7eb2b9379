package errors

import "fmt"

// ErrorCode represents a FeedFwd error code.
type ErrorCode string

const (
	ErrNotFound     ErrorCode = "NOT_FOUND"    // 404
	ErrDuplicate    ErrorCode = "DUPLICATE"    // 409
	ErrTooLong      ErrorCode = "TOO_LONG"     // 413
	ErrInvalid      ErrorCode = "INVALID"      // 400
	ErrUnavailable  ErrorCode = "UNAVAILABLE"  // 503
	ErrInconsistent ErrorCode = "INCONSISTENT" // 409
	ErrInternal     ErrorCode = "INTERNAL"     // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFound creates a 404 error for when a card cannot be found.
func NewNotFound(name string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("card not found: %s", name),
		Details: map[string]any{"name": name},
	}
}

// NewDuplicate creates a 409 error naming the existing card that blocked creation.
func NewDuplicate(proposed, existing, reason string) *Error {
	return &Error{
		Code:    ErrDuplicate,
		Status:  409,
		Message: fmt.Sprintf("card %q duplicates existing card %q (%s)", proposed, existing, reason),
		Details: map[string]any{"proposed": proposed, "existing": existing, "reason": reason},
	}
}

// NewTooLong creates a 413 error when injection text exceeds the token cap.
func NewTooLong(max, actual int) *Error {
	return &Error{
		Code:    ErrTooLong,
		Status:  413,
		Message: fmt.Sprintf("injection text exceeds token cap: %d tokens (max %d)", actual, max),
		Details: map[string]any{"max_tokens": max, "actual_tokens": actual},
	}
}

// NewInvalid creates a 400 error for a malformed card payload or request.
func NewInvalid(msg string) *Error {
	return &Error{
		Code:    ErrInvalid,
		Status:  400,
		Message: msg,
	}
}

// NewUnavailable creates a 503 error for a store that cannot be reached or locked in time.
func NewUnavailable(msg string) *Error {
	return &Error{
		Code:    ErrUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInconsistent creates a 409 error for an index/repository mismatch.
func NewInconsistent(msg string, details map[string]any) *Error {
	return &Error{
		Code:    ErrInconsistent,
		Status:  409,
		Message: msg,
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a FeedFwd Error with the given code.
func Is(err error, code ErrorCode) bool {
	if fErr, ok := err.(*Error); ok {
		return fErr.Code == code
	}
	return false
}
