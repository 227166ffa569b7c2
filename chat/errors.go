package chat

import "fmt"

// ErrorCode classifies orchestration failures for the transport layer.
type ErrorCode string

const (
	// CodeInvalidInput marks requests rejected before any processing.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	// CodeRateLimited marks turns rejected by the per-session pacing gate.
	CodeRateLimited ErrorCode = "RATE_LIMITED"
	// CodeInternal marks unexpected failures inside the orchestrator.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is the orchestrator's typed failure. Reason is safe to show to API
// clients; Err carries the underlying cause for logs.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chat: %s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("chat: %s: %s", e.Code, e.Reason)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

func invalidInput(reason string) *Error {
	return &Error{Code: CodeInvalidInput, Reason: reason}
}

func rateLimited(reason string) *Error {
	return &Error{Code: CodeRateLimited, Reason: reason}
}

func internal(reason string, err error) *Error {
	return &Error{Code: CodeInternal, Reason: reason, Err: err}
}
