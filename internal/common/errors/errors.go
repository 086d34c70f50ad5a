// Package errors provides the error taxonomy shared by the loan-service
// gateway, the dashboard views and the workflow worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeNotAuthenticated: no principal, or one without id/role. Blocks every fetch.
	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	// ErrCodeNetwork: the request failed or the loan service answered non-2xx.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrCodeDecodeFailed: a 2xx body that is not the JSON we expect.
	ErrCodeDecodeFailed ErrorCode = "DECODE_ERROR"

	ErrCodeInvalidFilter  ErrorCode = "INVALID_FILTER"
	ErrCodeInvalidCommand ErrorCode = "INVALID_COMMAND"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code          ErrorCode              `json:"code"`
	Message       string                 `json:"message"`
	Details       string                 `json:"details,omitempty"`
	ServerMessage string                 `json:"serverMessage,omitempty"`
	HTTPStatus    int                    `json:"httpStatus,omitempty"`
	Retryable     bool                   `json:"retryable"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNotAuthenticatedError reports an absent or incomplete principal.
func NewNotAuthenticatedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotAuthenticated,
		Message:   "User not logged in or invalid session",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError wraps a request that never produced a response.
func NewTransportError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   fmt.Sprintf("Loan service request '%s' failed", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHTTPStatusError wraps a non-2xx answer. serverMessage is the body's
// "message" field, empty when the body did not carry one.
func NewHTTPStatusError(operation string, status int, serverMessage, body string) *StandardError {
	return &StandardError{
		Code:          ErrCodeNetwork,
		Message:       fmt.Sprintf("Loan service request '%s' returned status %d", operation, status),
		Details:       body,
		ServerMessage: serverMessage,
		HTTPStatus:    status,
		Retryable:     status >= 500,
		Timestamp:     time.Now().UTC(),
	}
}

func NewDecodeError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecodeFailed,
		Message:   fmt.Sprintf("Loan service response for '%s' could not be decoded", operation),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidFilterError(value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilter,
		Message:   "Unknown status filter",
		Details:   fmt.Sprintf("statusFilter: %q", value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidCommandError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCommand,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard unwraps err into a *StandardError when one is in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, ErrCodeInternal for foreign errors and ""
// for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

func IsAuthError(err error) bool {
	return CodeOf(err) == ErrCodeNotAuthenticated
}

// UserMessage picks the text shown to the user: the server-supplied message
// when the loan service sent one, the auth message for auth errors, the
// message of validation errors, otherwise fallback.
func UserMessage(err error, fallback string) string {
	stdErr, ok := AsStandard(err)
	if !ok {
		return fallback
	}
	switch stdErr.Code {
	case ErrCodeNetwork:
		if stdErr.ServerMessage != "" {
			return stdErr.ServerMessage
		}
	case ErrCodeNotAuthenticated, ErrCodeInvalidFilter, ErrCodeInvalidCommand:
		return stdErr.Message
	}
	return fallback
}
