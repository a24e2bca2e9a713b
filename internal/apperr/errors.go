package apperr

import (
	"errors"
	"fmt"
)

// Code categorizes application errors.
type Code string

const (
	// CodeInitFailed indicates the store could not be provisioned. Fatal.
	CodeInitFailed Code = "INIT_FAILED"

	// CodeMigrationFailed indicates a schema migration statement failed. Fatal.
	CodeMigrationFailed Code = "MIGRATION_FAILED"

	// CodeSyncFailed indicates a single cache-to-store upsert failed. Recoverable.
	CodeSyncFailed Code = "SYNC_FAILED"

	// CodeQueryPolicyViolation indicates a non-SELECT statement reached the gateway.
	CodeQueryPolicyViolation Code = "QUERY_POLICY_VIOLATION"

	// CodeQueryExecutionFailed indicates the store rejected the SQL.
	CodeQueryExecutionFailed Code = "QUERY_EXECUTION_FAILED"

	// CodeValidationFailed indicates a record has malformed fields.
	CodeValidationFailed Code = "VALIDATION_FAILED"
)

// Error is an application error with a stable category code.
//
// Fatal codes (INIT_FAILED, MIGRATION_FAILED) abort the current operation
// and surface to the caller. Recoverable codes are handled at the boundary
// where they occur and do not propagate past it.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Fields carries field-level messages for validation errors.
	Fields map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error wrapping an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the category code from an error.
// Returns the empty code if the error is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsPolicyViolation reports whether the error is a read-only policy violation.
func IsPolicyViolation(err error) bool {
	return CodeOf(err) == CodeQueryPolicyViolation
}

// IsValidation reports whether the error is a record validation failure.
func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidationFailed
}

// IsFatal reports whether the error is a fatal startup condition.
func IsFatal(err error) bool {
	code := CodeOf(err)
	return code == CodeInitFailed || code == CodeMigrationFailed
}
