// errors.go: error kinds for the shell string-processing core
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for the core's sum type (spec §7).
const (
	// ErrCodeSyntax is an unmatched brace/quote/paren, bad variable
	// name, bad escape, or bad slice.
	ErrCodeSyntax errors.ErrorCode = "SHC1000"
	// ErrCodeCmdSubstForbidden is a subshell under SKIP_CMDSUBST.
	ErrCodeCmdSubstForbidden errors.ErrorCode = "SHC1001"
	// ErrCodeCmdSubstFailed is the evaluator returning an error.
	ErrCodeCmdSubstFailed errors.ErrorCode = "SHC1002"
	// ErrCodeMultipleResults is from ExpandOne.
	ErrCodeMultipleResults errors.ErrorCode = "SHC1003"
	// ErrCodeOutOfMemory propagates an allocator failure unchanged.
	ErrCodeOutOfMemory errors.ErrorCode = "SHC1004"
	// ErrCodeCancelled is from a cancellation check during completion.
	ErrCodeCancelled errors.ErrorCode = "SHC1005"
	// ErrCodeArgTooLong is from an argument exceeding ShellConfig.MaxArgLength.
	ErrCodeArgTooLong errors.ErrorCode = "SHC1006"
)

// ShellError is the core's error type, wrapping go-errors the same way
// the teacher's OrpheusError wraps it.
type ShellError struct {
	goError *errors.Error
	Offset  int
}

// NewShellError creates a ShellError with a source offset for
// diagnostics (spec §7: "diagnostics are attached to source offsets").
func NewShellError(code errors.ErrorCode, offset int, message string) *ShellError {
	err := errors.New(code, message).
		WithContext("offset", offset).
		WithSeverity("error")
	return &ShellError{goError: err, Offset: offset}
}

func (e *ShellError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("at offset %d: %s", e.Offset, e.goError.Error())
	}
	return e.goError.Error()
}

// ErrorCode returns the underlying error code.
func (e *ShellError) ErrorCode() errors.ErrorCode { return e.goError.ErrorCode() }

// Unwrap exposes the wrapped go-errors error for errors.Is/As chains.
func (e *ShellError) Unwrap() error { return e.goError }

// IsSyntax reports whether this is a syntax error.
func (e *ShellError) IsSyntax() bool { return e.ErrorCode() == ErrCodeSyntax }

// IsCancelled reports whether this is a cancellation error.
func (e *ShellError) IsCancelled() bool { return e.ErrorCode() == ErrCodeCancelled }

// WithUserMessage adds a user-friendly message and returns the error
// for chaining, mirroring the teacher's OrpheusError API.
func (e *ShellError) WithUserMessage(msg string) *ShellError {
	e.goError.WithUserMessage(msg)
	return e
}

// WithContext adds context information and returns the error for
// chaining.
func (e *ShellError) WithContext(key string, value interface{}) *ShellError {
	e.goError.WithContext(key, value)
	return e
}

// SyntaxError builds a Syntax error (spec §7).
func SyntaxError(offset int, message string) *ShellError {
	return NewShellError(ErrCodeSyntax, offset, message).
		WithUserMessage("syntax error")
}

// CmdSubstForbiddenError builds a CmdSubstForbidden error.
func CmdSubstForbiddenError(offset int) *ShellError {
	return NewShellError(ErrCodeCmdSubstForbidden, offset, "command substitution not allowed here").
		WithUserMessage("command substitution not allowed here")
}

// CmdSubstFailedError wraps an inner evaluator error.
func CmdSubstFailedError(offset int, inner error) *ShellError {
	msg := "command substitution failed"
	if inner != nil {
		msg = msg + ": " + inner.Error()
	}
	return NewShellError(ErrCodeCmdSubstFailed, offset, msg).
		WithUserMessage("command substitution failed")
}

// MultipleResultsError builds the ExpandOne cardinality error.
func MultipleResultsError() *ShellError {
	return NewShellError(ErrCodeMultipleResults, -1, "expansion produced more than one result").
		WithUserMessage("expected a single value")
}

// CancelledError builds a Cancelled error for a completion run.
func CancelledError() *ShellError {
	return NewShellError(ErrCodeCancelled, -1, "completion run cancelled").
		WithUserMessage("cancelled")
}

// argTooLongError builds the error for an expansion input exceeding
// ShellConfig.MaxArgLength, adapted from the teacher's
// validation.go InputValidator length check.
func argTooLongError(length, max int) *ShellError {
	return NewShellError(ErrCodeArgTooLong, -1, fmt.Sprintf("argument too long (max %d characters): length=%d", max, length)).
		WithUserMessage("argument too long")
}
