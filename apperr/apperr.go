// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"net/http"
	"time"
)

type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeDuplicateVote      Code = "duplicate_vote"
	CodeNotOwner           Code = "not_owner"
	CodeExplicitContent    Code = "explicit_content"
	CodeForbidden          Code = "forbidden"
	CodeCsrfInvalid        Code = "csrf_invalid"
	CodeNotFound           Code = "not_found"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeRejected           Code = "rejected"
	CodeLockedOut          Code = "locked_out"
	CodeStorageUnavailable Code = "storage_unavailable"
)

// Sentinels for errors.Is. Match by code only.
var (
	ErrInvalidInput       = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrDuplicateVote      = &Error{Code: CodeDuplicateVote, Message: "already voted for this teacher"}
	ErrNotOwner           = &Error{Code: CodeNotOwner, Message: "vote belongs to another identity"}
	ErrExplicitContent    = &Error{Code: CodeExplicitContent, Message: "comment contains explicit language"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrCsrfInvalid        = &Error{Code: CodeCsrfInvalid, Message: "missing or invalid CSRF token"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthenticated    = &Error{Code: CodeUnauthenticated, Message: "authentication required"}
	ErrRejected           = &Error{Code: CodeRejected, Message: "invalid credentials"}
	ErrLockedOut          = &Error{Code: CodeLockedOut, Message: "account is locked"}
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Message: "storage unavailable"}
)

type Error struct {
	Code    Code
	Message string
	// RetryAfter is set for locked_out and storage_unavailable.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Invalid(msg string) *Error   { return New(CodeInvalidInput, msg) }
func NotFound(msg string) *Error  { return New(CodeNotFound, msg) }
func Forbidden(msg string) *Error { return New(CodeForbidden, msg) }

// Storage wraps a database failure. A nil err yields nil.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Code: CodeStorageUnavailable, Message: "storage unavailable", RetryAfter: time.Second, Err: err}
}

func LockedOut(msg string, remaining time.Duration) *Error {
	return &Error{Code: CodeLockedOut, Message: msg, RetryAfter: remaining}
}

// As extracts an *Error. Unknown errors are reported as storage failures
// so that nothing leaks past the transport as a 200.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: CodeStorageUnavailable, Message: "internal error", RetryAfter: time.Second, Err: err}
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return As(err).Code
}

func Status(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeRejected:
		return http.StatusUnauthorized
	case CodeDuplicateVote, CodeNotOwner, CodeExplicitContent, CodeForbidden, CodeCsrfInvalid:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLockedOut:
		return http.StatusLocked
	default:
		return http.StatusServiceUnavailable
	}
}
