package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients.
const (
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeDuplicatePhone     = "DUPLICATE_PHONE"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeWrongTokenKind     = "WRONG_TOKEN_KIND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeRetryable          = "RETRYABLE"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Retryable  bool
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewDuplicateEmail() error {
	return NewDomainError(CodeDuplicateEmail, "email already registered", http.StatusBadRequest, nil)
}

func NewDuplicatePhone() error {
	return NewDomainError(CodeDuplicatePhone, "phone number already registered", http.StatusBadRequest, nil)
}

func NewWeakPassword() error {
	return NewDomainError(CodeWeakPassword, "password must be at least 8 characters long", http.StatusBadRequest, nil)
}

// NewInvalidCredentials is the single constructor for failed logins so the
// unknown-email and wrong-password paths stay byte-identical on the wire.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "incorrect email or password", http.StatusUnauthorized, nil)
}

func NewAccountDeactivated() error {
	return NewDomainError(CodeAccountDeactivated, "account is deactivated", http.StatusUnauthorized, nil)
}

func NewInvalidToken() error {
	return NewDomainError(CodeInvalidToken, "invalid or expired token", http.StatusUnauthorized, nil)
}

func NewWrongTokenKind() error {
	return NewDomainError(CodeWrongTokenKind, "invalid token type", http.StatusUnauthorized, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewAccountNotFound() error {
	return NewDomainError(CodeAccountNotFound, "account not found", http.StatusBadRequest, nil)
}

func NewRateLimited() error {
	return NewDomainError(CodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests, nil)
}

// NewRetryable marks a transient infrastructure failure the caller may retry
// with backoff, as opposed to a definitive rejection.
func NewRetryable(err error) error {
	return &DomainError{
		Code:       CodeRetryable,
		Message:    "temporarily unavailable, retry later",
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf returns the domain error code, or an empty string for foreign errors.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// ToDomainError converts generic errors to DomainError. Deadline and
// cancellation failures become retryable; any other unknown error collapses
// to an opaque internal error so no detail leaks outward.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if de, ok := NewRetryable(err).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
