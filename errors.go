package membership

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeAccountDisabled    = "ACCOUNT_DISABLED"
	TextCodeBadCredential      = "BAD_CREDENTIAL"
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeExpiredToken       = "EXPIRED_TOKEN"
	TextCodeContextUnavailable = "CONTEXT_UNAVAILABLE"
	TextCodeInvalidConfig      = "INVALID_CONFIG"
)

// ErrAccountNotFound is returned when no account matches the login name
var ErrAccountNotFound = errors.New("account does not exist", errors.CategoryAuth).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrAccountDisabled is returned when the matched account is disabled
var ErrAccountDisabled = errors.New("account is disabled", errors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeForbidden)

// ErrBadCredential is returned when the password does not match
var ErrBadCredential = errors.New("incorrect password", errors.CategoryAuth).
	WithTextCode(TextCodeBadCredential).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken malformed, unsigned or unverifiable token
var ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrExpiredToken token expiry is in the past
var ErrExpiredToken = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(errors.CodeUnauthorized)

// ErrContextUnavailable the host session store is not ready yet
var ErrContextUnavailable = errors.New("request context unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeContextUnavailable).
	WithCode(errors.CodeInternal)

// ErrInvalidConfig is returned by New when options do not validate
var ErrInvalidConfig = errors.New("invalid membership configuration", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidConfig).
	WithCode(errors.CodeBadRequest)

// IsInvalidToken reports whether err is, or wraps, an invalid token error
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

// IsExpiredToken reports whether err is, or wraps, an expired token error
func IsExpiredToken(err error) bool {
	return hasTextCode(err, TextCodeExpiredToken)
}

// IsAuthenticationError reports whether err is one of the user facing
// login failures.
func IsAuthenticationError(err error) bool {
	return hasTextCode(err, TextCodeAccountNotFound) ||
		hasTextCode(err, TextCodeAccountDisabled) ||
		hasTextCode(err, TextCodeBadCredential)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}

	return richErr.TextCode == code
}

func isNotFound(err error) bool {
	return err != nil && errors.IsNotFound(err)
}
