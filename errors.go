package authkit

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair does not
	// match a stored record. Unknown email and wrong password are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by identity-keyed flows such as refresh
	// when the subject no longer exists in the store. UserStore lookups
	// return it for missing records.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenInvalid is returned for any bearer token that fails validation:
	// bad signature, malformed, or expired. Callers are not told which.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrForbiddenToken is returned when a token prefix is configured but the
	// presented credential does not carry it.
	ErrForbiddenToken = errors.New("invalid token format")
	// ErrResetTokenInvalid is returned when a reset token fails verification
	// or does not match the value currently stored on the user record.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrTwoFactorInvalid is returned for a 2FA code that does not verify.
	ErrTwoFactorInvalid = errors.New("invalid 2fa code")
	// ErrTwoFactorNotEnabled is returned when a 2FA flow targets a user with
	// no enrolled second factor.
	ErrTwoFactorNotEnabled = errors.New("2fa not enabled")
	// ErrTwoFactorUnavailable is returned when secret generation or QR
	// rendering fails.
	ErrTwoFactorUnavailable = errors.New("2fa backend unavailable")
	// ErrLoginRateLimited is returned when the login throttle budget for an
	// identifier or IP is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrResetRateLimited is returned when the reset-request throttle budget
	// is exhausted.
	ErrResetRateLimited = errors.New("password reset rate limited")
	// ErrStoreUnavailable is returned when a credential store lookup fails
	// for a reason other than a missing record. Forgot-password surfaces it
	// instead of the uniform confirmation; token-holding flows keep failing
	// closed with their own sentinels.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrEngineNotReady is returned when a method is called on a nil or
	// incompletely built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// StatusCode maps an Engine error onto the caller-facing HTTP status.
// Unknown errors fail closed as 401: flows never surface an untagged failure
// with more detail than an authorization denial.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrPasswordMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbiddenToken):
		return http.StatusForbidden
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrResetRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusUnauthorized
	}
}
