// Package errors defines the application error taxonomy. Every rejected
// precondition carries a (category, code) pair so the boundary layer can map
// it to a structured response and clients can branch on the exact cause.
package errors

import (
	"net/http"

	"securelogin/internal/errors"
)

// Failure categories. A category groups the codes raised by one area of the
// authentication flow.
const (
	CategoryAccountCreation = "AccountCreationFailure"
	CategoryLogin           = "LoginFailure"
	CategoryPassword        = "PasswordFailure"
	CategoryLogout          = "AccountLogoutFailure"
	CategoryKickout         = "KickoutAllSessionFailure"
	CategoryToken           = "TokenFailure"
)

// AppError defines the interface for application-specific errors.
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	Category() string  // Failure category, e.g. "LoginFailure"
	ErrorCode() string // Business error code, e.g. "AccountObsoleteToken"
	Message() string   // User-facing error message
}

// BaseError is a basic error structure that implements the AppError interface.
type BaseError struct {
	httpCode  int
	category  string
	errorCode string
	message   string
}

// NewBaseError creates a new base error.
func NewBaseError(httpCode int, category, errorCode, message string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		category:  category,
		errorCode: errorCode,
		message:   message,
	}
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message.
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code.
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// Category returns the failure category.
func (e *BaseError) Category() string {
	return e.category
}

// ErrorCode returns the business error code.
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-facing error message.
func (e *BaseError) Message() string {
	return e.message
}

// Account creation failures.
var ErrAccountAlreadyExist = NewBaseError(
	http.StatusBadRequest,
	CategoryAccountCreation,
	"AccountAlreadyExist",
	"failed to create an account as the login identifier already exists",
)

// Login failures raised by the account sanity check and credential checks.
var (
	ErrAccountNotExist = NewBaseError(
		http.StatusBadRequest,
		CategoryLogin,
		"AccountNotExist",
		"the user doesn't exist",
	)

	ErrAccountInvalidAuthType = NewBaseError(
		http.StatusBadRequest,
		CategoryLogin,
		"AccountInvalidAuthType",
		"authentication method doesn't match",
	)

	ErrAccountInactive = NewBaseError(
		http.StatusBadRequest,
		CategoryLogin,
		"AccountInactive",
		"the user account is not active anymore",
	)

	ErrAccountInvalidPassword = NewBaseError(
		http.StatusBadRequest,
		CategoryLogin,
		"AccountInvalidPassword",
		"wrong password",
	)

	ErrSMSSendFailure = NewBaseError(
		http.StatusBadRequest,
		CategoryLogin,
		"SMSSendFailure",
		"can't send sms code due to system failure",
	)

	ErrSMSVerifyFailure = NewBaseError(
		http.StatusBadRequest,
		CategoryLogin,
		"SMSVerifyFailure",
		"incorrect sms code",
	)
)

// Login failures raised by the refresh-token sanity check. These surface as
// unauthorized because the presented credential itself is no longer usable.
var (
	ErrAccountNoLogin = NewBaseError(
		http.StatusUnauthorized,
		CategoryLogin,
		"AccountNoLogin",
		"the user didn't login",
	)

	ErrAccountObsoleteToken = NewBaseError(
		http.StatusUnauthorized,
		CategoryLogin,
		"AccountObsoleteToken",
		"the refresh token is already obsolete",
	)

	ErrAccountInvalidSession = NewBaseError(
		http.StatusUnauthorized,
		CategoryLogin,
		"AccountInvalidSession",
		"corrupted refresh token, user doesn't match the session",
	)

	ErrAccountInactiveToken = NewBaseError(
		http.StatusUnauthorized,
		CategoryLogin,
		"AccountInactiveToken",
		"the refresh token is inactive, user already logged out",
	)
)

// Password change failures.
var ErrChangePasswordFailed = NewBaseError(
	http.StatusBadRequest,
	CategoryPassword,
	"ChangePasswordFailed",
	"password is not correct",
)

// Logout and kickout failures.
var (
	ErrLogoutInvalidUserID = NewBaseError(
		http.StatusBadRequest,
		CategoryLogout,
		"InvalidUserId",
		"the refresh token is inconsistent with the access token",
	)

	ErrKickoutInvalidUserID = NewBaseError(
		http.StatusBadRequest,
		CategoryKickout,
		"InvalidUserId",
		"the refresh token is inconsistent with the access token",
	)
)

// Transport-level token failures raised by the boundary layer.
var (
	ErrAccessTokenExpired = NewBaseError(
		http.StatusUnauthorized,
		CategoryToken,
		"AccessTokenExpired",
		"the access token is expired, please refresh it",
	)

	ErrRefreshTokenExpired = NewBaseError(
		http.StatusUnauthorized,
		CategoryToken,
		"RefreshTokenExpired",
		"the refresh token is expired, please login again",
	)

	ErrFreshTokenRequired = NewBaseError(
		http.StatusUnauthorized,
		CategoryToken,
		"FreshTokenRequired",
		"the token is not fresh, please login again",
	)

	ErrTokenRevoked = NewBaseError(
		http.StatusUnauthorized,
		CategoryToken,
		"TokenRevoked",
		"the token has been revoked",
	)

	ErrTokenInvalid = NewBaseError(
		http.StatusUnauthorized,
		CategoryToken,
		"TokenInvalid",
		"invalid or malformed token",
	)

	ErrUnsupportedAuthType = NewBaseError(
		http.StatusBadRequest,
		CategoryLogin,
		"UnsupportedAuthType",
		"unsupported authentication method",
	)
)
