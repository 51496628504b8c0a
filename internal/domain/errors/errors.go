package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConfiguration     = errors.New("configuration error")
	ErrCrypto            = errors.New("crypto error")
	ErrChain             = errors.New("chain error")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTokenNotDeployed  = fmt.Errorf("%w: community token not deployed", ErrNotFound)

	// ErrStatusConflict is returned when a settlement transaction is no longer
	// PENDING at the time a resolution is attempted.
	ErrStatusConflict = errors.New("settlement status conflict")
)

// Error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeCrypto        = "CRYPTO_ERROR"
	CodeChain         = "CHAIN_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

// Unwrap exposes both the error kind and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Err != nil {
		out = append(out, e.Err)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) withCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

// Validation is the ValidationError of the settlement taxonomy.
func Validation(message string) *AppError {
	return BadRequest(message)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

// Forbidden is the AuthorizationError of the settlement taxonomy.
func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

// TokenNotDeployed rejects settlements for a community without a token address.
func TokenNotDeployed() *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, "community token not deployed", ErrTokenNotDeployed)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func Configuration(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeConfiguration, message, ErrConfiguration)
}

// Crypto wraps a key vault failure. The cause is kept for logs; the
// message never includes key material.
func Crypto(message string, cause error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeCrypto, message, ErrCrypto).withCause(cause)
}

// Chain wraps a revert, RPC failure or malformed response. The underlying
// message is surfaced to the caller.
func Chain(message string, cause error) *AppError {
	msg := message
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", message, cause)
	}
	return NewAppError(http.StatusBadGateway, CodeChain, msg, ErrChain).withCause(cause)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
