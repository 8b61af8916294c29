package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application-level error with HTTP status code
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeUnauthorized          = "unauthorized"
	ErrCodeForbidden             = "forbidden"
	ErrCodeNotFound              = "not_found"
	ErrCodeBadRequest            = "bad_request"
	ErrCodeConflict              = "conflict"
	ErrCodeRateLimited           = "rate_limited"
	ErrCodeInternalError         = "internal_error"
	ErrCodeNotReady              = "not_ready"
	ErrCodeInvalidAddress        = "invalid_address"
	ErrCodeCreationInFlight      = "creation_in_flight"
	ErrCodeWalletCreationFailed  = "wallet_creation_failed"
	ErrCodeWalletNotFound        = "wallet_not_found"
	ErrCodeSigningFailed         = "signing_failed"
	ErrCodeSubmissionFailed      = "submission_failed"
	ErrCodeSubmissionUnconfirmed = "submission_unconfirmed"
	ErrCodeInvalidSignature      = "invalid_signature"
	ErrCodeChainNotSupported     = "chain_not_supported"
	ErrCodeUpstreamUnavailable   = "upstream_unavailable"
	ErrCodeIdempotencyKeyReused  = "idempotency_key_reused"
)

// Predefined errors
var (
	ErrUnauthorized = &AppError{
		Code:       ErrCodeUnauthorized,
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       ErrCodeForbidden,
		Message:    "Access denied",
		StatusCode: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       ErrCodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:       ErrCodeBadRequest,
		Message:    "Invalid request parameters",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternalError = &AppError{
		Code:       ErrCodeInternalError,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	ErrCreationInFlight = &AppError{
		Code:       ErrCodeCreationInFlight,
		Message:    "Wallet creation already in progress",
		StatusCode: http.StatusConflict,
	}
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithDetail creates a new AppError with additional detail
func NewWithDetail(code, message, detail string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Detail:     detail,
		StatusCode: statusCode,
	}
}

// NotReady indicates the identity provider or chain connection is not
// initialized yet. Deferred work, not a hard failure.
func NotReady(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeNotReady,
		Message:    "Provider not ready",
		Detail:     detail,
		StatusCode: http.StatusServiceUnavailable,
	}
}

// InvalidAddress creates an invalid chain address error
func InvalidAddress(chain string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidAddress,
		Message:    fmt.Sprintf("Invalid %s address", chain),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// SigningFailed creates a signing failure error
func SigningFailed(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeSigningFailed,
		Message:    "Transaction signing failed",
		Detail:     detail,
		StatusCode: http.StatusBadGateway,
	}
}

// SubmissionFailed creates a network submission failure error
func SubmissionFailed(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeSubmissionFailed,
		Message:    "Transaction submission failed",
		Detail:     detail,
		StatusCode: http.StatusBadGateway,
	}
}

// SubmissionUnconfirmed indicates the transaction was signed but the chain has
// no record of the signature. The caller must treat the outcome as unknown.
func SubmissionUnconfirmed(signature string) *AppError {
	return &AppError{
		Code:       ErrCodeSubmissionUnconfirmed,
		Message:    "Transaction submission unconfirmed",
		Detail:     fmt.Sprintf("signature: %s", signature),
		StatusCode: http.StatusGatewayTimeout,
	}
}

// WalletNotFound creates a wallet not found error
func WalletNotFound(userID string) *AppError {
	return &AppError{
		Code:       ErrCodeWalletNotFound,
		Message:    "Wallet not found",
		Detail:     fmt.Sprintf("user: %s", userID),
		StatusCode: http.StatusNotFound,
	}
}

// InvalidSignature creates an invalid message signature error
func InvalidSignature(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidSignature,
		Message:    "Invalid wallet signature",
		Detail:     detail,
		StatusCode: http.StatusUnauthorized,
	}
}

// UpstreamUnavailable creates an error for a failing collaborator API
func UpstreamUnavailable(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeUpstreamUnavailable,
		Message:    "Upstream service unavailable",
		Detail:     detail,
		StatusCode: http.StatusBadGateway,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
