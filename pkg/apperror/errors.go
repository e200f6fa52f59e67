package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrInternal          = errors.New("internal server error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Rewards domain errors.
var (
	ErrNotAuthenticated     = errors.New("please sign in")
	ErrInvalidReferralCode  = errors.New("invalid referral code")
	ErrSelfReferral         = errors.New("cannot apply your own referral code")
	ErrEvidenceUploadFailed = errors.New("evidence upload failed")
	ErrClaimRecordFailed    = errors.New("failed to record claim")
	ErrInvalidTransition    = errors.New("claim is no longer pending")

	// ErrConstraintConflict marks a lost uniqueness race. Services convert it into
	// the idempotent "already done" result; it must not reach a caller.
	ErrConstraintConflict = errors.New("constraint conflict")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidReferralCode),
		errors.Is(err, ErrSelfReferral):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrEvidenceUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConstraintConflict):
		return http.StatusConflict
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
