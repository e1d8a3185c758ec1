// Package apperr holds the small error vocabulary the event pipeline exposes to callers.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// DefaultRetryAfter is the backoff hint attached to every ServiceUnavailable error.
const DefaultRetryAfter = 3600 * time.Second

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrCurrencyNotFound   = errors.New("currency not found")
	ErrServiceUnavailable = errors.New("service unavailable")
)

type CurrencyNotFoundError struct {
	Code string
}

func NewCurrencyNotFound(code string) *CurrencyNotFoundError {
	return &CurrencyNotFoundError{Code: code}
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("currency not found: %s", e.Code)
}

func (e *CurrencyNotFoundError) Is(target error) bool {
	return target == ErrCurrencyNotFound
}

// ServiceUnavailableError reports a failed external collaborator.
// The cause is kept for logs only and is deliberately not unwrappable.
type ServiceUnavailableError struct {
	RetryAfter time.Duration
	cause      error
}

func Unavailable(cause error) *ServiceUnavailableError {
	return &ServiceUnavailableError{RetryAfter: DefaultRetryAfter, cause: cause}
}

func (e *ServiceUnavailableError) Error() string {
	return "external service unavailable"
}

func (e *ServiceUnavailableError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

func (e *ServiceUnavailableError) Cause() error {
	return e.cause
}

// Normalize keeps errors that already belong to the vocabulary and turns
// everything else into ServiceUnavailable.
func Normalize(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrRateLimitExceeded),
		errors.Is(err, ErrCurrencyNotFound),
		errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidDateRange):
		return err
	default:
		return Unavailable(err)
	}
}

// Kind returns a stable label for err, suitable for metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limit_exceeded"
	case errors.Is(err, ErrCurrencyNotFound):
		return "currency_not_found"
	default:
		return "service_unavailable"
	}
}
