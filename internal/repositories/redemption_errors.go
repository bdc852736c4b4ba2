package repositories

import "fmt"

// RedemptionErrorCode enumerates failure reasons for promo redemption operations.
type RedemptionErrorCode string

const (
	// RedemptionErrorUnknown represents an unspecified failure.
	RedemptionErrorUnknown RedemptionErrorCode = "redemption_unknown"
	// RedemptionErrorInvalidInput indicates the caller supplied invalid arguments.
	RedemptionErrorInvalidInput RedemptionErrorCode = "redemption_invalid_input"
	// RedemptionErrorExhausted indicates the code already reached its usage ceiling.
	RedemptionErrorExhausted RedemptionErrorCode = "redemption_exhausted"
	// RedemptionErrorNotFound indicates the code does not exist in the ledger.
	RedemptionErrorNotFound RedemptionErrorCode = "redemption_not_found"
)

// RedemptionError wraps redemption-specific failures with machine readable codes.
type RedemptionError struct {
	Op      string
	Code    RedemptionErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RedemptionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *RedemptionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewRedemptionError constructs a typed redemption error.
func NewRedemptionError(code RedemptionErrorCode, message string, err error) *RedemptionError {
	if message == "" {
		message = string(code)
	}
	return &RedemptionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
