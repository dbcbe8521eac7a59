package errs

import (
	"errors"
	"fmt"
	"net/http"

	"gardentrade/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It carries a business code, a user-facing message and the HTTP status used when
// the error reaches a handler.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int

	// cause is the underlying error, if any. It is never shown to clients.
	cause error
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("Error Code %d (HTTP %d): %s: %v", e.Code, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CustomError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a CustomError with the same code, so
// errors.Is(err, errs.NewError(errs.ErrTradeNotFound)) works across wrapping.
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError constructs a *CustomError from a predefined code.
// Unknown codes are logged and turned into ErrUnknown.
func NewError(code int) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr
	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	return &customErr
}

// Wrap constructs a *CustomError from a predefined code and attaches cause.
func Wrap(code int, cause error) *CustomError {
	customErr := NewError(code)
	customErr.cause = cause
	return customErr
}

// From extracts the *CustomError in err's chain. Any other non-nil error
// becomes ErrUnknown wrapping it.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	return Wrap(ErrUnknown, err)
}

// Code returns the business code carried by err, or 0 when err has none.
func Code(err error) int {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return 0
}

// HasCode reports whether err carries the given business code.
func HasCode(err error, code int) bool {
	return err != nil && Code(err) == code
}

// IsValidation reports whether err is a recoverable input error.
func IsValidation(err error) bool {
	c := Code(err)
	return c >= 1000 && c < 2000
}

// IsAuth reports whether err is a credential or permission error.
func IsAuth(err error) bool {
	c := Code(err)
	return c >= 3000 && c < 4000
}

// IsNotFound reports whether err refers to an unknown trade, conversation or user.
func IsNotFound(err error) bool {
	c := Code(err)
	return c >= 4000 && c < 5000
}
