package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeExamNotFound     = "EXAM_NOT_FOUND"
	CodePhoneExists      = "PHONE_EXISTS"
)

// ExamdeskError is a failure meant to be shown to API callers as is.
type ExamdeskError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e ExamdeskError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(field string, msg string) ExamdeskError {
	var details map[string]any
	if field != "" {
		details = map[string]any{"field": field}
	}
	return ExamdeskError{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: msg,
		Details: details,
	}
}

// NewRequiredError is the error for a missing or blank field.
func NewRequiredError(field string) ExamdeskError {
	return NewValidationError(field, field+" is required")
}

func NewNotFound(code string, msg string, details map[string]any) ExamdeskError {
	return ExamdeskError{
		Status:  http.StatusNotFound,
		Code:    code,
		Message: msg,
		Details: details,
	}
}

func NewConflict(code string, msg string, details map[string]any) ExamdeskError {
	return ExamdeskError{
		Status:  http.StatusConflict,
		Code:    code,
		Message: msg,
		Details: details,
	}
}

func NewInternal(msg string) ExamdeskError {
	return ExamdeskError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: msg,
	}
}

// AsExamdeskError finds an ExamdeskError anywhere in err's chain.
func AsExamdeskError(err error) (ExamdeskError, bool) {
	var ee ExamdeskError
	if err == nil {
		return ee, false
	}
	if pkgerrors.As(err, &ee) {
		return ee, true
	}
	return ee, false
}

func hasStatus(err error, status int) bool {
	ee, ok := AsExamdeskError(err)
	return ok && ee.Status == status
}

func IsValidation(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	ee, ok := AsExamdeskError(err)
	return ok && ee.Code == code
}
