package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes aggregate failure semantics across domains.
type ErrorCode string

const (
	CodeValidation ErrorCode = "validation"
	CodeNotFound   ErrorCode = "not_found"
	CodeConflict   ErrorCode = "conflict"
	CodeForbidden  ErrorCode = "forbidden"
	CodeRetryable  ErrorCode = "retryable"
	CodeInternal   ErrorCode = "internal"
)

// Reason is a machine-readable failure condition. Reasons are comparable, so
// errors.Is(err, ReasonDuplicateIngredient) works through any wrapping.
type Reason string

func (r Reason) Error() string { return strings.ReplaceAll(string(r), "_", " ") }

const (
	ReasonEmptyIngredients    Reason = "empty_ingredients"
	ReasonDuplicateIngredient Reason = "duplicate_ingredient"
	ReasonEmptyTags           Reason = "empty_tags"
	ReasonDuplicateTag        Reason = "duplicate_tag"
	ReasonUnknownReference    Reason = "unknown_reference"
	ReasonBelowMinimum        Reason = "below_minimum"
	ReasonMissingField        Reason = "missing_field"
	ReasonTooLong             Reason = "too_long"

	ReasonAlreadyExists      Reason = "already_exists"
	ReasonMembershipNotFound Reason = "membership_not_found"
	ReasonSelfSubscribe      Reason = "self_subscribe"

	ReasonRecipeNotFound Reason = "recipe_not_found"
	ReasonNotAuthor      Reason = "not_author"

	ReasonInvalidImage Reason = "invalid_image"
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Fail builds an aggregate error whose cause is reason, attributed to field.
func Fail(code ErrorCode, op string, reason Reason, field, message string) error {
	if strings.TrimSpace(message) == "" {
		message = reason.Error()
	}
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Field:   strings.TrimSpace(field),
		Message: strings.TrimSpace(message),
		Cause:   reason,
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// ReasonOf extracts the first Reason in err's chain.
func ReasonOf(err error) Reason {
	var r Reason
	if errors.As(err, &r) {
		return r
	}
	return ""
}

// FieldOf extracts the offending input field when available.
func FieldOf(err error) string {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Field
}
