// Package skillerr defines the error kinds every skill can return.
//
// Each kind names the field or table it concerns and matches its sentinel
// through errors.Is, so callers can branch on the kind without a type switch.
package skillerr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrDataNotFound is matched by every *DataNotFoundError.
	ErrDataNotFound = errors.New("reference data not found")
	// ErrRange is matched by every *RangeError.
	ErrRange = errors.New("value out of range")
)

// ValidationError reports a missing, mistyped, or out-of-domain input field.
type ValidationError struct {
	Field  string
	Reason string
}

// Validation builds a ValidationError with a formatted reason.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DataNotFoundError reports a reference table that is absent, unreadable, or malformed.
type DataNotFoundError struct {
	Table  string
	Reason string
	Err    error
}

// DataNotFound builds a DataNotFoundError wrapping cause (which may be nil).
func DataNotFound(table string, cause error, format string, args ...any) *DataNotFoundError {
	return &DataNotFoundError{Table: table, Reason: fmt.Sprintf(format, args...), Err: cause}
}

func (e *DataNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reference table %q: %s: %v", e.Table, e.Reason, e.Err)
	}
	return fmt.Sprintf("reference table %q: %s", e.Table, e.Reason)
}

func (e *DataNotFoundError) Unwrap() error { return e.Err }

func (e *DataNotFoundError) Is(target error) bool { return target == ErrDataNotFound }

// RangeError reports a numeric value outside its permitted domain.
type RangeError struct {
	Field string
	Value float64
	Min   *float64
	Max   *float64
}

// Range builds a RangeError. Pass nil for an open bound.
func Range(field string, value float64, lo, hi *float64) *RangeError {
	return &RangeError{Field: field, Value: value, Min: lo, Max: hi}
}

func (e *RangeError) Error() string {
	switch {
	case e.Min != nil && e.Max != nil:
		return fmt.Sprintf("%s = %v is outside [%v, %v]", e.Field, e.Value, *e.Min, *e.Max)
	case e.Min != nil:
		return fmt.Sprintf("%s = %v is below %v", e.Field, e.Value, *e.Min)
	case e.Max != nil:
		return fmt.Sprintf("%s = %v is above %v", e.Field, e.Value, *e.Max)
	default:
		return fmt.Sprintf("%s = %v is not a finite number", e.Field, e.Value)
	}
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }

// Kind returns a stable, lower-case name for the error kind of err, or "" when
// err is none of the skill error kinds.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDataNotFound):
		return "data_not_found"
	case errors.Is(err, ErrRange):
		return "range"
	default:
		return ""
	}
}

// Bound is a convenience for taking the address of a bound literal.
func Bound(v float64) *float64 { return &v }
