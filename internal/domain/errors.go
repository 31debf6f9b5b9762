package domain

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidBoxDimensions = errors.New("box dimensions missing or non-positive")
	ErrInvalidParcelWeight  = errors.New("parcel weight missing or non-positive")
	ErrVolumeOutOfRange     = errors.New("box volume too large to represent")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderIDRequired      = errors.New("order id is required")
)

// ValidationError reports a box or parcel input that cannot be evaluated.
// Index is the position of the offending entry in its list, or -1 when a
// single box was evaluated.
type ValidationError struct {
	Index int
	Field string
	Value float64
	Err   error
}

func newBoxValidationError(index int, field string, value float64) *ValidationError {
	return &ValidationError{Index: index, Field: field, Value: value, Err: ErrInvalidBoxDimensions}
}

func newVolumeRangeError(index int, volume float64) *ValidationError {
	return &ValidationError{Index: index, Field: "volume", Value: volume, Err: ErrVolumeOutOfRange}
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s=%v", e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: [%d].%s=%v", e.Err, e.Index, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FieldPath returns the request path of the offending field, for example
// "boxes[2].depth".
func (e *ValidationError) FieldPath(collection string) string {
	if e.Index < 0 {
		return e.Field
	}
	return fmt.Sprintf("%s[%d].%s", collection, e.Index, e.Field)
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
