// Package apperr holds the error kinds services return so that transport
// layers can map them without string matching.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

type kindError struct {
	kind    error
	message string
}

func (e *kindError) Error() string        { return e.message }
func (e *kindError) Is(target error) bool { return target == e.kind }

// NotFound returns "<entity> not found".
func NotFound(entity string) error {
	return &kindError{kind: ErrNotFound, message: entity + " not found"}
}

func Conflict(format string, args ...any) error {
	return &kindError{kind: ErrConflict, message: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) error {
	return &kindError{kind: ErrValidation, message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &kindError{kind: ErrForbidden, message: fmt.Sprintf(format, args...)}
}
