// Package common holds the error taxonomy shared by the stores and the API surface.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrorValidation      = errors.New("validation error")
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")
	ErrorNotFound        = errors.New("not found")
	ErrorDuplicateVote   = errors.New("duplicate vote")
	ErrorAlreadyExists   = errors.New("already exists")

	// ErrorStorage marks failures of the durable store (unavailable, timed out).
	// Callers may retry.
	ErrorStorage = errors.New("storage failure")
)

// ValidationError describes user-correctable input problems, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrorValidation.Error()
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrorValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}
