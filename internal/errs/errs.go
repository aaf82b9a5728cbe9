// Package errs defines the error classes shared across the plot-cache core.
// Callers distinguish classes with errors.Is; packages attach context by
// wrapping with fmt.Errorf and %w.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks missing resources: absent use-case documents,
	// unregistered strategy names, unknown configuration keys.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed inputs: bad use-case identifiers,
	// invalid configuration documents, data failing a strategy's contract.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration marks configuration that parsed but cannot be acted
	// on, such as a key template referencing an unknown placeholder.
	ErrConfiguration = errors.New("configuration error")
	// ErrInternal marks unexpected failures that are logged and re-raised.
	ErrInternal = errors.New("internal error")
)

// NotFoundf builds a NotFound-class error with formatted context.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Validationf builds a Validation-class error with formatted context.
func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Configurationf builds a Configuration-class error with formatted context.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConfiguration)...)
}

// Internalf builds an Internal-class error with formatted context.
func Internalf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInternal)...)
}
