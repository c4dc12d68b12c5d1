// Package apperr defines the error categories shared by the approval
// workflow, the cache and the HTTP layer. Each category is a distinct type so
// callers can branch with errors.As through the Is* helpers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// NewAuthorization creates an error for an actor that lacks the role an operation needs.
func NewAuthorization(format string, a ...any) error {
	return AuthorizationError{fmt.Errorf(format, a...)}
}

type AuthorizationError struct{ error }

func (e AuthorizationError) Unwrap() error { return e.error }

func IsAuthorization(err error) bool {
	var e AuthorizationError
	return errors.As(err, &e)
}

// NewNotFound creates an error for a record that is absent at the store.
func NewNotFound(format string, a ...any) error {
	return NotFoundError{fmt.Errorf(format, a...)}
}

type NotFoundError struct{ error }

func (e NotFoundError) Unwrap() error { return e.error }

func IsNotFound(err error) bool {
	var e NotFoundError
	return errors.As(err, &e)
}

// NewConflict creates an error for a conditional update whose precondition no
// longer holds at the store.
func NewConflict(format string, a ...any) error {
	return ConflictError{fmt.Errorf(format, a...)}
}

type ConflictError struct{ error }

func (e ConflictError) Unwrap() error { return e.error }

func IsConflict(err error) bool {
	var e ConflictError
	return errors.As(err, &e)
}

// NewConnectivity creates an error for a remote call that could not be
// attempted or completed.
func NewConnectivity(format string, a ...any) error {
	return ConnectivityError{fmt.Errorf(format, a...)}
}

type ConnectivityError struct{ error }

func (e ConnectivityError) Unwrap() error { return e.error }

func IsConnectivity(err error) bool {
	var e ConnectivityError
	return errors.As(err, &e)
}

// ValidationError lists every problem found in a malformed record.
type ValidationError struct {
	Problems []string
}

func NewValidation(problems ...string) error {
	return ValidationError{Problems: problems}
}

func (e ValidationError) Error() string {
	return "invalid event: " + strings.Join(e.Problems, "; ")
}

func IsValidation(err error) bool {
	var e ValidationError
	return errors.As(err, &e)
}
