// Package domain holds the error kinds shared by the comment and block
// services. Transports map them to status codes; anything that is not one of
// these kinds is an infrastructure failure.
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	// ErrPermission deliberately carries no detail about why.
	ErrPermission = errors.New("you are not authorized")
	ErrConflict   = errors.New("already exists")
)

// Validation codes.
const (
	CodeEmptyContent       = "EMPTY_CONTENT"
	CodeContentTooLong     = "CONTENT_TOO_LONG"
	CodeInvalidVisibility  = "INVALID_VISIBILITY"
	CodeMissingPost        = "MISSING_POST"
	CodeParentPostMismatch = "PARENT_POST_MISMATCH"
	CodeMissingBlockee     = "MISSING_BLOCKEE"
	CodeSelfBlock          = "SELF_BLOCK"
)

// ValidationError is a user-correctable input problem. Message is safe to
// show verbatim.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(code, field, format string, args ...any) error {
	return &ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Message is the client-facing text. It omits the id.
func (e *NotFoundError) Message() string { return e.Resource + " not found" }

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsDomain reports whether err is one of the caller-input kinds.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPermission) || errors.Is(err, ErrConflict)
}
