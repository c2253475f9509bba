// Package apperror defines the domain error taxonomy shared by services and
// handlers. Services return *Error values; the handler layer maps the Kind to
// an HTTP status and renders the fields through the apierror envelope.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by how the caller is expected to react.
type Kind int

const (
	KindInternal     Kind = iota
	KindValidation        // caller corrects input and resubmits
	KindConflict          // invariant violation, retrying the same input recurs
	KindInvalidState      // operation attempted on a terminal session
	KindDependency        // external collaborator failed, safe to retry
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindDependency:
		return "dependency_error"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// FieldViolation points at the offending input, e.g. "denominations[1].quantity".
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the single error type returned by the service layer.
type Error struct {
	Kind         Kind
	Message      string
	Fields       []FieldViolation
	RegisterCode string
	SessionID    int64
	Err          error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrDependency   = &Error{Kind: KindDependency}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrForbidden    = &Error{Kind: KindForbidden}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.RegisterCode != "" {
		fmt.Fprintf(&b, " (register %s)", e.RegisterCode)
	}
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s %s", f.Field, f.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels (no message) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// WithRegister attaches the register code the failure refers to.
func (e *Error) WithRegister(code string) *Error {
	e.RegisterCode = code
	return e
}

// WithSession attaches the session id the failure refers to.
func (e *Error) WithSession(id int64) *Error {
	e.SessionID = id
	return e
}

func Validation(msg string, fields ...FieldViolation) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Dependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// Field is shorthand for building a FieldViolation.
func Field(field, format string, args ...any) FieldViolation {
	return FieldViolation{Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As unwraps err into an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
