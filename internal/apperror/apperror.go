// Package apperror defines the error kinds the service layer returns.
//
// Every kind is a sentinel (ErrNotFound, ErrValidation, ...) wrapped inside an
// *AppError. Callers test the kind with errors.Is and read the details with
// errors.As, so the transport layer can map kinds to status codes without the
// services knowing anything about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("Validation Error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOperation   = errors.New("invalid operation")
)

// BlankMessage is the violation message for a required field that is missing or empty.
const BlankMessage = "can't be blank"

// TakenMessage is the violation message for a unique field that already exists.
const TakenMessage = "has already been taken"

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error

	// Fields holds every violated field with its messages, in the order the
	// rules ran. Set for ErrValidation and ErrConflict.
	Fields map[string][]string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
		Field:   resource,
	}
}

// ValidationFailed reports a single violated field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf("%s %s", field, message),
		Field:   field,
		Fields:  map[string][]string{field: {message}},
	}
}

// Invalid reports several violated fields at once. The map is copied.
func Invalid(fields map[string][]string) *AppError {
	copied := make(map[string][]string, len(fields))
	first := ""
	for field, msgs := range fields {
		copied[field] = append([]string(nil), msgs...)
		if first == "" || field < first {
			first = field
		}
	}
	msg := "validation failed"
	if first != "" {
		msg = fmt.Sprintf("%s %s", first, copied[first][0])
	}
	return &AppError{
		Err:     ErrValidation,
		Message: msg,
		Field:   first,
		Fields:  copied,
	}
}

// Conflict reports that one or more unique fields of a resource already exist.
func Conflict(resource string, fields ...string) *AppError {
	e := &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict", resource),
		Fields:  make(map[string][]string, len(fields)),
	}
	for _, f := range fields {
		if e.Field == "" {
			e.Field = f
			e.Message = fmt.Sprintf("%s conflict on %s", resource, f)
		}
		e.Fields[f] = []string{TakenMessage}
	}
	return e
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when an operation needs a caller identity and
// none was supplied.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "authentication required",
	}
}

// InvalidCredentials deliberately does not say whether the email or the
// password was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "is invalid",
		Field:   "email or password",
		Fields:  map[string][]string{"email or password": {"is invalid"}},
	}
}

// InvalidOperation reports a well-formed request the domain refuses, such as
// following yourself.
func InvalidOperation(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidOperation,
		Message: message,
		Field:   field,
		Fields:  map[string][]string{field: {message}},
	}
}

// FieldErrors returns the field map carried by err, or nil when err is not an
// *AppError with field details.
func FieldErrors(err error) map[string][]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
