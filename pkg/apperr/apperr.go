package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindUserInput    Kind = "user_input"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindIntegrity    Kind = "integrity"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// Error carries a Kind the HTTP layer can map to a status code. Message is
// safe to show to the shopper; Cause is only logged.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Kind and Message so package level sentinels work with errors.Is
// even after being wrapped with a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || e.Message == t.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid form", Fields: fields}
}

// KindOf returns the Kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUserInput:
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindIntegrity, KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides internal failure details from the response body.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}
