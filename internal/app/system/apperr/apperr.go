// Package apperr defines the error taxonomy shared by the stores, the intake
// workflow and the HTTP features, and maps it onto status codes.
//
// Callers wrap with New/Wrap and test with errors.Is against the Kind
// sentinels (ErrValidation, ErrNotFound, ...) or errors.As against *Error.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping and logging.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindDuplicateAccount   Kind = "duplicate_account"
	KindNotFound           Kind = "not_found"
	KindUpstreamGeneration Kind = "upstream_generation"
	KindPersistence        Kind = "persistence"
	KindInvalidCredentials Kind = "invalid_credentials"
)

// Sentinels usable with errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateAccount   = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrUpstreamGeneration = errors.New("meal plan generation failed")
	ErrPersistence        = errors.New("persistence failure")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var sentinels = map[Kind]error{
	KindValidation:         ErrValidation,
	KindDuplicateAccount:   ErrDuplicateAccount,
	KindNotFound:           ErrNotFound,
	KindUpstreamGeneration: ErrUpstreamGeneration,
	KindPersistence:        ErrPersistence,
	KindInvalidCredentials: ErrInvalidCredentials,
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "planstore.save"
	Message string // client-safe message
	Email   string // colliding email for KindDuplicateAccount
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) match any *Error of that kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// New returns a classified error with a client-safe message.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation is shorthand for a KindValidation error.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// Duplicate reports an already-registered email.
func Duplicate(op, email string) *Error {
	return &Error{
		Kind:    KindDuplicateAccount,
		Op:      op,
		Message: "Email already registered",
		Email:   email,
	}
}

// KindOf returns the Kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return ""
}

// Status maps err to an HTTP status code. Unclassified errors are 500.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDuplicateAccount:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
