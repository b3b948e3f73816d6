package service

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies service errors so the HTTP layer can map them to a status
// code without inspecting message strings.
type Kind int

const (
	KindStore Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindBusinessRule
)

// Error is the error type returned by every service operation that fails for
// a domain reason. Store/IO failures are returned wrapped but unclassified.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func Validation(msg string) error   { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func BusinessRule(msg string) error { return &Error{Kind: KindBusinessRule, Message: msg} }

// StatusCode maps a service error to its HTTP status. Unknown errors are
// treated as store failures (500).
func StatusCode(err error) int {
	var se *Error
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindBusinessRule:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// notFoundOr converts gorm's record-not-found into a domain NotFound with the
// given message, passing any other error through untouched.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(msg)
	}
	return err
}
