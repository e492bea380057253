package service

import (
	"errors"
	"fmt"

	"pharmacyos/internal/repository"
)

// ErrorKind classifies service failures for HTTP mapping and metrics.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindInsufficientStock   ErrorKind = "insufficient_stock"
	KindConcurrencyConflict ErrorKind = "concurrency_conflict"
	KindPersistence         ErrorKind = "persistence"
	KindUnauthorized        ErrorKind = "unauthorized"
)

// Error is the typed error returned by every service. Match with errors.Is
// against the Err* sentinels below; two Errors are equal when their kinds are.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation          = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrNotFound            = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrInsufficientStock   = &Error{Kind: KindInsufficientStock, Msg: "insufficient stock"}
	ErrConcurrencyConflict = &Error{Kind: KindConcurrencyConflict, Msg: "concurrent update, retry"}
	ErrPersistence         = &Error{Kind: KindPersistence, Msg: "storage failure"}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
)

func validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// insufficientStock names the drug and the units that could be allocated.
func insufficientStock(drugName string, requested, available int) error {
	return &Error{
		Kind: KindInsufficientStock,
		Msg:  fmt.Sprintf("insufficient stock for %s: requested %d, available %d", drugName, requested, available),
	}
}

// storageErr classifies a repository error. Errors that are already typed pass
// through untouched.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if repository.IsConflict(err) {
		return &Error{Kind: KindConcurrencyConflict, Msg: op + ": concurrent update, retry", Err: err}
	}
	if repository.IsNotFound(err) {
		return &Error{Kind: KindNotFound, Msg: op + ": not found", Err: err}
	}
	return &Error{Kind: KindPersistence, Msg: op + ": storage failure", Err: err}
}

// KindOf returns the kind of a service error, or KindPersistence for anything untyped.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindPersistence
}
