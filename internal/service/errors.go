package service

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindForbidden   ErrorKind = "forbidden"
	KindValidation  ErrorKind = "validation"
	KindConflict    ErrorKind = "conflict"
	KindPersistence ErrorKind = "persistence"
)

// DomainError is returned by every service operation that fails for a reason the caller can act on.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func domainError(kind ErrorKind, code, message string, err error) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func notFound(code, message string) *DomainError {
	return domainError(KindNotFound, code, message, nil)
}

func forbidden(message string, err error) *DomainError {
	return domainError(KindForbidden, "forbidden", message, err)
}

func invalid(code, message string, err error) *DomainError {
	return domainError(KindValidation, code, message, err)
}

func conflict(code, message string) *DomainError {
	return domainError(KindConflict, code, message, nil)
}

func persistence(op string, err error) *DomainError {
	return domainError(KindPersistence, "persistence_failure", op, err)
}

// KindOf returns the kind of a DomainError anywhere in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
