package domain

import "errors"

// Общие доменные ошибки
var (
	ErrNotFound   = notFoundError("not found")
	ErrValidation = validationError("invalid data")
	ErrConflict   = conflictError("conflict")
)

// Ошибки книг и выдач
var (
	ErrTitleRequired = validationError("book title is required")
	ErrISBNTaken     = conflictError("isbn already registered")
	ErrBookOnLoan    = conflictError("book already on loan")
	ErrBookHasLoans  = conflictError("book is referenced by loans")
	ErrBookNotFound  = notFoundError("book not found")
	ErrLoanNotFound  = notFoundError("loan not found")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type conflictError string

func (e conflictError) Error() string { return string(e) }

func IsNotFound(err error) bool {
	var target notFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target validationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target conflictError
	return errors.As(err, &target)
}
