package apperrors

import "errors"

var (
	ErrValidation    = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrDuplicateLead = errors.New("door already has a lead")
	ErrAddressExists = errors.New("address already exists")
	ErrConflict      = errors.New("conflicting concurrent update")
)
