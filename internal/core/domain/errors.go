package domain

import "errors"

// Lending errors
var (
	ErrNotFound        = errors.New("resource not found")
	ErrNotAvailable    = errors.New("book is not available")
	ErrStudentRequired = errors.New("a student must be selected to borrow")
	ErrUnauthorized    = errors.New("actor is not allowed to return this book")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrInvalidLending  = errors.New("invalid lending state")
)

// Common errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownPolicy      = errors.New("unknown access policy")
)
