package core

import "errors"

// Lookup and uniqueness failures. Reported to the immediate caller, never fatal.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Failures that originate outside the core. The core's state is left unchanged when they occur.
var (
	ErrFormat         = errors.New("format error")
	ErrAdapterFailure = errors.New("adapter failure")
)

// Validation failures raised by mutation commands and taxonomy edits.
var (
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidResource = errors.New("invalid resource")
	ErrUnknownField    = errors.New("unknown field")
)

// IsValidation reports whether err is one of the validation sentinels.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidResource) ||
		errors.Is(err, ErrUnknownField)
}
