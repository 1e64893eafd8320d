package models

import "errors"

var (
	// ErrLoad means the source could not be read or parsed. Fatal for the session.
	ErrLoad = errors.New("load failed")

	// ErrType means a value could not be coerced or a parameter is invalid.
	ErrType = errors.New("type error")

	// ErrDivisionByZero marks a degenerate denominator in a ratio.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrMissingKey means a requested column is absent. Callers degrade instead of aborting.
	ErrMissingKey = errors.New("missing key")
)
