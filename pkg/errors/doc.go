/*
Package errors provides structured error handling for the system.

It defines a standard AppError type that includes:
  - Error Code (standardized strings like TIMEOUT, ILLEGAL_STATE, plus the
    layer-specific codes each package declares in its own errors.go)
  - Message (human-readable description)
  - Underlying Error (chaining)

Errors compare by code through errors.Is, so callers match against a layer's
sentinel codes without caring which component produced the failure.
*/
package errors
