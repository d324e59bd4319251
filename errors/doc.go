// Package errors provides structured error types for the hle module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the failing operation, a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseHandle, errors.KindExhausted).
//		Op("allocate").
//		Detail("table full at %d entries", 1024).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle("release", h)
//	err := errors.OutOfBounds(errors.PhaseGuest, ptr, n, size)
//
// All errors implement the standard error interface and support errors.Is/As.
// Guest-visible result codes live in package ipc; these errors are host-side only.
package errors
