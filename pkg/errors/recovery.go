// Package errors provides comprehensive error handling utilities for digitnet.
//
// This file contains panic recovery utilities. The numeric kernels in package nn
// index flat buffers directly, so a malformed graph can panic deep inside a
// forward pass; callers at the API boundary turn those panics into errors here.

package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError represents an error that was created from a recovered panic.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String provides detailed information including stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a new PanicError with the given operation context and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover is used with defer to convert a panic into a *PanicError assigned
// to err. When err already holds an error the panic is recorded alongside it.
//
// Usage:
//
//	func SomeMethod() (err error) {
//	    defer Recover(&err, "SomeMethod")
//	    ...
//	}
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		*err = fromPanic(*err, operation, r)
	}
}

// RecoverFramework is Recover for calls into the nn engine: the recovered
// panic is reported as a FrameworkError whose cause is the PanicError.
func RecoverFramework(err *error, operation string) {
	if r := recover(); r != nil {
		*err = NewFrameworkError(operation, fromPanic(*err, operation, r))
	}
}

func fromPanic(prev error, operation string, r interface{}) error {
	if prev != nil {
		return fmt.Errorf("panic in %s: %v (original error: %w)", operation, r, prev)
	}
	return NewPanicError(operation, r)
}
