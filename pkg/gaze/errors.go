package gaze

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInit is returned when a provider cannot open its input channel.
	ErrInit = errors.New("gaze: initialization failed")

	// ErrMalformedPayload is returned when a network payload is not "x,y".
	ErrMalformedPayload = errors.New("gaze: malformed payload")

	// ErrUnknownMethod is returned by the factory for unsupported methods.
	ErrUnknownMethod = errors.New("gaze: unknown method")

	// ErrMissingDependency is returned when a method's collaborator was not supplied.
	ErrMissingDependency = errors.New("gaze: missing dependency")
)

// InitError describes a provider that failed to initialize.
type InitError struct {
	// Method identifies the provider that failed.
	Method Method

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *InitError) Error() string {
	return fmt.Sprintf("gaze [%s]: initialization failed: %v", e.Method, e.Err)
}

// Unwrap allows errors.Is(err, ErrInit) and access to the cause.
func (e *InitError) Unwrap() []error {
	return []error{ErrInit, e.Err}
}
