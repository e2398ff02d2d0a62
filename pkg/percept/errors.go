package percept

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotInitialized is returned when the pipeline is used before
	// Initialize has completed. This is a programming error, not a
	// runtime condition.
	ErrNotInitialized = errors.New("percept: not initialized")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("percept: invalid configuration")

	// ErrDisposed is returned when the pipeline is used after Dispose.
	ErrDisposed = errors.New("percept: disposed")
)

// AdapterError wraps a failure from an external model adapter. Adapter
// failures during frame processing are converted to Error-kind results and
// never halt the stream.
type AdapterError struct {
	// Adapter names which capability failed (cnn, lstm, detector).
	Adapter string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("percept [%s]: %v", e.Adapter, e.Err)
}

// Unwrap returns the underlying error.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// wrapAdapter wraps an error with adapter context.
func wrapAdapter(adapter string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Adapter: adapter, Err: err}
}
