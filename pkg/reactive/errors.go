package reactive

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrNilGetter is returned when a watcher is created without a getter.
var ErrNilGetter = errors.New("reactive: nil getter")

// ErrInvalidPath is returned when a watch path expression cannot be parsed.
var ErrInvalidPath = errors.New("reactive: invalid path")

// PanicError wraps a value recovered from a panicking getter or callback.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("reactive: panic: %v", e.Value)
}

// Unwrap returns the recovered value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}
